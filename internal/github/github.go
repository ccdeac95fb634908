package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/dshills/tally/internal/review"
)

const defaultAPIURL = "https://api.github.com"

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client from GITHUB_TOKEN and, optionally,
// GITHUB_API_URL.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path, accept string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, data, fmt.Errorf("authentication failed: %s", string(data))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp.StatusCode, data, fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(data))
	}
	return resp.StatusCode, data, nil
}

// GetPRDiff fetches the unified diff of a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber)
	status, body, err := c.do(ctx, http.MethodGet, path, "application/vnd.github.v3.diff", nil)
	if status == http.StatusNotFound {
		return "", fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if err != nil {
		return "", fmt.Errorf("fetching PR diff: %w", err)
	}
	return string(body), nil
}

// PullRequest is the subset of PR metadata tally needs.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Head   struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
}

// GetPR fetches pull request metadata.
func (c *Client) GetPR(ctx context.Context, owner, repo string, prNumber int) (PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber)
	status, body, err := c.do(ctx, http.MethodGet, path, "application/vnd.github.v3+json", nil)
	if status == http.StatusNotFound {
		return PullRequest{}, fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if err != nil {
		return PullRequest{}, fmt.Errorf("fetching PR: %w", err)
	}
	var pr PullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("parsing response: %w", err)
	}
	return pr, nil
}

// ReviewComment represents an inline comment on a PR review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	CommitID string          `json:"commit_id,omitempty"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, rev ReviewRequest) error {
	payload, err := json.Marshal(rev)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, prNumber)
	status, body, err := c.do(ctx, http.MethodPost, path, "application/vnd.github.v3+json", payload)
	if status == http.StatusUnprocessableEntity {
		return fmt.Errorf("GitHub rejected review (422): %s", string(body))
	}
	if err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	return nil
}

// CommentableLines returns, per file, the new-side line numbers a review
// comment may target: added and context lines inside the diff's hunks.
func CommentableLines(patch string) (map[string]map[int]bool, error) {
	fds, err := diff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("parsing PR diff: %w", err)
	}

	out := make(map[string]map[int]bool, len(fds))
	for _, fd := range fds {
		name := strings.TrimPrefix(fd.NewName, "b/")
		if fd.NewName == "/dev/null" {
			continue
		}
		lines := out[name]
		if lines == nil {
			lines = make(map[int]bool)
			out[name] = lines
		}
		for _, h := range fd.Hunks {
			n := int(h.NewStartLine)
			for _, l := range strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n") {
				if strings.HasPrefix(l, "-") || strings.HasPrefix(l, `\`) {
					continue
				}
				lines[n] = true
				n++
			}
		}
	}
	return out, nil
}

// BuildGitHubReview converts a report into a GitHub PR review request.
// Issues on a commentable line become inline comments; everything else,
// including diff-local issues whose lines are fragment positions, is listed
// in the summary body.
func BuildGitHubReview(report *review.Report, commentable map[string]map[int]bool) ReviewRequest {
	var bodyComments []string
	var comments []ReviewComment

	for _, f := range report.Files {
		res := f.Result
		for _, g := range f.Lines {
			for _, iss := range g.Issues {
				if iss.Source != review.SourceDiffLocal && commentable[res.File][iss.Line] {
					comments = append(comments, ReviewComment{
						Path: res.File,
						Line: iss.Line,
						Body: formatInlineComment(iss, suggestionFor(res.Suggestions, iss)),
					})
					continue
				}
				bodyComments = append(bodyComments, formatIssueBody(res.File, iss))
			}
		}
	}

	counts := report.Summary.Counts
	var sb strings.Builder
	sb.WriteString("## Tally Code Review\n\n")
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Error | %d |\n", counts.Error)
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts.Warning)
	fmt.Fprintf(&sb, "| Info | %d |\n\n", counts.Info)
	fmt.Fprintf(&sb, "Average score: %.1f/10 across %d files\n\n", report.Summary.AverageScore, report.Summary.Files)

	if len(bodyComments) > 0 {
		sb.WriteString("### Other Findings\n\n")
		for _, c := range bodyComments {
			sb.WriteString(c)
			sb.WriteString("\n")
		}
	}
	if report.Omitted > 0 {
		fmt.Fprintf(&sb, "\n_%d more issues omitted._\n", report.Omitted)
	}

	return ReviewRequest{
		Body:     sb.String(),
		Event:    "COMMENT",
		Comments: comments,
	}
}

// suggestionFor returns the first suggestion on the issue's line whose rule
// matches, if any.
func suggestionFor(suggestions []review.Suggestion, iss review.Issue) *review.Suggestion {
	for i, s := range suggestions {
		if s.Line == iss.Line && (s.Rule == "" || s.Rule == iss.Rule) {
			return &suggestions[i]
		}
	}
	return nil
}

func formatInlineComment(iss review.Issue, s *review.Suggestion) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s)\n\n%s", iss.Severity, label(iss), iss.Message)
	if s != nil {
		fmt.Fprintf(&sb, "\n\n**Suggestion:** %s", s.Message)
		if s.Code != "" {
			fmt.Fprintf(&sb, "\n```\n%s\n```", strings.TrimRight(s.Code, "\n"))
		}
	}
	return sb.String()
}

func formatIssueBody(file string, iss review.Issue) string {
	loc := fmt.Sprintf("`%s:%d`", file, iss.Line)
	if iss.Source == review.SourceDiffLocal {
		loc = fmt.Sprintf("`%s` (diff line %d)", file, iss.Line)
	}
	return fmt.Sprintf("- %s **%s** (%s): %s", loc, iss.Severity, label(iss), iss.Message)
}

func label(iss review.Issue) string {
	if iss.Rule != "" {
		return string(iss.Source) + "/" + iss.Rule
	}
	return string(iss.Source)
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo(ctx context.Context) (owner, repo string, err error) {
	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
