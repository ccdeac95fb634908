package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dshills/tally/internal/review"
)

func TestGetPRDiff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3.diff" {
			t.Errorf("Accept = %q, want %q", r.Header.Get("Accept"), "application/vnd.github.v3.diff")
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("Path = %q, want %q", r.URL.Path, "/repos/owner/repo/pulls/42")
		}
		w.Write([]byte("diff --git a/file.go b/file.go\n"))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	diff, err := c.GetPRDiff(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPRDiff error: %v", err)
	}
	if diff != "diff --git a/file.go b/file.go\n" {
		t.Errorf("diff = %q", diff)
	}
}

func TestGetPRDiff_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	_, err := c.GetPRDiff(context.Background(), "owner", "repo", 99)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if got := err.Error(); got != "PR #99 not found in owner/repo" {
		t.Errorf("error = %q", got)
	}
}

func TestGetPRDiff_401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "bad-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	_, err := c.GetPRDiff(context.Background(), "owner", "repo", 1)
	if err == nil {
		t.Fatal("Expected error for 401")
	}
	if got := err.Error(); !strings.Contains(got, `authentication failed: {"message":"Bad credentials"}`) {
		t.Errorf("error = %q", got)
	}
}

func TestGetPR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"number":42,"title":"Add feature","head":{"sha":"abc123","ref":"feature"}}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	pr, err := c.GetPR(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPR error: %v", err)
	}
	if pr.Number != 42 || pr.Head.SHA != "abc123" {
		t.Errorf("pr = %+v", pr)
	}
}

func TestPostReview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42/reviews" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}

		var rev ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&rev); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if rev.Event != "COMMENT" {
			t.Errorf("Event = %q, want COMMENT", rev.Event)
		}
		if len(rev.Comments) != 1 {
			t.Errorf("Comments count = %d, want 1", len(rev.Comments))
		}

		w.WriteHeader(200)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	err := c.PostReview(context.Background(), "owner", "repo", 42, ReviewRequest{
		Body:  "summary",
		Event: "COMMENT",
		Comments: []ReviewComment{
			{Path: "main.go", Line: 10, Body: "issue here"},
		},
	})
	if err != nil {
		t.Fatalf("PostReview error: %v", err)
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "HTTPS",
			url:       "https://github.com/dshills/tally.git",
			wantOwner: "dshills",
			wantRepo:  "tally",
		},
		{
			name:      "HTTPS no .git",
			url:       "https://github.com/dshills/tally",
			wantOwner: "dshills",
			wantRepo:  "tally",
		},
		{
			name:      "SSH",
			url:       "git@github.com:dshills/tally.git",
			wantOwner: "dshills",
			wantRepo:  "tally",
		},
		{
			name:      "SSH no .git",
			url:       "git@github.com:dshills/tally",
			wantOwner: "dshills",
			wantRepo:  "tally",
		},
		{
			name:    "invalid",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}

func TestPostReview_422(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"message":"line must be part of the diff"}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	err := c.PostReview(context.Background(), "owner", "repo", 42, ReviewRequest{Event: "COMMENT"})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Errorf("err = %v, want 422 rejection", err)
	}
}

const prPatch = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -8,4 +8,5 @@ func main() {
 	a := 1
-	b := 2
+	b := 3
+	c := 4
 	_ = a
 }
diff --git a/gone.go b/gone.go
deleted file mode 100644
index 3333333..0000000
--- a/gone.go
+++ /dev/null
@@ -1 +0,0 @@
-package gone
`

func TestCommentableLines(t *testing.T) {
	lines, err := CommentableLines(prPatch)
	if err != nil {
		t.Fatalf("CommentableLines error: %v", err)
	}
	if _, ok := lines["gone.go"]; ok {
		t.Error("deleted files have no commentable lines")
	}
	for _, n := range []int{8, 9, 10, 11, 12} {
		if !lines["main.go"][n] {
			t.Errorf("line %d should be commentable", n)
		}
	}
	if lines["main.go"][13] || lines["main.go"][7] {
		t.Error("lines outside the hunk should not be commentable")
	}
}

func TestBuildGitHubReview(t *testing.T) {
	report := review.NewReport(review.RepoInfo{}, review.InputInfo{Mode: "github"}, []review.ReviewResult{
		{
			File: "main.go",
			Issues: []review.Issue{
				{Severity: review.SeverityError, Line: 10, Message: "Possible nil dereference", Source: review.SourceSemantic},
				{Severity: review.SeverityWarning, Line: 40, Message: "Function too long", Rule: "func-length", Source: review.SourceHeuristic},
				{Severity: review.SeverityWarning, Line: 2, Message: "Debug print added", Rule: "debug-print", Source: review.SourceDiffLocal},
			},
			Suggestions: []review.Suggestion{
				{Line: 10, Message: "Add nil check", Source: review.SourceSemantic, Code: "if b == nil { return }"},
			},
			Score: 7,
		},
	}, review.Timing{})

	lines, err := CommentableLines(prPatch)
	if err != nil {
		t.Fatal(err)
	}
	rev := BuildGitHubReview(report, lines)

	if rev.Event != "COMMENT" {
		t.Errorf("Event = %q, want COMMENT", rev.Event)
	}
	if len(rev.Comments) != 1 {
		t.Fatalf("Comments count = %d, want 1", len(rev.Comments))
	}
	c := rev.Comments[0]
	if c.Path != "main.go" || c.Line != 10 {
		t.Errorf("comment = %+v", c)
	}
	if !strings.Contains(c.Body, "Add nil check") || !strings.Contains(c.Body, "if b == nil") {
		t.Errorf("comment should carry the suggestion, got: %s", c.Body)
	}

	for _, want := range []string{
		"| Error | 1 |",
		"| Warning | 2 |",
		"`main.go:40` **warning** (heuristic/func-length): Function too long",
		"`main.go` (diff line 2)",
	} {
		if !strings.Contains(rev.Body, want) {
			t.Errorf("body missing %q:\n%s", want, rev.Body)
		}
	}
}
