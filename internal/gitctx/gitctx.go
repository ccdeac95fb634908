package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/tally/internal/review"
	"github.com/dshills/tally/internal/unidiff"
)

// DiffOptions controls how changes are gathered.
type DiffOptions struct {
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// Changes holds the gathered file changes and metadata.
type Changes struct {
	Files []review.FileChange
	Mode  string
	Range string
	Repo  review.RepoInfo
	// Skipped lists files dropped once the MaxDiffBytes budget ran out.
	Skipped []string
}

// Paths returns the path of every gathered change.
func (c Changes) Paths() []string {
	out := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		out = append(out, f.Path)
	}
	return out
}

// contentFunc resolves the post-change text of a path.
type contentFunc func(ctx context.Context, path string) (string, error)

// GetRepoInfo collects repository metadata from git.
func GetRepoInfo(ctx context.Context) (review.RepoInfo, error) {
	root, err := gitOutput(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return review.RepoInfo{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return review.RepoInfo{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the working tree changes against the index.
func Unstaged(ctx context.Context, opts DiffOptions) (Changes, error) {
	diff, err := gitOutput(ctx, append([]string{"diff"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return Changes{}, fmt.Errorf("git diff: %w", err)
	}
	return buildChanges(ctx, diff, "unstaged", "", opts, worktreeContent(ctx))
}

// Staged returns the index changes against HEAD.
func Staged(ctx context.Context, opts DiffOptions) (Changes, error) {
	diff, err := gitOutput(ctx, append([]string{"diff", "--cached"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return Changes{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildChanges(ctx, diff, "staged", "", opts, revisionContent(""))
}

// Commit returns the changes of a commit against its parent, or against
// parent when one is given.
func Commit(ctx context.Context, sha, parent string, opts DiffOptions) (Changes, error) {
	args := buildDiffArgs(opts)
	base := parent
	if base == "" {
		base = sha + "~1"
	}
	diff, err := gitOutput(ctx, append([]string{"diff", base, sha}, args...)...)
	if err != nil {
		if parent != "" {
			return Changes{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
		}
		// Root commit has no parent.
		diff, err = gitOutput(ctx, append([]string{"show", "--format=", sha}, args...)...)
		if err != nil {
			return Changes{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	return buildChanges(ctx, diff, "commit", sha, opts, revisionContent(sha))
}

// Range returns the combined changes of a revision range. With mergeBase,
// "a..b" is compared as "a...b".
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (Changes, error) {
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	diff, err := gitOutput(ctx, append([]string{"diff", diffRange}, buildDiffArgs(opts)...)...)
	if err != nil {
		return Changes{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}

	content := worktreeContent(ctx)
	if tip := rangeTip(revRange); tip != "" {
		content = revisionContent(tip)
	}
	return buildChanges(ctx, diff, "range", revRange, opts, content)
}

// FromPatch splits an externally obtained patch into changes. When rev is
// non-empty and present locally, file content is read from it; otherwise
// content stays unknown and analyzers fall back to the diff fragment.
func FromPatch(ctx context.Context, patch, mode, label, rev string, opts DiffOptions) (Changes, error) {
	var content contentFunc
	if rev != "" {
		if _, err := gitOutput(ctx, "cat-file", "-e", rev+"^{commit}"); err == nil {
			content = revisionContent(rev)
		}
	}
	return buildChanges(ctx, patch, mode, label, opts, content)
}

// rangeTip returns the revision holding the new side of a range. A bare
// revision compares against the working tree and has no tip.
func rangeTip(revRange string) string {
	if i := strings.Index(revRange, "..."); i >= 0 {
		return orHead(revRange[i+3:])
	}
	if i := strings.Index(revRange, ".."); i >= 0 {
		return orHead(revRange[i+2:])
	}
	return ""
}

func orHead(rev string) string {
	if rev == "" {
		return "HEAD"
	}
	return rev
}

// Snippet wraps raw content as a single change. If base is provided the
// diff is computed against it, otherwise the content is treated as a new file.
func Snippet(ctx context.Context, content, path, base string) (Changes, error) {
	change := review.FileChange{Path: path, Kind: review.ChangeAdded, Content: &content}
	if base != "" {
		diff, err := noIndexDiff(ctx, path, base, content)
		if err != nil {
			return Changes{}, err
		}
		change.Kind = review.ChangeModified
		change.Diff = diff
	} else {
		change.Diff = syntheticDiff(path, content)
	}
	return Changes{Files: []review.FileChange{change}, Mode: "snippet"}, nil
}

func noIndexDiff(ctx context.Context, path, base, content string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "tally-snippet-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "snippet"
	}
	aFile := filepath.Join(tmpDir, "a", name)
	bFile := filepath.Join(tmpDir, "b", name)
	for file, text := range map[string]string{aFile: base, bFile: content} {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(file, []byte(text), 0o644); err != nil {
			return "", err
		}
	}

	// git diff --no-index exits 1 when the files differ.
	diff, err := gitOutput(ctx, "diff", "--no-index", aFile, bFile)
	if err != nil && diff == "" {
		return "", fmt.Errorf("git diff --no-index: %w", err)
	}
	return diff, nil
}

// syntheticDiff renders content as a new-file patch.
func syntheticDiff(path, content string) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&b, "new file mode 100644\n")
	fmt.Fprintf(&b, "--- /dev/null\n")
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		fmt.Fprintf(&b, "+%s\n", line)
	}
	return b.String()
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func buildChanges(ctx context.Context, diff, mode, rangeStr string, opts DiffOptions, content contentFunc) (Changes, error) {
	repo, err := GetRepoInfo(ctx)
	if err != nil {
		repo = review.RepoInfo{}
	}

	sections, err := unidiff.SplitFiles(diff)
	if err != nil {
		return Changes{}, fmt.Errorf("splitting diff: %w", err)
	}

	changes := Changes{Mode: mode, Range: rangeStr, Repo: repo}
	budget := opts.MaxDiffBytes
	for _, sec := range sections {
		path := sec.Path()
		// Excludes are applied before the byte budget is spent.
		if path == "" || MatchesAny(path, opts.Exclude) {
			continue
		}
		if opts.MaxDiffBytes > 0 && (len(changes.Skipped) > 0 || len(sec.Text) > budget) {
			changes.Skipped = append(changes.Skipped, path)
			continue
		}
		budget -= len(sec.Text)

		change := review.FileChange{Path: path, Kind: changeKind(sec.Kind), Diff: sec.Text}
		if change.Kind != review.ChangeDeleted && content != nil {
			text, err := content(ctx, path)
			if err == nil {
				change.Content = &text
			}
		}
		changes.Files = append(changes.Files, change)
	}
	return changes, nil
}

func changeKind(k unidiff.Kind) review.ChangeKind {
	switch k {
	case unidiff.KindAdded:
		return review.ChangeAdded
	case unidiff.KindDeleted:
		return review.ChangeDeleted
	default:
		return review.ChangeModified
	}
}

// worktreeContent reads files relative to the repository root, falling back
// to the working directory outside a repository.
func worktreeContent(ctx context.Context) contentFunc {
	root := "."
	if out, err := gitOutput(ctx, "rev-parse", "--show-toplevel"); err == nil {
		root = strings.TrimSpace(out)
	}
	return func(_ context.Context, path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// revisionContent reads files from a revision. An empty rev reads the index.
func revisionContent(rev string) contentFunc {
	return func(ctx context.Context, path string) (string, error) {
		return gitOutput(ctx, "show", rev+":"+path)
	}
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			clean := strings.TrimPrefix(dir, "**/")
			if path == clean || strings.HasPrefix(path, clean+"/") || strings.Contains(path, "/"+clean+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// maxFileBytes is the per-file size limit for codebase review.
const maxFileBytes = 1 << 20 // 1MB

// WalkFiles returns all git-tracked, non-binary files matching the
// include/exclude filters, sorted.
func WalkFiles(ctx context.Context, opts DiffOptions) ([]string, error) {
	out, err := gitOutput(ctx, "ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(opts.Include) > 0 && !MatchesAny(line, opts.Include) {
			continue
		}
		if MatchesAny(line, opts.Exclude) {
			continue
		}
		if isBinary(ctx, line) {
			continue
		}
		files = append(files, line)
	}

	sort.Strings(files)
	return files, nil
}

// isBinary reports "-\t-\t" numstat output, which git uses for binaries.
func isBinary(ctx context.Context, path string) bool {
	out, _ := gitOutput(ctx, "diff", "--no-index", "--numstat", "/dev/null", path)
	return strings.HasPrefix(strings.TrimSpace(out), "-\t-\t")
}

// Codebase returns every tracked source file as a newly added change.
// MaxDiffBytes caps the total synthesized diff size.
func Codebase(ctx context.Context, opts DiffOptions) (Changes, error) {
	repo, err := GetRepoInfo(ctx)
	if err != nil {
		return Changes{}, err
	}

	files, err := WalkFiles(ctx, opts)
	if err != nil {
		return Changes{}, err
	}

	changes := Changes{Mode: "codebase", Repo: repo}
	total := 0
	for _, path := range files {
		data, err := os.ReadFile(filepath.Join(repo.Root, filepath.FromSlash(path)))
		if err != nil || len(data) > maxFileBytes {
			continue
		}
		content := string(data)
		diff := syntheticDiff(path, content)
		if opts.MaxDiffBytes > 0 && total+len(diff) > opts.MaxDiffBytes {
			changes.Skipped = append(changes.Skipped, path)
			continue
		}
		total += len(diff)
		changes.Files = append(changes.Files, review.FileChange{
			Path:    path,
			Kind:    review.ChangeAdded,
			Diff:    diff,
			Content: &content,
		})
	}
	return changes, nil
}

func gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
