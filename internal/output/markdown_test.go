package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## Tally Code Review") {
		t.Error("missing heading")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("missing no-issues message")
	}
}

func TestMarkdownWriter_WithIssues(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"| Error    | 1    |",
		"| Warning  | 1    |",
		"<code>main.go</code> (2 issues, score 6.5)",
		":red_circle:",
		"| 12 | :orange_circle: warning | `line-length` | Line too long (130 characters) |",
		`x could be nil \| here`,
		"**Suggestion (line 3):** Add a nil check",
		"```go\nif x == nil {",
		"</details>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "clean.go") {
		t.Error("files without findings should be skipped")
	}
}

func TestInferLang(t *testing.T) {
	tests := map[string]string{
		"main.go":   "go",
		"app.PY":    "python",
		"infra.tf":  "hcl",
		"README":    "",
		"notes.txt": "",
	}
	for path, want := range tests {
		if got := inferLang(path); got != want {
			t.Errorf("inferLang(%q) = %q, want %q", path, got, want)
		}
	}
}
