package heuristic

import (
	"context"
	"strings"
	"testing"

	"github.com/dshills/tally/internal/review"
	"github.com/dshills/tally/internal/unidiff"
)

func diffInput(path, d string) review.Input {
	return review.Input{
		Change:         review.FileChange{Path: path, Kind: review.ChangeModified, Diff: d},
		Reconstruction: unidiff.Reconstruct(d),
	}
}

func TestDiffAnalyzer_Introduced(t *testing.T) {
	d := "@@ -1,2 +1,3 @@\n call()\n-// TODO: old\n+console.log(x)\n+eval(y)\n"
	r, err := NewDiffAnalyzer(nil).Analyze(context.Background(), diffInput("a.js", d))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(r.Issues) != 2 {
		t.Fatalf("issues = %+v", r.Issues)
	}
	if r.Issues[0].Rule != RuleEval || r.Issues[0].Line != 3 {
		t.Errorf("issues[0] = %+v", r.Issues[0])
	}
	if r.Issues[1].Rule != RuleDebugPrint || r.Issues[1].Line != 2 {
		t.Errorf("issues[1] = %+v", r.Issues[1])
	}
	for _, iss := range r.Issues {
		if iss.Source != review.SourceDiffLocal {
			t.Errorf("source = %q", iss.Source)
		}
	}
	if len(r.Suggestions) != 2 {
		t.Errorf("suggestions = %+v", r.Suggestions)
	}
	if !strings.Contains(r.Summary, "introduces 2") || !strings.Contains(r.Summary, "resolves 1") {
		t.Errorf("summary = %q", r.Summary)
	}
}

func TestDiffAnalyzer_PreexistingNotReported(t *testing.T) {
	d := " // TODO: keep\n-x = 1\n+x = 2\n"
	r, err := NewDiffAnalyzer(nil).Analyze(context.Background(), diffInput("a.py", d))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Issues) != 0 {
		t.Errorf("expected no introduced issues, got %+v", r.Issues)
	}
	if r.Score != 10 {
		t.Errorf("Score = %v", r.Score)
	}
}

func TestCompare_OneToOne(t *testing.T) {
	todo := review.Issue{Rule: RuleTodo, Message: "Unresolved TODO marker", Line: 1}
	before := []review.Issue{todo}
	after := []review.Issue{todo, todo}

	introduced, resolved := Compare(before, after)
	if len(introduced) != 1 || len(resolved) != 0 {
		t.Errorf("introduced=%d resolved=%d", len(introduced), len(resolved))
	}
}

func TestCompare_SimilarMessages(t *testing.T) {
	before := []review.Issue{{Rule: RuleLineLength, Message: "Line too long (130 characters)"}}
	after := []review.Issue{{Rule: RuleLineLength, Message: "Line too long (125 characters)"}}
	introduced, resolved := Compare(before, after)
	if len(introduced) != 0 || len(resolved) != 0 {
		t.Errorf("similar messages should pair, introduced=%v resolved=%v", introduced, resolved)
	}

	other := []review.Issue{{Rule: RuleTodo, Message: "Line too long (125 characters)"}}
	introduced, _ = Compare(before, other)
	if len(introduced) != 1 {
		t.Errorf("different rules should not pair")
	}
}

func TestMessageSimilar(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Debug print statement", "debug print statement", true},
		{"Magic number 300", "magic number", true},
		{"Magic number 300", "Magic number 500", true},
		{"Dynamic code execution", "Unsafe DOM sink", false},
		{"", "x", true},
	}
	for _, tt := range tests {
		if got := messageSimilar(tt.a, tt.b); got != tt.want {
			t.Errorf("messageSimilar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
