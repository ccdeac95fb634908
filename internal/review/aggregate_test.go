package review

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCombine_Scores(t *testing.T) {
	tests := []struct {
		scores []float64
		want   float64
	}{
		{[]float64{8, 6, 4}, 6.0},
		{[]float64{10}, 10.0},
		{[]float64{10, 0}, 5.0},
		{[]float64{7, 8, 8}, 7.7},
	}
	for _, tt := range tests {
		var results []ReviewResult
		for _, s := range tt.scores {
			results = append(results, ReviewResult{File: "a.go", Score: s})
		}
		got, err := Combine(results)
		if err != nil {
			t.Fatalf("Combine(%v): %v", tt.scores, err)
		}
		if got.Score != tt.want {
			t.Errorf("Combine(%v).Score = %v, want %v", tt.scores, got.Score, tt.want)
		}
	}
}

func TestCombine_ConcatenatesInOrder(t *testing.T) {
	dup := Issue{Severity: SeverityWarning, Line: 3, Message: "same", Source: SourceHeuristic}
	results := []ReviewResult{
		{
			File:        "a.go",
			Issues:      []Issue{dup, {Severity: SeverityInfo, Line: 1, Message: "h2", Source: SourceHeuristic}},
			Suggestions: []Suggestion{{Line: 1, Message: "s1", Source: SourceHeuristic}},
			Summary:     "heuristic ok",
			Score:       9,
		},
		{
			File:    "a.go",
			Issues:  []Issue{dup},
			Summary: "  ",
			Score:   5,
		},
		{
			File:        "a.go",
			Issues:      []Issue{{Severity: SeverityError, Line: 2, Message: "sem", Source: SourceSemantic}},
			Suggestions: []Suggestion{{Line: 2, Message: "s2", Source: SourceSemantic}},
			Summary:     "semantic",
			Score:       1,
		},
	}

	got, err := Combine(results)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	wantIssues := []Issue{
		dup,
		{Severity: SeverityInfo, Line: 1, Message: "h2", Source: SourceHeuristic},
		dup,
		{Severity: SeverityError, Line: 2, Message: "sem", Source: SourceSemantic},
	}
	if diff := cmp.Diff(wantIssues, got.Issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
	if len(got.Suggestions) != 2 || got.Suggestions[0].Message != "s1" || got.Suggestions[1].Message != "s2" {
		t.Errorf("suggestions = %+v", got.Suggestions)
	}
	if got.Summary != "heuristic ok | semantic" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.Score != 5.0 {
		t.Errorf("Score = %v, want 5.0", got.Score)
	}
}

func TestCombine_ScoreNotDerivedFromIssues(t *testing.T) {
	got, err := Combine([]ReviewResult{
		{File: "a.go", Score: 2},
		{File: "a.go", Score: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Issues) != 0 {
		t.Errorf("expected no issues, got %d", len(got.Issues))
	}
	if got.Score != 3 {
		t.Errorf("Score = %v, want 3", got.Score)
	}
}

func TestCombine_Errors(t *testing.T) {
	if _, err := Combine(nil); !errors.Is(err, ErrNoResults) {
		t.Errorf("Combine(nil) err = %v, want ErrNoResults", err)
	}
	_, err := Combine([]ReviewResult{{File: "a.go"}, {File: "b.go"}})
	if !errors.Is(err, ErrMixedFiles) {
		t.Errorf("Combine(mixed) err = %v, want ErrMixedFiles", err)
	}
}

func TestCombine_WithFailureResult(t *testing.T) {
	fail := FailureResult("a.go", SourceSemantic, errors.New("boom"))
	got, err := Combine([]ReviewResult{
		{File: "a.go", Score: 10},
		fail,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Score != 5 {
		t.Errorf("Score = %v, want 5", got.Score)
	}
	if len(got.Issues) != 1 || got.Issues[0].Severity != SeverityError || got.Issues[0].Rule != FailureRule {
		t.Errorf("issues = %+v", got.Issues)
	}
}

func TestGroupByLine(t *testing.T) {
	r := ReviewResult{
		File: "a.go",
		Issues: []Issue{
			{Severity: SeverityWarning, Line: 5, Message: "w5"},
			{Severity: SeverityError, Line: 2, Message: "e2"},
			{Severity: SeverityInfo, Line: 5, Message: "i5"},
			{Severity: SeverityError, Line: 5, Message: "e5"},
		},
	}
	groups := GroupByLine(r)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Line != 2 || groups[1].Line != 5 {
		t.Errorf("lines = %d, %d", groups[0].Line, groups[1].Line)
	}
	var msgs []string
	for _, iss := range groups[1].Issues {
		msgs = append(msgs, iss.Message)
	}
	if diff := cmp.Diff([]string{"w5", "i5", "e5"}, msgs); diff != "" {
		t.Errorf("line 5 order (-want +got):\n%s", diff)
	}
	if c := groups[1].Counts; c.Error != 1 || c.Warning != 1 || c.Info != 1 {
		t.Errorf("line 5 counts = %+v", c)
	}
}

func TestGroupByLine_Recomputable(t *testing.T) {
	r := ReviewResult{Issues: []Issue{{Line: 3}, {Line: 1}, {Line: 3}}}
	if diff := cmp.Diff(GroupByLine(r), GroupByLine(r)); diff != "" {
		t.Errorf("grouping not stable:\n%s", diff)
	}
	if len(r.Issues) != 3 || r.Issues[0].Line != 3 {
		t.Errorf("GroupByLine mutated its input")
	}
}

func TestSortIssues(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityInfo, Line: 1},
		{Severity: SeverityError, Line: 9},
		{Severity: SeverityError, Line: 2, Column: 4},
		{Severity: SeverityError, Line: 2, Column: 1},
	}
	SortIssues(issues)
	if issues[0].Line != 2 || issues[0].Column != 1 || issues[2].Line != 9 || issues[3].Severity != SeverityInfo {
		t.Errorf("unexpected order: %+v", issues)
	}
}
