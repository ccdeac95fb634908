package review

import "testing"

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityInfo, 1},
		{SeverityWarning, 2},
		{SeverityError, 3},
		{Severity("unknown"), 0},
	}
	for _, tt := range tests {
		got := SeverityRank(tt.severity)
		if got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityError, "none", false},
		{SeverityError, "", false},
		{SeverityError, "error", true},
		{SeverityError, "warning", true},
		{SeverityError, "info", true},
		{SeverityWarning, "error", false},
		{SeverityWarning, "warning", true},
		{SeverityWarning, "info", true},
		{SeverityInfo, "error", false},
		{SeverityInfo, "warning", false},
		{SeverityInfo, "info", true},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.severity, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	if s, ok := ParseSeverity("Warning"); !ok || s != SeverityWarning {
		t.Errorf("ParseSeverity(Warning) = %q, %v", s, ok)
	}
	if _, ok := ParseSeverity("critical"); ok {
		t.Errorf("ParseSeverity(critical) should fail")
	}
}

func TestClone_Independent(t *testing.T) {
	orig := ReviewResult{
		File:        "a.go",
		Issues:      []Issue{{Severity: SeverityError, Line: 1, Message: "x"}},
		Suggestions: []Suggestion{{Line: 1, Message: "y"}},
	}
	c := orig.Clone()
	c.Issues[0].Message = "changed"
	c.Suggestions = append(c.Suggestions, Suggestion{Line: 2})

	if orig.Issues[0].Message != "x" {
		t.Errorf("clone shares issues with original")
	}
	if len(orig.Suggestions) != 1 {
		t.Errorf("clone shares suggestions with original")
	}
}

func TestClone_NilSlices(t *testing.T) {
	c := ReviewResult{File: "a.go"}.Clone()
	if c.Issues == nil || c.Suggestions == nil {
		t.Errorf("Clone should never return nil slices")
	}
}

func TestCountSeverities(t *testing.T) {
	c := CountSeverities([]Issue{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
		{Severity: "bogus"},
	})
	if c.Error != 1 || c.Warning != 2 || c.Info != 1 {
		t.Errorf("counts = %+v", c)
	}
	if c.Total() != 4 {
		t.Errorf("Total() = %d, want 4", c.Total())
	}
}

func TestPenaltyScore(t *testing.T) {
	tests := []struct {
		name   string
		issues []Issue
		want   float64
	}{
		{"clean", nil, 10},
		{"one of each", []Issue{{Severity: SeverityError}, {Severity: SeverityWarning}, {Severity: SeverityInfo}}, 6.8},
		{"clamped", []Issue{{Severity: SeverityError}, {Severity: SeverityError}, {Severity: SeverityError}, {Severity: SeverityError}, {Severity: SeverityError}, {Severity: SeverityError}}, 0},
	}
	for _, tt := range tests {
		if got := PenaltyScore(tt.issues); got != tt.want {
			t.Errorf("%s: PenaltyScore = %v, want %v", tt.name, got, tt.want)
		}
	}
}
