package semantic

import (
	"strings"
	"testing"

	"github.com/dshills/tally/internal/review"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "Go"},
		{"src/App.TSX", "TypeScript/React"},
		{"script.py", "Python"},
		{"Makefile", "plain text"},
		{"notes.txt", "plain text"},
	}
	for _, tt := range tests {
		if got := Language(tt.path); got != tt.want {
			t.Errorf("Language(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	rules := &review.Rules{Focus: []string{"security"}}
	prompt := BuildPrompt("pkg/a.go", "package a\n\nfunc A() {}\n", rules)

	for _, want := range []string{
		"File: pkg/a.go",
		"Language: Go",
		"Focus areas: security",
		`"issues"`,
		`"suggestions"`,
		`"summary"`,
		"   1 | package a\n",
		"   2 | \n",
		"   3 | func A() {}\n",
		"--- END FILE ---",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "   4 |") {
		t.Error("trailing newline should not add a numbered line")
	}
}

func TestNumberLines_Empty(t *testing.T) {
	if got := numberLines(""); got != "" {
		t.Errorf("numberLines(\"\") = %q", got)
	}
}
