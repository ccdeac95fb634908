package heuristic

import (
	"strings"

	"github.com/dshills/tally/internal/review"
)

// Findings is the output of a scan.
type Findings struct {
	Issues      []review.Issue
	Suggestions []review.Suggestion
}

func (f *Findings) add(iss review.Issue, sugs ...review.Suggestion) {
	f.Issues = append(f.Issues, iss)
	f.Suggestions = append(f.Suggestions, sugs...)
}

// family is one group of related rules.
type family func(lines []string, f *Findings)

var families = []family{
	checkLineLength,
	checkComplexity,
	checkSecurity,
	checkPerformance,
	checkBestPractice,
}

// Scanner runs the rule families under an optional rules pack.
type Scanner struct {
	Rules *review.Rules
}

// ScanText splits text into lines and scans it.
func (s Scanner) ScanText(text string) Findings {
	return s.Scan(SplitLines(text))
}

// Scan runs every enabled rule over lines.
func (s Scanner) Scan(lines []string) Findings {
	var all Findings
	for _, fam := range families {
		fam(lines, &all)
	}
	if s.Rules == nil {
		return all
	}

	out := Findings{}
	for _, iss := range all.Issues {
		if !s.Rules.Enabled(iss.Rule) {
			continue
		}
		iss.Severity = s.Rules.SeverityFor(iss.Rule, iss.Severity)
		out.Issues = append(out.Issues, iss)
	}
	for _, sug := range all.Suggestions {
		if s.Rules.Enabled(sug.Rule) {
			out.Suggestions = append(out.Suggestions, sug)
		}
	}
	return out
}

// SplitLines splits text on newlines, ignoring one trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return strings.Split(text, "\n")
}
