package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/tally/internal/review"
)

// DiffAnalyzer compares heuristic findings in the old and new diff
// fragments and reports the issues the change introduces.
type DiffAnalyzer struct {
	scanner Scanner
}

// NewDiffAnalyzer returns a diff-local comparator. rules may be nil.
func NewDiffAnalyzer(rules *review.Rules) *DiffAnalyzer {
	return &DiffAnalyzer{scanner: Scanner{Rules: rules}}
}

// Source implements review.Analyzer.
func (d *DiffAnalyzer) Source() review.Source { return review.SourceDiffLocal }

// Analyze implements review.Analyzer.
func (d *DiffAnalyzer) Analyze(ctx context.Context, in review.Input) (review.ReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return review.ReviewResult{}, fmt.Errorf("%w: %w", review.ErrAnalysisFailed, err)
	}

	before := d.scanner.Scan(in.Reconstruction.OldLines())
	after := d.scanner.Scan(in.Reconstruction.NewLines())
	introduced, resolved := Compare(before.Issues, after.Issues)

	f := Findings{Issues: make([]review.Issue, 0, len(introduced))}
	lines := make(map[string]bool)
	for _, iss := range introduced {
		iss.Source = review.SourceDiffLocal
		f.Issues = append(f.Issues, iss)
		lines[lineKey(iss.Rule, iss.Line)] = true
	}
	for _, sug := range after.Suggestions {
		if lines[lineKey(sug.Rule, sug.Line)] {
			sug.Source = review.SourceDiffLocal
			f.Suggestions = append(f.Suggestions, sug)
		}
	}

	summary := fmt.Sprintf("Change introduces %d and resolves %d heuristic issues", len(introduced), len(resolved))
	return result(in.Change.Path, f, summary), nil
}

func lineKey(rule string, line int) string {
	return fmt.Sprintf("%s:%d", rule, line)
}

// Compare pairs old and new issues by rule and similar message. Unpaired new
// issues are introduced; unpaired old issues are resolved. Each issue pairs
// at most once.
func Compare(before, after []review.Issue) (introduced, resolved []review.Issue) {
	used := make([]bool, len(before))
	for _, a := range after {
		matched := false
		for i, b := range before {
			if used[i] || a.Rule != b.Rule || !messageSimilar(a.Message, b.Message) {
				continue
			}
			used[i] = true
			matched = true
			break
		}
		if !matched {
			introduced = append(introduced, a)
		}
	}
	for i, b := range before {
		if !used[i] {
			resolved = append(resolved, b)
		}
	}
	return introduced, resolved
}

// messageSimilar reports an exact or substring match, or more than half of
// the shorter message's words in common.
func messageSimilar(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}
	overlap := 0
	for _, w := range wordsA {
		if setB[w] {
			overlap++
		}
	}

	return float64(overlap)/float64(min(len(wordsA), len(wordsB))) > 0.5
}
