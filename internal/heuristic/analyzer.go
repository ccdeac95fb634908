package heuristic

import (
	"context"
	"fmt"

	"github.com/dshills/tally/internal/review"
)

// Analyzer scans the new version of each file.
type Analyzer struct {
	scanner Scanner
}

// NewAnalyzer returns a full-file heuristic analyzer. rules may be nil.
func NewAnalyzer(rules *review.Rules) *Analyzer {
	return &Analyzer{scanner: Scanner{Rules: rules}}
}

// Source implements review.Analyzer.
func (a *Analyzer) Source() review.Source { return review.SourceHeuristic }

// Analyze implements review.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, in review.Input) (review.ReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return review.ReviewResult{}, fmt.Errorf("%w: %w", review.ErrAnalysisFailed, err)
	}
	f := a.scanner.ScanText(in.Text())
	return result(in.Change.Path, f, summarize(len(f.Issues))), nil
}

func result(file string, f Findings, summary string) review.ReviewResult {
	r := review.ReviewResult{
		File:        file,
		Issues:      f.Issues,
		Suggestions: f.Suggestions,
		Score:       review.PenaltyScore(f.Issues),
		Summary:     summary,
	}
	if r.Issues == nil {
		r.Issues = []review.Issue{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []review.Suggestion{}
	}
	return r
}

func summarize(n int) string {
	switch n {
	case 0:
		return "Heuristic scan found no issues"
	case 1:
		return "Heuristic scan found 1 issue"
	default:
		return fmt.Sprintf("Heuristic scan found %d issues", n)
	}
}
