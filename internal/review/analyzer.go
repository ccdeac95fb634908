package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/tally/internal/unidiff"
)

var (
	// ErrNotInitialized is returned by an analyzer whose required
	// collaborator (for example the completion backend) was never
	// configured. The engine treats it as fatal.
	ErrNotInitialized = errors.New("analyzer not initialized")

	// ErrAnalysisFailed wraps any other analyzer failure. The engine
	// replaces the failing source's result with FailureResult.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrNoResults is returned by Combine for an empty input.
	ErrNoResults = errors.New("no results to combine")

	// ErrMixedFiles is returned by Combine when results name different files.
	ErrMixedFiles = errors.New("results reference different files")
)

// FailureRule is the rule id carried by substituted failure issues.
const FailureRule = "analyzer-failure"

// Input is what an analyzer receives for one file.
type Input struct {
	Change         FileChange
	Reconstruction unidiff.Reconstruction
}

// Text returns the most complete view of the new file: the full content
// when known, otherwise the diff-visible new fragment.
func (in Input) Text() string {
	if in.Change.Content != nil {
		return *in.Change.Content
	}
	return in.Reconstruction.New
}

// Analyzer is one analysis strategy.
type Analyzer interface {
	Source() Source
	Analyze(ctx context.Context, in Input) (ReviewResult, error)
}

// FailureResult is the stand-in for a source that failed on file.
func FailureResult(file string, source Source, err error) ReviewResult {
	return ReviewResult{
		File: file,
		Issues: []Issue{{
			Severity: SeverityError,
			Line:     1,
			Message:  fmt.Sprintf("%s analysis failed: %v", source, err),
			Rule:     FailureRule,
			Source:   source,
		}},
		Suggestions: []Suggestion{},
		Score:       0,
	}
}
