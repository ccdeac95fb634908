package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tally/internal/review"
)

type countingAnalyzer struct {
	calls int
}

func (a *countingAnalyzer) Source() review.Source { return review.SourceSemantic }

func (a *countingAnalyzer) Analyze(_ context.Context, in review.Input) (review.ReviewResult, error) {
	a.calls++
	return review.ReviewResult{File: in.Change.Path, Score: 9, Summary: in.Text()}, nil
}

func TestWrap(t *testing.T) {
	inner := &countingAnalyzer{}
	a := Wrap(inner, NewResultCache(Options{}))
	assert.Equal(t, review.SourceSemantic, a.Source())

	v1, v2 := "one", "two"
	in := review.Input{Change: review.FileChange{Path: "a.go", Content: &v1}}

	r, err := a.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "one", r.Summary)
	_, err = a.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	in.Change.Content = &v2
	r, err = a.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "two", r.Summary)
	assert.Equal(t, 2, inner.calls)

}

func TestWrap_SameContentDifferentDiff(t *testing.T) {
	inner := &countingAnalyzer{}
	a := Wrap(inner, NewResultCache(Options{}))

	content := "package a\n\nfunc A() {}\n"
	staged := review.Input{Change: review.FileChange{
		Path: "a.go", Kind: review.ChangeModified, Content: &content,
		Diff: "@@ -1,3 +1,3 @@\n package a\n \n-func B() {}\n+func A() {}\n",
	}}
	added := review.Input{Change: review.FileChange{
		Path: "a.go", Kind: review.ChangeAdded, Content: &content,
		Diff: "@@ -0,0 +1,3 @@\n+package a\n+\n+func A() {}\n",
	}}

	for _, in := range []review.Input{staged, added, staged} {
		_, err := a.Analyze(context.Background(), in)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestWrap_NilCache(t *testing.T) {
	inner := &countingAnalyzer{}
	assert.Same(t, review.Analyzer(inner), Wrap(inner, nil))
}
