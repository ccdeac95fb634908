package cache

import (
	"context"

	"github.com/dshills/tally/internal/review"
)

type cachedAnalyzer struct {
	inner review.Analyzer
	cache *ResultCache
}

// Wrap returns an analyzer that consults c before running a. The key is the
// file path plus the text a would analyze; the diff is not part of it, so a
// must depend only on path and text. A nil c returns a unchanged.
func Wrap(a review.Analyzer, c *ResultCache) review.Analyzer {
	if c == nil {
		return a
	}
	return &cachedAnalyzer{inner: a, cache: c}
}

func (w *cachedAnalyzer) Source() review.Source { return w.inner.Source() }

func (w *cachedAnalyzer) Analyze(ctx context.Context, in review.Input) (review.ReviewResult, error) {
	return w.cache.GetOrCompute(ctx, in.Change.Path, in.Text(), func(ctx context.Context) (review.ReviewResult, error) {
		return w.inner.Analyze(ctx, in)
	})
}
