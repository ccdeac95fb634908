package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dshills/tally/internal/cache"
	"github.com/dshills/tally/internal/review"
)

func TestObserveAnalysis(t *testing.T) {
	c := New()
	c.ObserveAnalysis(review.SourceHeuristic, 2*time.Millisecond, nil)
	c.ObserveAnalysis(review.SourceSemantic, time.Second, errors.New("boom"))
	c.ObserveAnalysis(review.SourceSemantic, time.Second, nil)

	if got := testutil.ToFloat64(c.analyses.WithLabelValues("semantic")); got != 2 {
		t.Errorf("semantic analyses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("semantic")); got != 1 {
		t.Errorf("semantic failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("heuristic")); got != 0 {
		t.Errorf("heuristic failures = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(c.analysisSeconds); n != 2 {
		t.Errorf("histogram series = %d, want 2", n)
	}
}

func TestObserveCache(t *testing.T) {
	c := New()
	c.ObserveCache("semantic", cache.EventMiss)
	c.ObserveCache("semantic", cache.EventHit)
	c.ObserveCache("semantic", cache.EventHit)

	if got := testutil.ToFloat64(c.cacheEvents.WithLabelValues("semantic", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.cacheEvents.WithLabelValues("semantic", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestWriteText(t *testing.T) {
	c := New()
	c.FileAnalyzed()
	c.ObserveAnalysis(review.SourceDiagnostic, time.Millisecond, nil)

	var b strings.Builder
	if err := c.WriteText(&b); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"# TYPE tally_files_analyzed_total counter",
		"tally_files_analyzed_total 1",
		`tally_analyses_total{source="diagnostic"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
