package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/dshills/tally/internal/cache"
	"github.com/dshills/tally/internal/review"
)

const namespace = "tally"

// Collector implements review.Recorder and cache.Observer.
type Collector struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	analysisSeconds *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	files           prometheus.Counter
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyzer invocations by source.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Analyzer invocations that returned an error, by source.",
		}, []string{"source"}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analyzer wall time by source.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"source"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Result cache lookups by namespace and outcome.",
		}, []string{"namespace", "event"}),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_analyzed_total",
			Help:      "Files that produced a merged result.",
		}),
	}
	c.registry.MustRegister(c.analyses, c.failures, c.analysisSeconds, c.cacheEvents, c.files)
	return c
}

// ObserveAnalysis implements review.Recorder.
func (c *Collector) ObserveAnalysis(source review.Source, d time.Duration, err error) {
	label := string(source)
	c.analyses.WithLabelValues(label).Inc()
	c.analysisSeconds.WithLabelValues(label).Observe(d.Seconds())
	if err != nil {
		c.failures.WithLabelValues(label).Inc()
	}
}

// ObserveCache implements cache.Observer.
func (c *Collector) ObserveCache(ns string, ev cache.Event) {
	c.cacheEvents.WithLabelValues(ns, string(ev)).Inc()
}

// FileAnalyzed counts one merged file result.
func (c *Collector) FileAnalyzed() {
	c.files.Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteText writes every metric family in the Prometheus text format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

var (
	_ review.Recorder = (*Collector)(nil)
	_ cache.Observer  = (*Collector)(nil)
)
