package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/tally/internal/pathindex"
	"github.com/dshills/tally/internal/unidiff"
)

// DefaultConcurrency bounds how many files a batch analyzes at once.
const DefaultConcurrency = 4

// Recorder receives per-analyzer timing. err is nil on success.
type Recorder interface {
	ObserveAnalysis(source Source, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(Source, time.Duration, error) {}

// Options configures an Engine.
type Options struct {
	Concurrency int
	Logger      *zap.Logger
	Recorder    Recorder
}

// Engine runs every analyzer over each file and merges their results.
type Engine struct {
	analyzers   []Analyzer
	concurrency int
	log         *zap.Logger
	rec         Recorder
}

// NewEngine returns an engine running analyzers in the given order.
func NewEngine(analyzers []Analyzer, opts Options) *Engine {
	e := &Engine{
		analyzers:   analyzers,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
		rec:         opts.Recorder,
	}
	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.rec == nil {
		e.rec = nopRecorder{}
	}
	return e
}

// Sources lists the engine's analyzers in run order.
func (e *Engine) Sources() []Source {
	out := make([]Source, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		out = append(out, a.Source())
	}
	return out
}

// AnalyzeFile reconstructs change, runs all analyzers concurrently and
// combines their results. A failing analyzer is replaced by FailureResult;
// ErrNotInitialized aborts the file instead.
func (e *Engine) AnalyzeFile(ctx context.Context, change FileChange) (ReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return ReviewResult{}, err
	}
	if len(e.analyzers) == 0 {
		return ReviewResult{}, ErrNoResults
	}

	in := Input{Change: change, Reconstruction: unidiff.Reconstruct(change.Diff)}
	log := e.log.With(zap.String("file", change.Path))
	log.Debug("analyzing file", zap.String("kind", string(change.Kind)))

	results := make([]ReviewResult, len(e.analyzers))
	var g errgroup.Group
	for i, a := range e.analyzers {
		g.Go(func() error {
			start := time.Now()
			r, err := a.Analyze(ctx, in)
			e.rec.ObserveAnalysis(a.Source(), time.Since(start), err)
			switch {
			case errors.Is(err, ErrNotInitialized):
				return fmt.Errorf("%s: %w", a.Source(), err)
			case err != nil:
				log.Warn("analyzer failed", zap.String("source", string(a.Source())), zap.Error(err))
				results[i] = FailureResult(change.Path, a.Source(), err)
			default:
				r.File = change.Path
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ReviewResult{}, err
	}

	merged, err := Combine(results)
	if err != nil {
		return ReviewResult{}, err
	}
	log.Debug("file analyzed", zap.Int("issues", len(merged.Issues)), zap.Float64("score", merged.Score))
	return merged, nil
}

// Batch is the outcome of AnalyzeBatch.
type Batch struct {
	Results []ReviewResult
	Index   *pathindex.Index[Issue]
	Elapsed time.Duration
}

// AnalyzeBatch analyzes changes with bounded parallelism. Deleted files are
// skipped. onFile, when non-nil, is called once per analyzed file in input
// order, from one goroutine at a time.
func (e *Engine) AnalyzeBatch(ctx context.Context, changes []FileChange, onFile func(ReviewResult)) (*Batch, error) {
	start := time.Now()

	var live []FileChange
	for _, c := range changes {
		if c.Kind == ChangeDeleted {
			e.log.Debug("skipping deleted file", zap.String("file", c.Path))
			continue
		}
		live = append(live, c)
	}

	results := make([]ReviewResult, len(live))
	seq := newSequencer(len(live), func(i int) {
		if onFile != nil {
			onFile(results[i])
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range live {
		g.Go(func() error {
			r, err := e.AnalyzeFile(gctx, c)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", c.Path, err)
			}
			results[i] = r
			seq.done(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := pathindex.New[Issue]()
	for _, r := range results {
		index.Register(r.File, r.Issues)
	}
	return &Batch{Results: results, Index: index, Elapsed: time.Since(start)}, nil
}

// sequencer releases completions strictly in index order.
type sequencer struct {
	mu      sync.Mutex
	next    int
	ready   []bool
	deliver func(int)
}

func newSequencer(n int, deliver func(int)) *sequencer {
	return &sequencer{ready: make([]bool, n), deliver: deliver}
}

func (s *sequencer) done(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready[i] = true
	for s.next < len(s.ready) && s.ready[s.next] {
		s.deliver(s.next)
		s.next++
	}
}
