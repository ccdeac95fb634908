package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dshills/tally/internal/cache"
	"github.com/dshills/tally/internal/config"
	"github.com/dshills/tally/internal/diagnostic"
	"github.com/dshills/tally/internal/gitctx"
	"github.com/dshills/tally/internal/heuristic"
	"github.com/dshills/tally/internal/logging"
	"github.com/dshills/tally/internal/metrics"
	"github.com/dshills/tally/internal/providers"
	"github.com/dshills/tally/internal/redact"
	"github.com/dshills/tally/internal/review"
	"github.com/dshills/tally/internal/semantic"
)

// pipeline is one configured engine plus the collaborators it reports to.
type pipeline struct {
	cfg     config.Config
	engine  *review.Engine
	caches  []*cache.ResultCache
	metrics *metrics.Collector
	log     *zap.Logger
}

// pipelineDeps holds what newPipeline would otherwise build from the
// environment. Zero values mean "from the environment".
type pipelineDeps struct {
	fs        afero.Fs
	log       *zap.Logger
	completer semantic.Completer
}

func newPipeline(cfg config.Config, deps pipelineDeps) (*pipeline, error) {
	if deps.fs == nil {
		deps.fs = afero.NewOsFs()
	}
	if deps.log == nil {
		deps.log = logging.New(flagVerbose, os.Stderr)
	}
	p := &pipeline{cfg: cfg, metrics: metrics.New(), log: deps.log}

	rules, err := review.LoadRules(deps.fs, cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	var analyzers []review.Analyzer
	if cfg.Analyzers.Heuristic {
		analyzers = append(analyzers, heuristic.NewAnalyzer(rules))
	}
	if cfg.Analyzers.DiffLocal {
		analyzers = append(analyzers, heuristic.NewDiffAnalyzer(rules))
	}
	if cfg.Analyzers.Diagnostic && cfg.DiagnosticsFile != "" {
		index, err := diagnostic.LoadFile(deps.fs, cfg.DiagnosticsFile)
		if err != nil {
			return nil, fmt.Errorf("loading diagnostics: %w", err)
		}
		analyzers = append(analyzers, diagnostic.NewAnalyzer(index))
	}
	if cfg.Analyzers.Semantic {
		a, err := p.semanticAnalyzer(cfg, rules, deps)
		if err != nil {
			return nil, err
		}
		analyzers = append(analyzers, a)
	}
	if len(analyzers) == 0 {
		return nil, errors.New("no analyzers enabled")
	}

	p.engine = review.NewEngine(analyzers, review.Options{
		Concurrency: cfg.Concurrency,
		Logger:      deps.log,
		Recorder:    p.metrics,
	})
	p.log.Debug("pipeline ready", zap.Any("sources", p.engine.Sources()))
	return p, nil
}

func (p *pipeline) semanticAnalyzer(cfg config.Config, rules *review.Rules, deps pipelineDeps) (review.Analyzer, error) {
	model := cfg.Model
	if model == "" {
		model = providers.DefaultModel(cfg.Provider)
	}

	completer := deps.completer
	if completer == nil {
		prov, err := providers.New(cfg.Provider, model)
		if err != nil {
			return nil, err
		}
		completer = &providers.Completer{Provider: prov}
	}

	reviewer := semantic.NewReviewer(completer, semantic.Options{
		Redactor: redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths),
		Rules:    rules,
		Logger:   deps.log,
	})
	if !cfg.Cache.Enabled {
		return reviewer, nil
	}

	store, err := cache.OpenStore(deps.fs, cfg.Cache.Dir)
	if err != nil {
		p.log.Warn("persistent cache unavailable", zap.Error(err))
		store = nil
	}
	rc := cache.NewResultCache(cache.Options{
		Namespace: cfg.Provider + "/" + model,
		Store:     store,
		Observer:  p.metrics,
		Logger:    deps.log,
	})
	p.caches = append(p.caches, rc)
	return cache.Wrap(reviewer, rc), nil
}

// run analyzes changes and assembles the limited report.
func (p *pipeline) run(ctx context.Context, changes gitctx.Changes, opts gitctx.DiffOptions, gitElapsed time.Duration) (*review.Report, error) {
	start := time.Now()
	for _, path := range changes.Skipped {
		p.log.Warn("skipped: diff budget exhausted", zap.String("file", path))
	}

	batch, err := p.engine.AnalyzeBatch(ctx, changes.Files, func(r review.ReviewResult) {
		p.metrics.FileAnalyzed()
		p.log.Debug("file done", zap.String("file", r.File), zap.Int("issues", len(r.Issues)))
	})
	if err != nil {
		return nil, err
	}

	report := review.NewReport(changes.Repo, review.InputInfo{
		Mode:          changes.Mode,
		Range:         changes.Range,
		PathsIncluded: opts.Include,
		PathsExcluded: opts.Exclude,
	}, batch.Results, review.Timing{
		GitMs:      gitElapsed.Milliseconds(),
		AnalysisMs: batch.Elapsed.Milliseconds(),
		TotalMs:    (gitElapsed + time.Since(start)).Milliseconds(),
	})
	report.Limit(p.cfg.MaxIssues)
	return report, nil
}

// clearCaches drops every cached semantic result.
func (p *pipeline) clearCaches() {
	for _, c := range p.caches {
		if err := c.Clear(); err != nil {
			p.log.Warn("clearing cache", zap.Error(err))
		}
	}
}

// exitCodeFor maps a pipeline error onto the process exit code.
func exitCodeFor(err error) int {
	if providers.IsAuthError(err) || errors.Is(err, review.ErrNotInitialized) {
		return ExitAuthError
	}
	return ExitRuntimeError
}
