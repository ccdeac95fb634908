package semantic

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/tally/internal/redact"
	"github.com/dshills/tally/internal/review"
)

// Completer is the text-completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Reviewer.
type Options struct {
	Redactor *redact.Redactor
	Rules    *review.Rules
	Logger   *zap.Logger
}

// Reviewer runs AI review of whole files. It implements review.Analyzer.
type Reviewer struct {
	completer Completer
	redactor  *redact.Redactor
	rules     *review.Rules
	log       *zap.Logger
}

// NewReviewer returns a reviewer backed by c. A nil c yields a reviewer
// whose every call fails with review.ErrNotInitialized.
func NewReviewer(c Completer, opts Options) *Reviewer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reviewer{
		completer: c,
		redactor:  opts.Redactor,
		rules:     opts.Rules,
		log:       log,
	}
}

// Source implements review.Analyzer.
func (r *Reviewer) Source() review.Source { return review.SourceSemantic }

// Analyze implements review.Analyzer.
func (r *Reviewer) Analyze(ctx context.Context, in review.Input) (review.ReviewResult, error) {
	return r.Review(ctx, in.Change.Path, in.Text())
}

// Review sends one prompt for path and parses the reply.
func (r *Reviewer) Review(ctx context.Context, path, content string) (review.ReviewResult, error) {
	if r.completer == nil {
		return review.ReviewResult{}, fmt.Errorf("semantic reviewer: %w", review.ErrNotInitialized)
	}
	if strings.TrimSpace(content) == "" {
		return review.ReviewResult{
			File:        path,
			Issues:      []review.Issue{},
			Suggestions: []review.Suggestion{},
			Score:       10,
			Summary:     "No content to review",
		}, nil
	}

	scrubbed := r.redactor.Apply(path, content)
	if scrubbed.ByPath || scrubbed.Redactions > 0 {
		r.log.Debug("redacted prompt content",
			zap.String("file", path),
			zap.Bool("byPath", scrubbed.ByPath),
			zap.Int("redactions", scrubbed.Redactions))
	}

	if err := ctx.Err(); err != nil {
		return review.ReviewResult{}, fmt.Errorf("%w: %w", review.ErrAnalysisFailed, err)
	}
	reply, err := r.completer.Complete(ctx, BuildPrompt(path, scrubbed.Text, r.rules))
	if err != nil {
		return review.ReviewResult{}, fmt.Errorf("%w: completing %s: %w", review.ErrAnalysisFailed, path, err)
	}

	parsed := ParseResponse(reply)
	if parsed.Mode != ModeStrict {
		r.log.Debug("degraded semantic reply", zap.String("file", path), zap.String("mode", string(parsed.Mode)))
	}

	return review.ReviewResult{
		File:        path,
		Issues:      parsed.Issues,
		Suggestions: parsed.Suggestions,
		Score:       parsed.Score,
		Summary:     parsed.Summary,
	}, nil
}
