package diagnostic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/dshills/tally/internal/pathindex"
	"github.com/dshills/tally/internal/review"
)

type publishDiagnosticsParams struct {
	URI         string     `json:"uri"`
	Diagnostics []External `json:"diagnostics"`
}

// LoadFile reads a diagnostics file into an index keyed by file path.
func LoadFile(fs afero.Fs, path string) (*pathindex.Index[External], error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics file: %w", err)
	}
	index, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing diagnostics file %s: %w", path, err)
	}
	return index, nil
}

// Parse decodes either a JSON array of {uri, diagnostics} notifications or a
// JSON object mapping paths to diagnostic arrays. Later notifications for the
// same file replace earlier ones.
func Parse(data []byte) (*pathindex.Index[External], error) {
	index := pathindex.New[External]()
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return index, nil
	}

	if data[0] == '[' {
		var notes []publishDiagnosticsParams
		if err := json.Unmarshal(data, &notes); err != nil {
			return nil, err
		}
		for _, n := range notes {
			index.Register(uriToPath(n.URI), n.Diagnostics)
		}
		return index, nil
	}

	var byPath map[string][]External
	if err := json.Unmarshal(data, &byPath); err != nil {
		return nil, err
	}
	for _, p := range sortedKeys(byPath) {
		index.Register(uriToPath(p), byPath[p])
	}
	return index, nil
}

// uriToPath turns a file URI into a slash path. Plain paths pass through.
func uriToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}
	p := parsed.Path
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p
}

func sortedKeys(m map[string][]External) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// diagnosticsFor returns the diagnostics recorded for path. A key matches if
// it equals path or if one ends with the other on a segment boundary, so an
// absolute file URI attaches to the repository-relative path it names. An
// exact key wins over boundary matches; among those the first registered wins.
func (a *Analyzer) diagnosticsFor(path string) []External {
	q := cleanPath(path)
	if q == "" {
		return nil
	}
	keys := a.index.Paths()
	for _, k := range keys {
		if cleanPath(k) == q {
			return a.index.Lookup(k)
		}
	}
	for _, k := range keys {
		ck := cleanPath(k)
		if strings.HasSuffix(ck, "/"+q) || strings.HasSuffix(q, "/"+ck) {
			return a.index.Lookup(k)
		}
	}
	return nil
}

func cleanPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimPrefix(p, "./")
}

// Analyzer reports the imported diagnostics for each file.
type Analyzer struct {
	index *pathindex.Index[External]
}

// NewAnalyzer returns an analyzer backed by index.
func NewAnalyzer(index *pathindex.Index[External]) *Analyzer {
	return &Analyzer{index: index}
}

// Source implements review.Analyzer.
func (a *Analyzer) Source() review.Source { return review.SourceDiagnostic }

// Analyze implements review.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, in review.Input) (review.ReviewResult, error) {
	if a.index == nil {
		return review.ReviewResult{}, fmt.Errorf("diagnostic index: %w", review.ErrNotInitialized)
	}
	if err := ctx.Err(); err != nil {
		return review.ReviewResult{}, fmt.Errorf("%w: %w", review.ErrAnalysisFailed, err)
	}

	f := Import(a.diagnosticsFor(in.Change.Path))
	var summary string
	switch n := len(f.Issues); n {
	case 0:
		summary = "No external diagnostics"
	case 1:
		summary = "1 external diagnostic"
	default:
		summary = fmt.Sprintf("%d external diagnostics", n)
	}
	return review.ReviewResult{
		File:        in.Change.Path,
		Issues:      f.Issues,
		Suggestions: f.Suggestions,
		Score:       review.PenaltyScore(f.Issues),
		Summary:     summary,
	}, nil
}
