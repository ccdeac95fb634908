package diagnostic

import (
	"bytes"
	"encoding/json"
	"strings"

	"fortio.org/safecast"

	"github.com/dshills/tally/internal/review"
)

// Severity is the LSP DiagnosticSeverity.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// Position is a 0-based line and character offset.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range spans two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// External is one diagnostic as reported by a linter or language server.
type External struct {
	Range    Range           `json:"range"`
	Severity Severity        `json:"severity,omitempty"`
	Code     json.RawMessage `json:"code,omitempty"`
	Source   string          `json:"source,omitempty"`
	Message  string          `json:"message"`
}

// Findings is the output of Import.
type Findings struct {
	Issues      []review.Issue
	Suggestions []review.Suggestion
}

// Import converts external diagnostics into issues. Information diagnostics
// also yield a suggestion.
func Import(diags []External) Findings {
	f := Findings{
		Issues:      make([]review.Issue, 0, len(diags)),
		Suggestions: []review.Suggestion{},
	}
	for _, d := range diags {
		line := oneBased(d.Range.Start.Line)
		col := oneBased(d.Range.Start.Character)
		rule := d.Rule()

		f.Issues = append(f.Issues, review.Issue{
			Severity: mapSeverity(d.Severity),
			Line:     line,
			Column:   col,
			Message:  d.Message,
			Rule:     rule,
			Source:   review.SourceDiagnostic,
		})
		if d.Severity == SeverityInformation {
			f.Suggestions = append(f.Suggestions, review.Suggestion{
				Line:    line,
				Column:  col,
				Message: suggestionFor(d.Message),
				Rule:    rule,
				Source:  review.SourceDiagnostic,
			})
		}
	}
	return f
}

// Rule returns "source:code", "source", or "code", whichever is available.
func (d External) Rule() string {
	code := NormalizeCode(d.Code)
	switch {
	case d.Source != "" && code != "":
		return d.Source + ":" + code
	case d.Source != "":
		return d.Source
	default:
		return code
	}
}

// mapSeverity treats a missing or unknown severity as a warning.
func mapSeverity(s Severity) review.Severity {
	switch s {
	case SeverityError:
		return review.SeverityError
	case SeverityInformation, SeverityHint:
		return review.SeverityInfo
	default:
		return review.SeverityWarning
	}
}

func oneBased(v uint32) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 1
	}
	return n + 1
}

func suggestionFor(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "unused"):
		return "Remove the unused code if it is no longer needed"
	case strings.Contains(lower, "deprecated"):
		return "Replace the deprecated API with its supported alternative"
	default:
		return "Consider addressing: " + message
	}
}

// NormalizeCode renders a diagnostic code as a string. Strings are unquoted,
// numbers keep their literal form, and objects are unwrapped through their
// "value" (or "code") field. Anything else is emitted as compact JSON.
func NormalizeCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for _, key := range []string{"value", "code"} {
				if v, ok := obj[key]; ok {
					return NormalizeCode(v)
				}
			}
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
