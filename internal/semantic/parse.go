package semantic

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/tally/internal/review"
)

// ParseFailedSummary is the summary of a reply nothing could be recovered from.
const ParseFailedSummary = "parse failed"

// Mode records how a reply was decoded.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeLoose  Mode = "loose"
	ModeFailed Mode = "failed"
)

// Parsed is the decoded content of a reply.
type Parsed struct {
	Issues      []review.Issue
	Suggestions []review.Suggestion
	Summary     string
	Score       float64
	Mode        Mode
}

var fenceRe = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// ParseResponse decodes a model reply. It never fails; an unusable reply
// yields empty issues and ParseFailedSummary.
func ParseResponse(text string) Parsed {
	body := fenceRe.ReplaceAllString(text, "")

	if obj, ok := largestObject(body); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(escapeInStrings(obj)), &fields); err == nil {
			return decode(fields, ModeStrict)
		}
	}

	if fields, ok := looseFields(body); ok {
		return decode(fields, ModeLoose)
	}

	return Parsed{
		Issues:      []review.Issue{},
		Suggestions: []review.Suggestion{},
		Summary:     ParseFailedSummary,
		Mode:        ModeFailed,
	}
}

// largestObject returns the longest balanced {...} span of s. Quotes are
// only tracked inside braces, so prose around the object cannot confuse
// the matcher. Without any balanced span it falls back to the first '{'
// through the last '}'.
func largestObject(s string) (string, bool) {
	best := ""
	depth, start := 0, -1
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inStr = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && i+1-start > len(best) {
				best = s[start : i+1]
			}
		}
	}
	if best != "" {
		return best, true
	}
	first, last := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if first >= 0 && last > first {
		return s[first : last+1], true
	}
	return "", false
}

// balancedSpan returns the bracketed value starting at s[0], which must be
// open, honoring string literals.
func balancedSpan(s string, open, closeCh byte) (string, bool) {
	if s == "" || s[0] != open {
		return "", false
	}
	depth := 0
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// stringSpan returns the JSON string literal at the start of s.
func stringSpan(s string) (string, bool) {
	if s == "" || s[0] != '"' {
		return "", false
	}
	esc := false
	for i := 1; i < len(s); i++ {
		switch {
		case esc:
			esc = false
		case s[i] == '\\':
			esc = true
		case s[i] == '"':
			return s[:i+1], true
		}
	}
	return "", false
}

// escapeInStrings escapes raw newlines, carriage returns and tabs that
// appear inside string literals. Text outside strings is left alone.
func escapeInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inStr {
			if c == '"' {
				inStr = true
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case esc:
			esc = false
			b.WriteByte(c)
		case c == '\\':
			esc = true
			b.WriteByte(c)
		case c == '"':
			inStr = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// looseFields recovers the issues array, and the suggestions and summary
// when possible, from text that is not a valid object.
func looseFields(body string) (map[string]json.RawMessage, bool) {
	idx := strings.Index(body, `"issues"`)
	if idx < 0 {
		return nil, false
	}
	rest := escapeInStrings(body[idx:])

	issues, ok := valueAfter(rest, `"issues"`, '[')
	if !ok || !json.Valid([]byte(issues)) {
		return nil, false
	}
	fields := map[string]json.RawMessage{"issues": json.RawMessage(issues)}

	if v, ok := valueAfter(rest, `"suggestions"`, '['); ok && json.Valid([]byte(v)) {
		fields["suggestions"] = json.RawMessage(v)
	}
	if v, ok := valueAfter(rest, `"summary"`, '"'); ok {
		fields["summary"] = json.RawMessage(v)
	}
	return fields, true
}

// valueAfter finds key in s and returns the array or string that follows
// its colon.
func valueAfter(s, key string, kind byte) (string, bool) {
	idx := strings.Index(s, key)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(s[idx+len(key):], " \t\r\n")
	rest, ok := strings.CutPrefix(rest, ":")
	if !ok {
		return "", false
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if kind == '"' {
		return stringSpan(rest)
	}
	return balancedSpan(rest, '[', ']')
}

func decode(fields map[string]json.RawMessage, mode Mode) Parsed {
	p := Parsed{
		Issues:      []review.Issue{},
		Suggestions: []review.Suggestion{},
		Summary:     decodeString(fields["summary"]),
		Score:       decodeScore(fields["score"]),
		Mode:        mode,
	}

	var issues []json.RawMessage
	if err := json.Unmarshal(fields["issues"], &issues); err == nil {
		for _, raw := range issues {
			p.Issues = append(p.Issues, decodeIssue(raw))
		}
	}

	var suggestions []json.RawMessage
	if err := json.Unmarshal(fields["suggestions"], &suggestions); err == nil {
		for _, raw := range suggestions {
			p.Suggestions = append(p.Suggestions, decodeSuggestion(raw))
		}
	}
	return p
}

func decodeIssue(raw json.RawMessage) review.Issue {
	iss := review.Issue{Severity: review.SeverityInfo, Line: 1, Source: review.SourceSemantic}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		iss.Message = decodeString(raw)
		return iss
	}

	iss.Severity = mapSeverity(decodeString(obj["severity"]))
	iss.Line = max(decodeInt(obj["line"]), 1)
	iss.Column = max(decodeInt(obj["column"]), 0)
	iss.Message = firstString(obj, "message", "description", "title")
	iss.Rule = decodeLabel(obj["rule"])
	return iss
}

func decodeSuggestion(raw json.RawMessage) review.Suggestion {
	sug := review.Suggestion{Line: 1, Source: review.SourceSemantic}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		sug.Message = decodeString(raw)
		return sug
	}

	sug.Line = max(decodeInt(obj["line"]), 1)
	sug.Column = max(decodeInt(obj["column"]), 0)
	sug.Message = firstString(obj, "message", "suggestion", "text")
	sug.Rule = decodeLabel(obj["rule"])
	sug.Code = decodeString(obj["code"])
	return sug
}

func mapSeverity(label string) review.Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "error", "critical", "high", "fatal":
		return review.SeverityError
	case "warning", "warn", "medium":
		return review.SeverityWarning
	default:
		return review.SeverityInfo
	}
}

func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := decodeString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

// decodeString returns a JSON string's value, or "" for anything else.
func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// decodeLabel accepts a string or a number.
func decodeLabel(raw json.RawMessage) string {
	if s := decodeString(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeInt accepts a number or a numeric string. Fractions truncate.
func decodeInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clampInt(f)
	}
	if s := strings.TrimSpace(decodeString(raw)); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampInt(f)
		}
	}
	return 0
}

// clampInt truncates f into the int32 range. NaN is 0.
func clampInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// decodeScore accepts only a JSON number and clamps it to [0, 10].
func decodeScore(raw json.RawMessage) float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return 0
	}
	return review.ClampScore(f)
}
