package semantic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tally/internal/review"
)

func TestParseResponse_FencedWithRawNewline(t *testing.T) {
	reply := "```json\n{\"issues\":[{\"severity\":\"error\",\"line\":3,\"message\":\"bad\nthing\"}],\"suggestions\":[],\"summary\":\"ok\",\"score\":7}\n```"
	p := ParseResponse(reply)

	assert.Equal(t, ModeStrict, p.Mode)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, review.Issue{Severity: review.SeverityError, Line: 3, Message: "bad\nthing", Source: review.SourceSemantic}, p.Issues[0])
	assert.Equal(t, "ok", p.Summary)
	assert.Equal(t, 7.0, p.Score)
}

func TestParseResponse_NoJSON(t *testing.T) {
	p := ParseResponse("I cannot review this file.")
	assert.Equal(t, ModeFailed, p.Mode)
	assert.Equal(t, ParseFailedSummary, p.Summary)
	assert.NotNil(t, p.Issues)
	assert.Empty(t, p.Issues)
	assert.NotNil(t, p.Suggestions)
	assert.Empty(t, p.Suggestions)
	assert.Equal(t, 0.0, p.Score)
}

func TestParseResponse_SourceAlwaysSemantic(t *testing.T) {
	p := ParseResponse(`{"issues":[{"severity":"warning","line":2,"message":"m","source":"heuristic"}],"suggestions":[{"line":2,"message":"s","source":"diagnostic"}]}`)
	require.Len(t, p.Issues, 1)
	require.Len(t, p.Suggestions, 1)
	assert.Equal(t, review.SourceSemantic, p.Issues[0].Source)
	assert.Equal(t, review.SourceSemantic, p.Suggestions[0].Source)
}

func TestParseResponse_FieldDefaults(t *testing.T) {
	p := ParseResponse(`{"issues":[
		{"message":"x","line":0},
		{"severity":"CRITICAL","line":"12","column":4.0,"rule":42,"description":"desc"},
		"bare string",
		{"severity":"medium","line":-5,"title":"titled"}
	]}`)

	require.Len(t, p.Issues, 4)
	assert.Equal(t, review.Issue{Severity: review.SeverityInfo, Line: 1, Message: "x", Source: review.SourceSemantic}, p.Issues[0])
	assert.Equal(t, review.Issue{Severity: review.SeverityError, Line: 12, Column: 4, Message: "desc", Rule: "42", Source: review.SourceSemantic}, p.Issues[1])
	assert.Equal(t, "bare string", p.Issues[2].Message)
	assert.Equal(t, review.SeverityInfo, p.Issues[2].Severity)
	assert.Equal(t, review.SeverityWarning, p.Issues[3].Severity)
	assert.Equal(t, 1, p.Issues[3].Line)
	assert.Equal(t, "titled", p.Issues[3].Message)
	assert.Equal(t, "", p.Summary)
}

func TestParseResponse_OutOfRangeNumbers(t *testing.T) {
	p := ParseResponse(`{"issues":[
		{"message":"huge","line":1e300,"column":-1e300},
		{"message":"text","line":"-1e300","column":"1e300"},
		{"message":"nan","line":"NaN","column":"NaN"}
	]}`)

	require.Len(t, p.Issues, 3)
	assert.Equal(t, math.MaxInt32, p.Issues[0].Line)
	assert.Equal(t, 0, p.Issues[0].Column)
	assert.Equal(t, 1, p.Issues[1].Line)
	assert.Equal(t, math.MaxInt32, p.Issues[1].Column)
	assert.Equal(t, 1, p.Issues[2].Line)
	assert.Equal(t, 0, p.Issues[2].Column)
}

func TestParseResponse_Suggestions(t *testing.T) {
	p := ParseResponse(`{"issues":[],"suggestions":[{"line":5,"suggestion":"use a constant","code":"const n = 3"}]}`)
	require.Len(t, p.Suggestions, 1)
	assert.Equal(t, review.Suggestion{Line: 5, Message: "use a constant", Code: "const n = 3", Source: review.SourceSemantic}, p.Suggestions[0])
}

func TestParseResponse_Score(t *testing.T) {
	tests := []struct {
		reply string
		want  float64
	}{
		{`{"issues":[],"score":8.5}`, 8.5},
		{`{"issues":[],"score":"high"}`, 0},
		{`{"issues":[],"score":15}`, 10},
		{`{"issues":[],"score":-3}`, 0},
		{`{"issues":[]}`, 0},
		{`{"issues":[],"score":null}`, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseResponse(tt.reply).Score, tt.reply)
	}
}

func TestParseResponse_ProseAndBracesInStrings(t *testing.T) {
	p := ParseResponse(`Here is my review: {"issues": [], "summary": "Looks {fine} to me"} Thanks, "reviewer"!`)
	assert.Equal(t, ModeStrict, p.Mode)
	assert.Equal(t, "Looks {fine} to me", p.Summary)
}

func TestParseResponse_LargestObjectWins(t *testing.T) {
	p := ParseResponse(`{"a":1} and then {"issues":[{"message":"the real one","line":2}]}`)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, "the real one", p.Issues[0].Message)
}

func TestParseResponse_LooseTrailingComma(t *testing.T) {
	p := ParseResponse(`{"issues": [{"severity": "warning", "line": 4, "message": "y"}], "suggestions": [{"line": 4, "message": "z"}], "summary": "s",}`)
	assert.Equal(t, ModeLoose, p.Mode)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, 4, p.Issues[0].Line)
	require.Len(t, p.Suggestions, 1)
	assert.Equal(t, "s", p.Summary)
}

func TestParseResponse_LooseTruncated(t *testing.T) {
	p := ParseResponse("{\"issues\": [{\"severity\": \"error\", \"line\": 9, \"message\": \"cut\noff\"}], \"summary\": \"half")
	assert.Equal(t, ModeLoose, p.Mode)
	require.Len(t, p.Issues, 1)
	assert.Equal(t, "cut\noff", p.Issues[0].Message)
	assert.Equal(t, "", p.Summary)
}

func TestParseResponse_IssuesWithoutArray(t *testing.T) {
	p := ParseResponse(`"issues": none, sorry`)
	assert.Equal(t, ModeFailed, p.Mode)
	assert.Equal(t, ParseFailedSummary, p.Summary)
}

func TestEscapeInStrings(t *testing.T) {
	in := "{\n\t\"a\": \"x\ty\nz\",\n\t\"b\": \"q\\\"\tr\"\n}"
	want := "{\n\t\"a\": \"x\\ty\\nz\",\n\t\"b\": \"q\\\"\\tr\"\n}"
	assert.Equal(t, want, escapeInStrings(in))
}

func TestLargestObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`no braces`, "", false},
		{`x {"a": "}"} y`, `{"a": "}"}`, true},
		{`{"a": {"b": 1}}`, `{"a": {"b": 1}}`, true},
		{`{"open": [1, 2}`, `{"open": [1, 2}`, true},
		{`{ unbalanced`, "", false},
	}
	for _, tt := range tests {
		got, ok := largestObject(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMapSeverity(t *testing.T) {
	tests := map[string]review.Severity{
		"error":    review.SeverityError,
		"High":     review.SeverityError,
		"warning":  review.SeverityWarning,
		" warn ":   review.SeverityWarning,
		"info":     review.SeverityInfo,
		"hint":     review.SeverityInfo,
		"":         review.SeverityInfo,
		"nonsense": review.SeverityInfo,
	}
	for label, want := range tests {
		assert.Equal(t, want, mapSeverity(label), label)
	}
}
