package review

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// ParseSeverity maps a loose severity label onto a Severity. Unknown labels
// report false.
func ParseSeverity(label string) (Severity, bool) {
	switch label {
	case "error", "Error", "ERROR":
		return SeverityError, true
	case "warning", "Warning", "WARNING":
		return SeverityWarning, true
	case "info", "Info", "INFO":
		return SeverityInfo, true
	}
	return "", false
}

// Source identifies the analysis strategy that produced an issue.
type Source string

const (
	SourceHeuristic  Source = "heuristic"
	SourceSemantic   Source = "semantic"
	SourceDiagnostic Source = "diagnostic"
	SourceDiffLocal  Source = "diff-local"
)

// ChangeKind describes how a file changed.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// FileChange is one changed file handed to the engine. Content is nil when
// the current file text is unknown or the file was deleted.
type FileChange struct {
	Path    string     `json:"path"`
	Kind    ChangeKind `json:"kind"`
	Diff    string     `json:"diff"`
	Content *string    `json:"content,omitempty"`
}

// Issue is a single problem reported by one source. Line is 1-based in the
// new file, except for diff-local issues which are 1-based within the
// reconstructed new fragment. Column 0 means no column.
type Issue struct {
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Rule     string   `json:"rule,omitempty"`
	Source   Source   `json:"source"`
}

// Suggestion is advice tied to a line. It relates to issues by line only.
type Suggestion struct {
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
	Source  Source `json:"source"`
	Code    string `json:"code,omitempty"`
}

// ReviewResult is what one analyzer, or the merge of several, says about a
// file. Score is in [0, 10].
type ReviewResult struct {
	File        string       `json:"file"`
	Issues      []Issue      `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
	Score       float64      `json:"score"`
	Summary     string       `json:"summary"`
}

// Clone returns a copy of r that shares no slices with it.
func (r ReviewResult) Clone() ReviewResult {
	out := r
	out.Issues = append([]Issue(nil), r.Issues...)
	out.Suggestions = append([]Suggestion(nil), r.Suggestions...)
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []Suggestion{}
	}
	return out
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// Add counts one issue of severity s.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityError:
		c.Error++
	case SeverityWarning:
		c.Warning++
	case SeverityInfo:
		c.Info++
	}
}

// Total returns the number of counted issues.
func (c SeverityCounts) Total() int {
	return c.Error + c.Warning + c.Info
}
