package review

import "github.com/google/uuid"

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// InputInfo describes what was analyzed.
type InputInfo struct {
	Mode          string   `json:"mode"`
	Range         string   `json:"range,omitempty"`
	PathsIncluded []string `json:"pathsIncluded,omitempty"`
	PathsExcluded []string `json:"pathsExcluded,omitempty"`
}

// FileReport is the merged result for one file plus its line grouping.
type FileReport struct {
	Result ReviewResult `json:"result"`
	Lines  []LineGroup  `json:"lines"`
}

// Summary provides an overview across all files.
type Summary struct {
	Files           int            `json:"files"`
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity"`
	AverageScore    float64        `json:"averageScore"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs      int64 `json:"gitMs"`
	AnalysisMs int64 `json:"analysisMs"`
	TotalMs    int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	RunID   string       `json:"runId"`
	Repo    RepoInfo     `json:"repo"`
	Inputs  InputInfo    `json:"inputs"`
	Summary Summary      `json:"summary"`
	Files   []FileReport `json:"files"`
	Omitted int          `json:"omitted,omitempty"`
	Timing  Timing       `json:"timing"`
}

// NewReport assembles a report from merged per-file results.
func NewReport(repo RepoInfo, inputs InputInfo, results []ReviewResult, timing Timing) *Report {
	files := make([]FileReport, 0, len(results))
	for _, r := range results {
		files = append(files, FileReport{Result: r, Lines: GroupByLine(r)})
	}
	return &Report{
		Tool:    "tally",
		Version: "1.0",
		RunID:   uuid.NewString(),
		Repo:    repo,
		Inputs:  inputs,
		Summary: ComputeSummary(results),
		Files:   files,
		Timing:  timing,
	}
}

// ComputeSummary calculates the summary from merged results.
func ComputeSummary(results []ReviewResult) Summary {
	s := Summary{Files: len(results)}
	var total float64
	for _, r := range results {
		total += r.Score
		for _, iss := range r.Issues {
			s.Counts.Add(iss.Severity)
			if SeverityRank(iss.Severity) > SeverityRank(s.HighestSeverity) {
				s.HighestSeverity = iss.Severity
			}
		}
	}
	if len(results) > 0 {
		s.AverageScore = RoundScore(total / float64(len(results)))
	}
	return s
}

// Failing reports whether any issue meets the fail-on threshold.
func (r *Report) Failing(threshold string) bool {
	for _, f := range r.Files {
		for _, iss := range f.Result.Issues {
			if MeetsThreshold(iss.Severity, threshold) {
				return true
			}
		}
	}
	return false
}

// Results returns the merged result of every file.
func (r *Report) Results() []ReviewResult {
	out := make([]ReviewResult, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, f.Result)
	}
	return out
}

// Limit keeps at most max issues across all files, preferring higher
// severities and earlier files, and records how many were omitted. The
// summary keeps describing the full result set.
func (r *Report) Limit(max int) {
	total := 0
	for _, f := range r.Files {
		total += len(f.Result.Issues)
	}
	if max <= 0 || total <= max {
		return
	}

	keep := make([][]bool, len(r.Files))
	for i, f := range r.Files {
		keep[i] = make([]bool, len(f.Result.Issues))
	}
	budget := max
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		for i, f := range r.Files {
			for j, iss := range f.Result.Issues {
				if budget == 0 {
					break
				}
				if iss.Severity == sev {
					keep[i][j] = true
					budget--
				}
			}
		}
	}

	kept := 0
	for i := range r.Files {
		res := r.Files[i].Result
		issues := make([]Issue, 0, len(res.Issues))
		for j, iss := range res.Issues {
			if keep[i][j] {
				issues = append(issues, iss)
			}
		}
		kept += len(issues)
		res.Issues = issues
		r.Files[i].Result = res
		r.Files[i].Lines = GroupByLine(res)
	}
	r.Omitted = total - kept
}
