package review

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SummarySeparator joins per-source summaries in a combined result.
const SummarySeparator = " | "

// Combine merges per-source results for one file. Issues and suggestions are
// concatenated in input order without de-duplication. The score is the mean
// of the input scores rounded to one decimal; it is not derived from the
// merged issues.
func Combine(results []ReviewResult) (ReviewResult, error) {
	if len(results) == 0 {
		return ReviewResult{}, ErrNoResults
	}

	file := results[0].File
	merged := ReviewResult{
		File:        file,
		Issues:      []Issue{},
		Suggestions: []Suggestion{},
	}

	var total float64
	var summaries []string
	for _, r := range results {
		if r.File != file {
			return ReviewResult{}, fmt.Errorf("%w: %q and %q", ErrMixedFiles, file, r.File)
		}
		merged.Issues = append(merged.Issues, r.Issues...)
		merged.Suggestions = append(merged.Suggestions, r.Suggestions...)
		total += r.Score
		if s := strings.TrimSpace(r.Summary); s != "" {
			summaries = append(summaries, s)
		}
	}

	merged.Score = RoundScore(total / float64(len(results)))
	merged.Summary = strings.Join(summaries, SummarySeparator)
	return merged, nil
}

// RoundScore rounds to one decimal place.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// LineGroup is the set of issues reported on one line.
type LineGroup struct {
	Line   int            `json:"line"`
	Issues []Issue        `json:"issues"`
	Counts SeverityCounts `json:"counts"`
}

// GroupByLine partitions the result's issues by line in ascending line
// order. Issues on the same line keep their relative order.
func GroupByLine(r ReviewResult) []LineGroup {
	byLine := make(map[int]*LineGroup)
	var lines []int
	for _, iss := range r.Issues {
		g, ok := byLine[iss.Line]
		if !ok {
			g = &LineGroup{Line: iss.Line}
			byLine[iss.Line] = g
			lines = append(lines, iss.Line)
		}
		g.Issues = append(g.Issues, iss)
		g.Counts.Add(iss.Severity)
	}
	sort.Ints(lines)

	groups := make([]LineGroup, 0, len(lines))
	for _, l := range lines {
		groups = append(groups, *byLine[l])
	}
	return groups
}

// CountSeverities tallies issues by severity.
func CountSeverities(issues []Issue) SeverityCounts {
	var c SeverityCounts
	for _, iss := range issues {
		c.Add(iss.Severity)
	}
	return c
}

// SortIssues orders issues by severity (error first), then line, then
// column. The sort is stable. It is for presentation only.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := SeverityRank(issues[i].Severity), SeverityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Column < issues[j].Column
	})
}
