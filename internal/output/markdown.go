package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/tally/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	counts := report.Summary.Counts

	ew.printf("## Tally Code Review\n\n")
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Error    | %d    |\n", counts.Error)
	ew.printf("| Warning  | %d    |\n", counts.Warning)
	ew.printf("| Info     | %d    |\n", counts.Info)
	ew.printf("| **Total** | **%d** |\n\n", counts.Total())
	ew.printf("Files: %d | Average score: %.1f/10\n\n", report.Summary.Files, report.Summary.AverageScore)

	if counts.Total() == 0 && !hasSuggestions(report) {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	for _, f := range report.Files {
		res := f.Result
		if len(res.Issues) == 0 && len(res.Suggestions) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s <code>%s</code> (%d issues, score %.1f)</summary>\n\n",
			mdSeverityIcon(highest(res.Issues)), res.File, len(res.Issues), res.Score)
		if res.Summary != "" {
			ew.printf("%s\n\n", res.Summary)
		}

		if len(res.Issues) > 0 {
			ew.printf("| Line | Severity | Rule | Message |\n")
			ew.printf("|------|----------|------|---------|\n")
			for _, g := range f.Lines {
				for _, iss := range lineIssues(g) {
					ew.printf("| %d | %s %s | `%s` | %s |\n",
						iss.Line, mdSeverityIcon(iss.Severity), iss.Severity, issueLabel(iss), mdCell(iss.Message))
				}
			}
			ew.printf("\n")
		}

		for _, s := range res.Suggestions {
			ew.printf("**Suggestion (line %d):** %s\n\n", s.Line, s.Message)
			if s.Code != "" {
				ew.printf("```%s\n%s\n```\n\n", inferLang(res.File), strings.TrimRight(s.Code, "\n"))
			}
		}

		ew.printf("</details>\n\n")
	}

	if report.Omitted > 0 {
		ew.printf("_%d more issues omitted._\n\n", report.Omitted)
	}
	ew.printf("*Reviewed in %dms (git: %dms, analysis: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.AnalysisMs)

	return ew.err
}

func highest(issues []review.Issue) review.Severity {
	var top review.Severity
	for _, iss := range issues {
		if review.SeverityRank(iss.Severity) > review.SeverityRank(top) {
			top = iss.Severity
		}
	}
	return top
}

// mdCell escapes text for a table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":orange_circle:"
	case review.SeverityInfo:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}

var fenceLangs = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "hcl",
}

func inferLang(path string) string {
	return fenceLangs[strings.ToLower(filepath.Ext(path))]
}
