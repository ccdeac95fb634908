package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/tally/internal/review"
)

const textWidth = 72

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	Color bool
}

type palette struct {
	err, warn, info, dim, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		dim:  color.New(color.Faint),
		bold: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.dim, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s review.Severity) *color.Color {
	switch s {
	case review.SeverityError:
		return p.err
	case review.SeverityWarning:
		return p.warn
	default:
		return p.info
	}
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	p := newPalette(t.Color)
	counts := report.Summary.Counts
	rule := strings.Repeat("─", 60)

	ew.printf("%s - %s mode\n", p.bold.Sprint("Tally Code Review"), report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(rule)
	ew.printf("Files: %d | Issues: %d", report.Summary.Files, counts.Total())
	if counts.Total() > 0 {
		ew.printf(" (%s, %s, %s)",
			p.err.Sprintf("%d errors", counts.Error),
			p.warn.Sprintf("%d warnings", counts.Warning),
			p.info.Sprintf("%d info", counts.Info))
	}
	ew.printf(" | Average score: %.1f\n", report.Summary.AverageScore)
	ew.println(rule)

	if counts.Total() == 0 && !hasSuggestions(report) {
		ew.println("\nNo issues found. Looks good!")
	}

	for _, f := range report.Files {
		res := f.Result
		if len(res.Issues) == 0 && len(res.Suggestions) == 0 {
			continue
		}

		ew.printf("\n%s  %s\n", p.bold.Sprint(res.File), p.dim.Sprintf("score %.1f", res.Score))
		if res.Summary != "" {
			for _, line := range wrapText(res.Summary, textWidth) {
				ew.printf("  %s\n", p.dim.Sprint(line))
			}
		}

		for _, g := range f.Lines {
			for _, iss := range lineIssues(g) {
				tag := p.severity(iss.Severity).Sprintf("%-7s", iss.Severity)
				loc := fmt.Sprintf("%d", iss.Line)
				if iss.Column > 0 {
					loc = fmt.Sprintf("%d:%d", iss.Line, iss.Column)
				}
				lines := wrapText(iss.Message, textWidth-18)
				ew.printf("  %6s  %s  %s %s\n", loc, tag, lines[0], p.dim.Sprintf("[%s]", issueLabel(iss)))
				for _, cont := range lines[1:] {
					ew.printf("  %6s  %7s  %s\n", "", "", cont)
				}
			}
		}

		if len(res.Suggestions) > 0 {
			ew.println("  Suggestions:")
			for _, s := range res.Suggestions {
				lines := wrapText(s.Message, textWidth-12)
				ew.printf("  %6d  %s\n", s.Line, lines[0])
				for _, cont := range lines[1:] {
					ew.printf("  %6s  %s\n", "", cont)
				}
				if s.Code != "" {
					for _, code := range strings.Split(strings.TrimRight(s.Code, "\n"), "\n") {
						ew.printf("  %6s  %s\n", "", p.dim.Sprint("| "+code))
					}
				}
			}
		}
	}

	if report.Omitted > 0 {
		ew.printf("\n%d more issues omitted (maxIssues)\n", report.Omitted)
	}
	ew.printf("\n%s\n", rule)
	ew.printf("Completed in %dms (git: %dms, analysis: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.AnalysisMs)

	return ew.err
}

// lineIssues returns a copy of the group's issues, most severe first.
func lineIssues(g review.LineGroup) []review.Issue {
	issues := append([]review.Issue(nil), g.Issues...)
	review.SortIssues(issues)
	return issues
}

func hasSuggestions(report *review.Report) bool {
	for _, f := range report.Files {
		if len(f.Result.Suggestions) > 0 {
			return true
		}
	}
	return false
}

// wrapText breaks text into lines of at most width display cells. It always
// returns at least one line.
func wrapText(text string, width int) []string {
	if runewidth.StringWidth(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	currentWidth := 0
	for _, word := range strings.Fields(text) {
		ww := runewidth.StringWidth(word)
		if currentWidth > 0 && currentWidth+1+ww > width {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
		if currentWidth > 0 {
			current.WriteString(" ")
			currentWidth++
		}
		current.WriteString(word)
		currentWidth += ww
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
