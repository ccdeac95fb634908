package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dshills/tally/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format. color only affects
// the text format.
func GetWriter(format string, color bool) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Color: color}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
// Text written to a terminal is colored unless NO_COLOR is set.
func WriteReport(report *review.Report, format, outPath string) error {
	var w io.Writer
	color := false
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
		color = isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	}

	writer, err := GetWriter(format, color)
	if err != nil {
		return err
	}
	return writer.Write(w, report)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func issueLabel(iss review.Issue) string {
	if iss.Rule != "" {
		return iss.Rule
	}
	return string(iss.Source)
}
