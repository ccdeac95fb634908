package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/tally/internal/review"
)

// JSONWriter outputs the full report as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// ReadJSON decodes a report written by JSONWriter.
func ReadJSON(r io.Reader) (*review.Report, error) {
	var report review.Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &report, nil
}
