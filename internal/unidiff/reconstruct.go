package unidiff

import "strings"

// Reconstruction is the diff-visible old and new text of one file.
type Reconstruction struct {
	Old string
	New string
}

// OldLines returns Old split into lines. An empty Old yields no lines.
func (r Reconstruction) OldLines() []string {
	return splitLines(r.Old)
}

// NewLines returns New split into lines. An empty New yields no lines.
func (r Reconstruction) NewLines() []string {
	return splitLines(r.New)
}

// Reconstruct rebuilds the old and new fragments visible in diffText.
// It never fails; unrecognized lines are ignored.
func Reconstruct(diffText string) Reconstruction {
	var oldLines, newLines []string

	for _, line := range splitLines(diffText) {
		switch {
		case isHeader(line):
			continue
		case strings.HasPrefix(line, "-"):
			oldLines = append(oldLines, line[1:])
		case strings.HasPrefix(line, "+"):
			newLines = append(newLines, line[1:])
		case line == "" || strings.HasPrefix(line, " "):
			ctx := strings.TrimPrefix(line, " ")
			oldLines = append(oldLines, ctx)
			newLines = append(newLines, ctx)
		}
	}

	return Reconstruction{
		Old: strings.Join(oldLines, "\n"),
		New: strings.Join(newLines, "\n"),
	}
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "diff --git") ||
		strings.HasPrefix(line, "index ") ||
		strings.HasPrefix(line, "--- ") ||
		strings.HasPrefix(line, "+++ ") ||
		strings.HasPrefix(line, "@@")
}

// splitLines splits on '\n', dropping the empty element produced by a
// trailing newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return strings.Split(s, "\n")
}
