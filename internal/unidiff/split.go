package unidiff

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Kind classifies how a file changed within a patch.
type Kind string

const (
	KindAdded    Kind = "added"
	KindModified Kind = "modified"
	KindDeleted  Kind = "deleted"
)

const devNull = "/dev/null"

// FileDiff is one file's section of a multi-file patch.
type FileDiff struct {
	OldPath string
	NewPath string
	Kind    Kind
	Text    string
}

// Path returns the path the file is known by after the change, or its old
// path when it was deleted.
func (f FileDiff) Path() string {
	if f.Kind == KindDeleted || f.NewPath == "" {
		return f.OldPath
	}
	return f.NewPath
}

// SplitFiles splits a git patch into per-file sections. Patches that go-diff
// rejects are split on "diff --git" headers instead.
func SplitFiles(patch string) ([]FileDiff, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}

	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return splitSections(patch), nil
	}

	files := make([]FileDiff, 0, len(fds))
	for _, fd := range fds {
		text, err := diff.PrintFileDiff(fd)
		if err != nil {
			return nil, err
		}
		f := FileDiff{
			OldPath: stripPrefix(fd.OrigName),
			NewPath: stripPrefix(fd.NewName),
			Text:    string(text),
		}
		f.Kind = kindOf(f.OldPath, f.NewPath)
		if f.OldPath == "" && f.NewPath == "" {
			f.OldPath, f.NewPath = pathsFromExtended(fd.Extended)
			f.Kind = KindModified
		}
		files = append(files, f)
	}
	return files, nil
}

func kindOf(oldPath, newPath string) Kind {
	switch {
	case oldPath == devNull || (oldPath == "" && newPath != ""):
		return KindAdded
	case newPath == devNull:
		return KindDeleted
	default:
		return KindModified
	}
}

func stripPrefix(name string) string {
	if name == devNull {
		return name
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

// pathsFromExtended reads "diff --git a/x b/y" for sections with no ---/+++
// headers (mode changes, binary files).
func pathsFromExtended(extended []string) (string, string) {
	for _, line := range extended {
		if oldPath, newPath, ok := parseGitHeader(line); ok {
			return oldPath, newPath
		}
	}
	return "", ""
}

func parseGitHeader(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return "", "", false
	}
	idx := strings.Index(rest, " b/")
	if idx < 0 {
		return "", "", false
	}
	return stripPrefix(rest[:idx]), rest[idx+3:], true
}

func splitSections(patch string) []FileDiff {
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if s := current.String(); strings.TrimSpace(s) != "" {
		sections = append(sections, s)
	}

	files := make([]FileDiff, 0, len(sections))
	for _, sec := range sections {
		var f FileDiff
		for _, line := range strings.Split(sec, "\n") {
			switch {
			case strings.HasPrefix(line, "diff --git "):
				f.OldPath, f.NewPath, _ = parseGitHeader(line)
			case strings.HasPrefix(line, "--- "):
				f.OldPath = stripPrefix(strings.TrimPrefix(line, "--- "))
			case strings.HasPrefix(line, "+++ "):
				f.NewPath = stripPrefix(strings.TrimPrefix(line, "+++ "))
			}
		}
		f.Kind = kindOf(f.OldPath, f.NewPath)
		f.Text = sec
		files = append(files, f)
	}
	return files
}
