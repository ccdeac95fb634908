// Package heuristic scans source text for code-quality problems with
// line-oriented pattern rules. It does not parse the language; every rule is
// a plain function over the file's lines, so results are approximate by
// nature. A string that merely looks like a call will be reported.
//
// Rules run in a fixed family order: line length, complexity, security,
// performance and hygiene, then best practice. Findings are appended in the
// order they are discovered and are never sorted here.
//
// The package also provides two analyzers. Analyzer scans the whole new file
// (or the diff-visible new fragment when the full content is unknown).
// DiffAnalyzer scans both the old and new fragments of a diff and reports
// only what the change introduces; its line numbers are positions within the
// reconstructed new fragment.
package heuristic
