// Package unidiff reconstructs the diff-visible "before" and "after" text of a
// file from unified-diff output, and splits multi-file git patches into
// per-file sections.
//
// Reconstruct is deliberately lenient: it never fails, and it reads every
// line by its leading prefix alone. A '-' line belongs to the old side, a '+'
// line to the new side, and a context line (leading space or an empty line)
// to both. File and hunk headers are dropped. The result is not the whole
// file, only the portion a reviewer can see in the diff.
//
// SplitFiles is the strict counterpart used when gathering changes: it parses
// a git patch with go-diff and falls back to scanning "diff --git" headers
// when the patch is malformed.
package unidiff
