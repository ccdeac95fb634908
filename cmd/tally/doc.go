// Tally is a local-first CLI that merges heuristic, diagnostic and AI review
// findings into one scored report per changed file.
//
// It reviews unstaged, staged, commit, range, snippet and full-codebase
// changes, emitting structured issues with deterministic exit codes suitable
// for CI gating and git hooks.
//
// Usage:
//
//	tally review unstaged                 # review working tree changes
//	tally review staged                   # review staged changes
//	tally review commit <sha>             # review a specific commit
//	tally review range origin/main..HEAD  # review a revision range
//	tally review snippet < file.go        # review code from stdin
//	tally review codebase                 # review all tracked files
//	tally review watch                    # re-review on every save
//	tally lookup report.json main.go      # issues a saved report holds for a file
package main
