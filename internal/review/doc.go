// Package review contains the core types and engine that merge code-quality
// issues from several analysis sources into one result per file.
//
// It defines FileChange, Issue, Suggestion and ReviewResult, the Analyzer
// contract every source implements, and the Engine that drives them. For each
// file the engine reconstructs the diff-visible old and new text, runs every
// analyzer concurrently, and combines their results: issues and suggestions
// are concatenated in source order with no de-duplication, and the composite
// score is the mean of the per-source scores rounded to one decimal.
//
// A source that fails is replaced by a synthetic one-issue result with score
// 0, so one failure never aborts a file. ErrNotInitialized is the exception:
// it means the engine was wired without a required backend and is returned
// to the caller.
//
// Batches run files with bounded parallelism and deliver per-file
// notifications in input order. Merged results are published into a
// pathindex.Index so callers can look issues up by any spelling of a path.
//
// Rules packs (rules.go) adjust heuristic severities by rule id, disable
// rules, and add focus areas and required checks to semantic prompts.
package review
