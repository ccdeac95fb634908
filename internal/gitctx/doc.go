// Package gitctx gathers file changes and repository metadata from git.
//
// Each review mode (unstaged, staged, commit, range, snippet and codebase)
// shells out to git, splits the patch per file and resolves the post-change
// text of every added or modified file from the working tree, the index or
// the revision being reviewed. Include globs are passed to git as pathspecs;
// exclude globs and the MaxDiffBytes budget are applied per file.
package gitctx
