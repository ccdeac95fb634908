// Package pathindex stores values under file paths and retrieves them by a
// possibly different spelling of the same path.
//
// A lookup tries the exact key first. Failing that, both sides are normalized
// (backslashes become forward slashes and the text is Unicode case-folded)
// and an entry matches when either normalized path is a suffix of the other,
// or when either path's final segment is contained in the other. The first
// matching entry in registration order wins; there is no scoring between
// candidates. A query that matches nothing returns an empty slice.
package pathindex
