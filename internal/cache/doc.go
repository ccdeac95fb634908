// Package cache memoizes analyzer results by file path and content hash.
//
// A ResultCache holds results in memory and coalesces concurrent requests for
// the same key, so a given (path, content) pair is computed at most once until
// Clear is called. There is no TTL or size-based eviction. Every caller gets
// its own copy of the cached result.
//
// An optional Store persists results as msgpack files so separate CLI runs
// can share them. The default store directory is $XDG_CACHE_HOME/tally (or
// the OS-appropriate equivalent). Content reaching the store has already
// been through secret redaction where the analyzer applies it.
package cache
