package pathindex

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Index maps registered paths to value sequences, preserving registration
// order for fuzzy resolution. It is not safe for concurrent mutation.
type Index[T any] struct {
	order  []string
	values map[string][]T
}

// New returns an empty index.
func New[T any]() *Index[T] {
	return &Index[T]{values: make(map[string][]T)}
}

// Register stores values under p, replacing any earlier values for the same
// key. Re-registering keeps the key's original position.
func (x *Index[T]) Register(p string, values []T) {
	if _, ok := x.values[p]; !ok {
		x.order = append(x.order, p)
	}
	x.values[p] = values
}

// Len returns the number of registered paths.
func (x *Index[T]) Len() int {
	return len(x.order)
}

// Paths returns the registered paths in registration order.
func (x *Index[T]) Paths() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Lookup resolves query against the index.
func (x *Index[T]) Lookup(query string) []T {
	key, ok := x.Resolve(query)
	if !ok {
		return []T{}
	}
	return x.values[key]
}

// Resolve returns the registered key that query resolves to.
func (x *Index[T]) Resolve(query string) (string, bool) {
	if _, ok := x.values[query]; ok {
		return query, true
	}
	return firstMatch(x.order, query)
}

// Lookup resolves query against a plain map. Keys are tried in sorted order
// so that resolution is deterministic.
func Lookup[T any](index map[string][]T, query string) []T {
	if v, ok := index[query]; ok {
		return v
	}
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if key, ok := firstMatch(keys, query); ok {
		return index[key]
	}
	return []T{}
}

// Match reports whether a and b name the same logical file under the fuzzy
// rules.
func Match(a, b string) bool {
	if a == b {
		return true
	}
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.HasSuffix(na, nb) || strings.HasSuffix(nb, na) {
		return true
	}
	if seg := lastSegment(na); seg != "" && strings.Contains(nb, seg) {
		return true
	}
	if seg := lastSegment(nb); seg != "" && strings.Contains(na, seg) {
		return true
	}
	return false
}

// Normalize converts backslashes to forward slashes and case-folds p.
func Normalize(p string) string {
	return cases.Fold().String(strings.ReplaceAll(p, `\`, "/"))
}

func firstMatch(keys []string, query string) (string, bool) {
	for _, k := range keys {
		if Match(k, query) {
			return k, true
		}
	}
	return "", false
}

func lastSegment(normalized string) string {
	seg := path.Base(normalized)
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}
