package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/tally/internal/review"
)

// Event is a cache lookup outcome reported to an Observer.
type Event string

const (
	EventHit    Event = "hit"
	EventStored Event = "stored"
	EventMiss   Event = "miss"
)

// Observer receives one event per GetOrCompute call that reaches a lookup.
type Observer interface {
	ObserveCache(namespace string, ev Event)
}

// ComputeFunc produces a result on a cache miss.
type ComputeFunc func(ctx context.Context) (review.ReviewResult, error)

// Options configures a ResultCache.
type Options struct {
	// Namespace separates results of different analyzers and backends that
	// share a Store.
	Namespace string
	Store     *Store
	Observer  Observer
	Logger    *zap.Logger
}

// ResultCache is an unbounded in-memory result cache safe for concurrent use.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[Key]review.ReviewResult
	flight  singleflight.Group

	ns    string
	store *Store
	obs   Observer
	log   *zap.Logger
}

// NewResultCache returns an empty cache.
func NewResultCache(opts Options) *ResultCache {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultCache{
		entries: make(map[Key]review.ReviewResult),
		ns:      opts.Namespace,
		store:   opts.Store,
		obs:     opts.Observer,
		log:     log,
	}
}

// GetOrCompute returns the cached result for (path, content), calling
// compute on a miss. Concurrent callers for the same key share one
// computation. Failed computations are not cached.
func (c *ResultCache) GetOrCompute(ctx context.Context, path, content string, compute ComputeFunc) (review.ReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return review.ReviewResult{}, err
	}

	key := KeyFor(path, content)
	if r, ok := c.lookup(key); ok {
		c.observe(EventHit)
		return r.Clone(), nil
	}

	// The shared compute outlives any single caller's cancellation; each
	// caller stops waiting on its own ctx instead.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key.String(), func() (any, error) {
		// A previous flight may have filled the entry after our lookup.
		if r, ok := c.lookup(key); ok {
			c.observe(EventHit)
			return r, nil
		}
		if r, ok := c.loadStored(key); ok {
			c.observe(EventStored)
			c.set(key, r)
			return r, nil
		}

		c.observe(EventMiss)
		r, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		r = r.Clone()
		c.set(key, r)
		c.persist(key, r)
		return r, nil
	})

	select {
	case <-ctx.Done():
		return review.ReviewResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return review.ReviewResult{}, res.Err
		}
		return res.Val.(review.ReviewResult).Clone(), nil
	}
}

// Len returns the number of in-memory entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every in-memory entry and empties the backing store.
// Computations already in flight still complete and repopulate their keys.
func (c *ResultCache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[Key]review.ReviewResult)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}

func (c *ResultCache) lookup(key Key) (review.ReviewResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *ResultCache) set(key Key, r review.ReviewResult) {
	c.mu.Lock()
	c.entries[key] = r
	c.mu.Unlock()
}

func (c *ResultCache) storeKey(key Key) string {
	return c.ns + ":" + key.String()
}

func (c *ResultCache) loadStored(key Key) (review.ReviewResult, bool) {
	if c.store == nil {
		return review.ReviewResult{}, false
	}
	r, ok, err := c.store.Get(c.storeKey(key))
	if err != nil {
		c.log.Warn("reading cache entry", zap.String("file", key.Path), zap.Error(err))
		return review.ReviewResult{}, false
	}
	if !ok {
		return review.ReviewResult{}, false
	}
	return r.Clone(), true
}

func (c *ResultCache) persist(key Key, r review.ReviewResult) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(c.storeKey(key), r); err != nil {
		c.log.Warn("writing cache entry", zap.String("file", key.Path), zap.Error(err))
	}
}

func (c *ResultCache) observe(ev Event) {
	if c.obs != nil {
		c.obs.ObserveCache(c.ns, ev)
	}
}
