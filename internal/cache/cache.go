// Package cache provides a keyed, time-boxed memoization layer for computed
// aggregation results. Entries are replaced on write and never mutated in
// place; staleness is detected lazily at read time, so there is no background
// eviction goroutine. Key cardinality is small (one per distinct query
// signature), which is why no LRU or size bound is needed beyond TTL expiry.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// entry is one immutable cached value with its freshness metadata.
type entry[T any] struct {
	value      T
	computedAt time.Time
	ttl        time.Duration
}

func (e entry[T]) fresh(now time.Time) bool {
	return now.Sub(e.computedAt) < e.ttl
}

// Cache is a thread-safe TTL cache. A Get after an entry's TTL has elapsed
// behaves exactly as if the entry were absent; the stale value stays in the
// map until the next successful Set overwrites it.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	clock   Clock
	group   singleflight.Group
}

// New creates an empty Cache.
func New[T any]() *Cache[T] {
	return NewWithClock[T](systemClock{})
}

// NewWithClock creates an empty Cache with an injected clock for tests.
func NewWithClock[T any](clock Clock) *Cache[T] {
	if clock == nil {
		clock = systemClock{}
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		clock:   clock,
	}
}

// Get returns the cached value for key while it is fresh. A stale or missing
// entry yields the zero value and false.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !e.fresh(c.clock.Now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the given ttl, replacing any previous
// entry.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[T]{
		value:      value,
		computedAt: c.clock.Now(),
		ttl:        ttl,
	}
	c.mu.Unlock()
}

// Clear removes every entry unconditionally. The next Get for any key misses
// and forces recomputation; this is the cache's only invalidation entry
// point.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or stale. Exposed for
// observability and tests.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrCompute returns the fresh cached value for key, or runs compute to
// produce one and stores it under key with the given ttl.
//
// Concurrent callers that miss on the same key are coalesced through
// singleflight: exactly one compute runs and all callers share its result.
// A failed compute stores nothing, so the next caller retries.
func (c *Cache[T]) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a racing caller may have already
		// stored a fresh value before we were admitted.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
