// Package cache provides a bounded in-memory cache with per-entry
// expiry and duplicate-computation suppression.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Stats reports hit/miss counts observed by a cache since construction.
type Stats interface {
	ObserveCacheHit(name string)
	ObserveCacheMiss(name string)
}

// TTL is a bounded LRU cache whose entries expire after a fixed window.
// Lookups that miss compute the value through a caller-supplied function;
// concurrent misses for the same key share a single computation.
type TTL[V any] struct {
	name  string
	lru   *expirable.LRU[string, V]
	group singleflight.Group
	stats Stats
}

// New constructs a TTL cache holding at most size entries, each valid
// for maxAge after insertion. stats may be nil.
func New[V any](name string, size int, maxAge time.Duration, stats Stats) *TTL[V] {
	return &TTL[V]{
		name:  name,
		lru:   expirable.NewLRU[string, V](size, nil, maxAge),
		stats: stats,
	}
}

// GetOrCompute returns the cached value for key, computing and storing
// it on a miss. Only one computation runs per key at a time; other
// callers for the same key wait and share the result. Failed
// computations are not cached.
func (c *TTL[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := c.lru.Get(key); ok {
		if c.stats != nil {
			c.stats.ObserveCacheHit(c.name)
		}
		return value, nil
	}
	if c.stats != nil {
		c.stats.ObserveCacheMiss(c.name)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have
		// populated the entry while we waited.
		if value, ok := c.lru.Get(key); ok {
			return value, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Peek reports the cached value for key without promoting it.
func (c *TTL[V]) Peek(key string) (V, bool) {
	return c.lru.Peek(key)
}

// Remove evicts a single key.
func (c *TTL[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Purge drops every entry.
func (c *TTL[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of resident entries, including ones that have
// expired but not yet been swept.
func (c *TTL[V]) Len() int {
	return c.lru.Len()
}
