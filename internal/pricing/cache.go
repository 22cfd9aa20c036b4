// Package pricing turns vendor quotes into target-currency prices. It owns the
// FX rate and per-symbol price caches that shield callers from upstream latency.
package pricing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// DefaultTTL is how long a fetched price or FX rate stays fresh.
const DefaultTTL = 15 * time.Minute

// fetchTimeout bounds a shared upstream fetch. The fetch outlives the caller
// that started it, since its result is cached for everyone.
const fetchTimeout = 30 * time.Second

// detached strips cancellation from ctx and applies fetchTimeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
}

var ErrInvalidTTL = errors.New("cache ttl must be positive")

// Entry is a cached value and the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// TTLCache is a mutex-guarded map whose entries expire ttl after they were fetched.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     Clock
	entries map[K]Entry[V]
}

// NewTTLCache returns an empty cache. A nil clock means time.Now.
func NewTTLCache[K comparable, V any](ttl time.Duration, now Clock) (*TTLCache[K, V], error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]Entry[V]),
	}, nil
}

// Get returns the stored entry for key, fresh or not.
func (c *TTLCache[K, V]) Get(key K) (Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok
}

// Put stores value under key as fetched at fetchedAt.
func (c *TTLCache[K, V]) Put(key K, value V, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, FetchedAt: fetchedAt}
}

// IsFresh reports whether e is still valid at now: now - fetchedAt < ttl.
func (c *TTLCache[K, V]) IsFresh(e Entry[V], now time.Time) bool {
	return now.Sub(e.FetchedAt) < c.ttl
}

// Fresh returns the value for key when it is present and within its ttl.
func (c *TTLCache[K, V]) Fresh(key K) (V, bool) {
	e, ok := c.Get(key)
	if !ok || !c.IsFresh(e, c.now()) {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Now reads the cache clock.
func (c *TTLCache[K, V]) Now() time.Time {
	return c.now()
}

// TTL returns the freshness window.
func (c *TTLCache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Len returns the number of stored entries, including stale ones.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
