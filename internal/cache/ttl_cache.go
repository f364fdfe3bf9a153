package cache

import (
	"sync"
	"time"
)

// Cache provides a minimal TTL cache interface for hot-path lookups.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache stores values in-memory with per-entry TTLs.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]cacheEntry[V]
	now   func() time.Time
}

// NewTTLCache constructs a new TTLCache instance.
func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return NewTTLCacheWithClock[K, V](time.Now)
}

// NewTTLCacheWithClock constructs a TTLCache that reads time from now.
func NewTTLCacheWithClock[K comparable, V any](now func() time.Time) *TTLCache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{items: make(map[K]cacheEntry[V]), now: now}
}

// Get returns a cached value if it exists and has not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.expired(entry) {
		c.Delete(key)
		return zero, false
	}
	return entry.value, true
}

// Set stores a value with the provided TTL. A non-positive TTL never expires.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = cacheEntry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// GetOrSet returns the live value for key, storing create() with ttl when absent or expired.
func (c *TTLCache[K, V]) GetOrSet(key K, create func() V, ttl time.Duration) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[key]; ok && !c.expired(entry) {
		return entry.value
	}
	value := create()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.items[key] = cacheEntry[V]{value: value, expiresAt: expiresAt}
	return value
}

// Update applies fn to a live entry under the write lock, keeping its expiry.
func (c *TTLCache[K, V]) Update(key K, fn func(V) V) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok || c.expired(entry) {
		return false
	}
	entry.value = fn(entry.value)
	c.items[key] = entry
	return true
}

// Delete removes a cached entry.
func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Sweep removes expired entries and entries matching drop, returning how many were removed.
func (c *TTLCache[K, V]) Sweep(drop func(V) bool) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry) || (drop != nil && drop(entry.value)) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TTLCache[K, V]) expired(entry cacheEntry[V]) bool {
	return !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt)
}
