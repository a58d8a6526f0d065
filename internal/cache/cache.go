// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides a thread-safe, capacity-bounded LRU cache with
// per-entry TTL. It backs the generated-catalog store and the title
// resolver's read-through cache.
//
// Expired entries answer Get as a miss but are retained until capacity
// pressure, Delete or Sweep removes them; GetStale returns them explicitly
// so the orchestrator can fall back to the last known value when
// regeneration fails.
//
// This implementation uses a doubly-linked list for ordering and a hashmap
// for lookups, giving O(1) Get, Set and eviction.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"screenscout/internal/metrics"
)

// entry is a node in the LRU list.
type entry[V any] struct {
	key       string
	value     V
	prev      *entry[V]
	next      *entry[V]
	expiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Size     int
	Capacity int
}

// Cache is a thread-safe LRU cache with per-entry TTL.
type Cache[V any] struct {
	mu sync.Mutex

	// name labels this cache in metrics and logs.
	name string

	// capacity is the maximum number of entries.
	capacity int

	// staleRetention is how long past expiry an entry remains available via
	// GetStale before Sweep removes it. Zero means sweep removes entries as
	// soon as they expire.
	staleRetention time.Duration

	// items maps keys to linked list nodes for O(1) lookup.
	items map[string]*entry[V]

	// head and tail are sentinel nodes; head.next is the most recently
	// used, tail.prev the least recently used.
	head *entry[V]
	tail *entry[V]

	hits   int64
	misses int64
}

// New creates a cache with the given capacity. staleRetention controls how
// long expired entries remain reachable through GetStale.
func New[V any](name string, capacity int, staleRetention time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = 1024
	}

	c := &Cache[V]{
		name:           name,
		capacity:       capacity,
		staleRetention: staleRetention,
		items:          make(map[string]*entry[V], capacity),
		head:           &entry[V]{},
		tail:           &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves a fresh value. Expired entries count as misses but are not
// removed here; they stay reachable through GetStale until swept or evicted.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}

	c.moveToFront(e)
	c.hits++
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

// GetStale retrieves a value regardless of expiry. It does not touch the
// hit/miss counters; it exists only for the degraded fallback path.
func (c *Cache[V]) GetStale(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Has reports whether a fresh entry exists without updating access order.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	return ok && !time.Now().After(e.expiresAt)
}

// Set stores a value with its own TTL. If the key exists it is replaced and
// promoted; if the cache is full the least recently used entry is evicted.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = now.Add(ttl)
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		if lru := c.tail.prev; lru != c.head {
			c.removeEntry(lru)
			metrics.CacheEvictions.WithLabelValues(c.name).Inc()
		}
	}

	e := &entry[V]{key: key, value: value, expiresAt: now.Add(ttl)}
	c.items[key] = e
	c.pushFront(e)
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.items)))
}

// Delete removes an entry, reporting whether it existed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeEntry(e)
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.items)))
	return true
}

// Clear removes all entries. Counters are retained.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	metrics.CacheSize.WithLabelValues(c.name).Set(0)
}

// Len returns the current number of entries, expired included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}

// Sweep removes entries expired longer than the stale retention window and
// returns how many were removed. Called periodically by the sweep service.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.staleRetention)
	removed := 0
	for _, e := range c.items {
		if e.expiresAt.Before(cutoff) {
			c.removeEntry(e)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(removed))
		metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.items)))
	}
	return removed
}

// Name returns the cache's metric label.
func (c *Cache[V]) Name() string {
	return c.name
}

// moveToFront promotes an entry to most recently used (mu held).
func (c *Cache[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

// pushFront inserts an entry right after the head sentinel (mu held).
func (c *Cache[V]) pushFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

// removeEntry unlinks an entry and drops it from the map (mu held).
func (c *Cache[V]) removeEntry(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	delete(c.items, e.key)
}

// HashKey returns a short stable digest for use inside cache keys. Raw
// secrets must never appear in keys, logs or diagnostics; hash them first.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}
