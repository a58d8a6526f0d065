// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clientpool reuses expensive upstream client handles across
// requests sharing a credential. Entries are keyed by a credential hash, so
// raw secrets never appear in pool state or diagnostics.
//
// The pool is bounded: at capacity the least recently used entry is evicted
// before a new one is built, and a periodic sweep drops entries idle past
// the configured TTL. One pool exists per upstream dependency type.
package clientpool

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"screenscout/internal/metrics"
)

// poolEntry holds one live client and its reuse timestamp.
type poolEntry[C any] struct {
	client     C
	lastUsedAt time.Time
}

// Pool is a keyed, capacity- and TTL-bounded client pool.
type Pool[C any] struct {
	mu sync.Mutex

	// name labels this pool in metrics and logs.
	name string

	capacity int
	idleTTL  time.Duration

	// build constructs a client for a credential on first use.
	build func(credential string) (C, error)

	// closer, when set, releases a client's resources on eviction.
	closer func(C)

	entries map[string]*poolEntry[C]
}

// Config tunes a pool.
type Config struct {
	// Capacity is the maximum number of pooled clients. Default: 32
	Capacity int

	// IdleTTL is the idle duration after which SweepIdle evicts an entry.
	// Default: 30m
	IdleTTL time.Duration
}

// New creates a pool for the named dependency. build is called once per
// credential; closer, when non-nil, runs for every evicted client.
func New[C any](name string, cfg Config, build func(credential string) (C, error), closer func(C)) *Pool[C] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 32
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Pool[C]{
		name:     name,
		capacity: cfg.Capacity,
		idleTTL:  cfg.IdleTTL,
		build:    build,
		closer:   closer,
		entries:  make(map[string]*poolEntry[C], cfg.Capacity),
	}
}

// Acquire returns the pooled client for a credential, building one on first
// use. At capacity the least recently used entry is evicted first.
func (p *Pool[C]) Acquire(credential string) (C, error) {
	key := hashCredential(credential)

	p.mu.Lock()
	if e, ok := p.entries[key]; ok {
		e.lastUsedAt = time.Now()
		client := e.client
		p.mu.Unlock()
		return client, nil
	}
	p.mu.Unlock()

	// Build outside the lock; client construction may do I/O.
	client, err := p.build(credential)
	if err != nil {
		var zero C
		return zero, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have built the same client meanwhile; prefer
	// the pooled one and discard ours.
	if e, ok := p.entries[key]; ok {
		e.lastUsedAt = time.Now()
		if p.closer != nil {
			p.closer(client)
		}
		return e.client, nil
	}

	if len(p.entries) >= p.capacity {
		p.evictLRU()
	}

	p.entries[key] = &poolEntry[C]{client: client, lastUsedAt: time.Now()}
	metrics.ClientPoolSize.WithLabelValues(p.name).Set(float64(len(p.entries)))
	return client, nil
}

// evictLRU removes the least recently used entry (mu held). Pool capacities
// are small, so a linear scan beats maintaining list links.
func (p *Pool[C]) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, e := range p.entries {
		if oldestKey == "" || e.lastUsedAt.Before(oldest) {
			oldestKey = key
			oldest = e.lastUsedAt
		}
	}
	if oldestKey != "" {
		if p.closer != nil {
			p.closer(p.entries[oldestKey].client)
		}
		delete(p.entries, oldestKey)
		metrics.ClientPoolEvictions.WithLabelValues(p.name, "lru").Inc()
	}
}

// SweepIdle evicts entries idle longer than the pool's TTL and returns how
// many were removed. Called periodically by the sweep service.
func (p *Pool[C]) SweepIdle() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-p.idleTTL)
	removed := 0
	for key, e := range p.entries {
		if e.lastUsedAt.Before(cutoff) {
			if p.closer != nil {
				p.closer(e.client)
			}
			delete(p.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.ClientPoolEvictions.WithLabelValues(p.name, "idle").Add(float64(removed))
		metrics.ClientPoolSize.WithLabelValues(p.name).Set(float64(len(p.entries)))
	}
	return removed
}

// Len returns the number of pooled clients.
func (p *Pool[C]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Name returns the pool's metric label.
func (p *Pool[C]) Name() string {
	return p.name
}

// CloseAll evicts every entry, running the closer for each. Used during
// graceful shutdown.
func (p *Pool[C]) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, e := range p.entries {
		if p.closer != nil {
			p.closer(e.client)
		}
		delete(p.entries, key)
	}
	metrics.ClientPoolSize.WithLabelValues(p.name).Set(0)
}

// hashCredential derives a pool key from a raw credential.
func hashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:16]
}
