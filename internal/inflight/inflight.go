// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package inflight coalesces concurrent requests for the same fingerprint
// into a single execution. The first caller begins the work; every later
// caller joins the pending entry and observes the same outcome, value or
// error. Settling removes the entry so the next request starts fresh.
//
// A periodic sweep removes entries older than a staleness timeout. Those
// guard against leaked work: if the goroutine that owns a pending entry dies
// without settling it, the entry would otherwise pin joiners forever.
package inflight

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAbandoned is returned to waiters whose pending entry was removed by the
// staleness sweep before it settled.
var ErrAbandoned = errors.New("inflight: pending work abandoned")

// Pending is a settleable future shared by all coalesced callers of one key.
type Pending[V any] struct {
	done      chan struct{}
	value     V
	err       error
	startedAt time.Time
}

// Wait blocks until the pending work settles or ctx is done.
func (p *Pending[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// StartedAt reports when the pending work began.
func (p *Pending[V]) StartedAt() time.Time {
	return p.startedAt
}

// settle resolves the pending entry exactly once.
func (p *Pending[V]) settle(value V, err error) {
	p.value = value
	p.err = err
	close(p.done)
}

// Group tracks at most one pending execution per key.
type Group[V any] struct {
	mu sync.Mutex

	// staleAfter is the age past which an unsettled entry is considered
	// abandoned by Sweep.
	staleAfter time.Duration

	entries map[string]*Pending[V]
}

// NewGroup creates a coalescing group. Entries unsettled after staleAfter
// are removed by Sweep and their waiters receive ErrAbandoned.
func NewGroup[V any](staleAfter time.Duration) *Group[V] {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	return &Group[V]{
		staleAfter: staleAfter,
		entries:    make(map[string]*Pending[V]),
	}
}

// Begin returns the pending entry for key. started is true when this call
// created the entry, meaning the caller owns the execution and must call
// Settle when it finishes.
func (g *Group[V]) Begin(key string) (p *Pending[V], started bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.entries[key]; ok {
		return p, false
	}
	p = &Pending[V]{done: make(chan struct{}), startedAt: time.Now()}
	g.entries[key] = p
	return p, true
}

// Get returns the pending entry for key without creating one.
func (g *Group[V]) Get(key string) (*Pending[V], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.entries[key]
	return p, ok
}

// Settle resolves the entry for key and removes it, stopping further
// sharing. Joined waiters that already hold the entry still observe the
// outcome. Settling an unknown key is a no-op; the sweep may have removed
// the entry first.
func (g *Group[V]) Settle(key string, value V, err error) {
	g.mu.Lock()
	p, ok := g.entries[key]
	if ok {
		delete(g.entries, key)
	}
	g.mu.Unlock()

	if ok {
		p.settle(value, err)
	}
}

// Len returns the number of pending entries.
func (g *Group[V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Sweep removes entries older than the staleness timeout, settling them
// with ErrAbandoned so waiters unblock. Returns how many were removed.
func (g *Group[V]) Sweep() int {
	cutoff := time.Now().Add(-g.staleAfter)

	g.mu.Lock()
	var abandoned []*Pending[V]
	for key, p := range g.entries {
		if p.startedAt.Before(cutoff) {
			abandoned = append(abandoned, p)
			delete(g.entries, key)
		}
	}
	g.mu.Unlock()

	var zero V
	for _, p := range abandoned {
		p.settle(zero, ErrAbandoned)
	}
	return len(abandoned)
}
