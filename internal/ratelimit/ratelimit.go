// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ratelimit provides per-credential admission control for upstream
// provider calls. Each credential gets a bounded number of concurrent
// executions; excess calls queue and are admitted in strict arrival order.
// Different credentials never block each other.
//
// This is concurrency bounding, not request-rate shaping: a slot is held for
// the full duration of the operation and handed to the oldest waiter on
// release. Provider-side request rates are handled by the retry policy's
// backoff, which understands the providers' retry-after hints.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"screenscout/internal/metrics"
)

// ErrCleared is returned to queued waiters rejected by Clear.
var ErrCleared = errors.New("ratelimit: queue cleared")

// waiter is a queued admission request.
type waiter struct {
	ready chan error
}

// keyState tracks one credential's running count and FIFO queue.
type keyState struct {
	active  int
	waiters []*waiter
}

// Stats is a snapshot of limiter occupancy.
type Stats struct {
	ActiveKeys  int
	TotalQueued int
}

// Limiter bounds concurrent operations per credential.
type Limiter struct {
	mu    sync.Mutex
	limit int
	keys  map[string]*keyState
}

// New creates a limiter admitting at most limit concurrent operations per
// credential.
func New(limit int) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	return &Limiter{
		limit: limit,
		keys:  make(map[string]*keyState),
	}
}

// Execute runs op once admission is granted for the credential, releasing
// the slot when op returns regardless of its error. Waiting is cancellable
// through ctx.
func (l *Limiter) Execute(ctx context.Context, credential string, op func(ctx context.Context) error) error {
	key := hashCredential(credential)

	if err := l.acquire(ctx, key); err != nil {
		return err
	}
	defer l.release(key)

	return op(ctx)
}

// acquire blocks until a slot is free for key, ctx is done, or the queue is
// cleared.
func (l *Limiter) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	ks, ok := l.keys[key]
	if !ok {
		ks = &keyState{}
		l.keys[key] = ks
	}

	if ks.active < l.limit {
		ks.active++
		l.publishStats()
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan error, 1)}
	ks.waiters = append(ks.waiters, w)
	l.publishStats()
	l.mu.Unlock()

	select {
	case err := <-w.ready:
		return err
	case <-ctx.Done():
		l.mu.Lock()
		if l.removeWaiter(ks, w) {
			l.publishStats()
			l.mu.Unlock()
			return ctx.Err()
		}
		l.mu.Unlock()
		// The slot was granted concurrently with cancellation; take the
		// grant off the channel and hand the slot onward.
		if err := <-w.ready; err != nil {
			return err
		}
		l.release(key)
		return ctx.Err()
	}
}

// release frees a slot for key, admitting the oldest waiter if any.
func (l *Limiter) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ks, ok := l.keys[key]
	if !ok {
		return
	}

	if len(ks.waiters) > 0 {
		// Hand the slot to the oldest waiter; active count is unchanged.
		w := ks.waiters[0]
		ks.waiters = ks.waiters[1:]
		w.ready <- nil
	} else {
		ks.active--
		if ks.active <= 0 {
			delete(l.keys, key)
		}
	}
	l.publishStats()
}

// removeWaiter drops w from ks's queue, reporting whether it was still
// queued (mu held).
func (l *Limiter) removeWaiter(ks *keyState, w *waiter) bool {
	for i, queued := range ks.waiters {
		if queued == w {
			ks.waiters = append(ks.waiters[:i], ks.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Stats returns a snapshot of limiter occupancy.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{ActiveKeys: len(l.keys)}
	for _, ks := range l.keys {
		s.TotalQueued += len(ks.waiters)
	}
	return s
}

// Clear rejects every queued waiter with ErrCleared and drops empty keys.
// Currently-running operations keep their slots and finish normally.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, ks := range l.keys {
		for _, w := range ks.waiters {
			w.ready <- ErrCleared
		}
		ks.waiters = nil
		if ks.active <= 0 {
			delete(l.keys, key)
		}
	}
	l.publishStats()
}

// publishStats refreshes the limiter gauges (mu held).
func (l *Limiter) publishStats() {
	queued := 0
	for _, ks := range l.keys {
		queued += len(ks.waiters)
	}
	metrics.RateLimiterActiveKeys.Set(float64(len(l.keys)))
	metrics.RateLimiterQueued.Set(float64(queued))
}

// hashCredential derives the map key from a credential so raw secrets never
// sit in limiter state or diagnostics.
func hashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:16]
}
