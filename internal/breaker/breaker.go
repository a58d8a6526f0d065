// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package breaker wraps calls to an upstream dependency with a circuit
// breaker. One breaker exists per dependency (per provider kind, and one for
// the title resolver), not per credential: a provider melting down does so
// for every credential at once.
//
// Built on sony/gobreaker. When the circuit is open, Execute fails fast with
// gobreaker.ErrOpenState; callers special-case that through IsOpen to log at
// reduced severity, since fail-fast is expected steady-state behavior while
// a dependency recovers.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"screenscout/internal/logging"
	"screenscout/internal/metrics"
)

// Config holds circuit breaker tuning for one dependency.
type Config struct {
	// FailureThreshold is the number of consecutive failures within the
	// rolling window that opens the circuit.
	FailureThreshold uint32

	// ResetTimeout is how long the circuit stays open before allowing a
	// half-open probe.
	ResetTimeout time.Duration

	// Window is the rolling interval after which the closed-state failure
	// counts reset.
	Window time.Duration
}

// Breaker gates calls to one upstream dependency.
type Breaker[T any] struct {
	cb   *gobreaker.CircuitBreaker[T]
	name string
}

// New creates a breaker for the named dependency. Half-open allows exactly
// one probe call; its outcome decides between closed and open.
func New[T any](name string, cfg Config) *Breaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // single probe in half-open state
		Interval:    cfg.Window,
		Timeout:     cfg.ResetTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= cfg.FailureThreshold
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Breaker[T]{cb: cb, name: name}
}

// Execute runs op through the breaker. When the circuit is open the call
// fails immediately without invoking op.
func (b *Breaker[T]) Execute(op func() (T, error)) (T, error) {
	result, err := b.cb.Execute(op)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case IsOpen(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return result, err
}

// State returns the current breaker state as a string.
func (b *Breaker[T]) State() string {
	return stateToString(b.cb.State())
}

// Name returns the dependency name this breaker guards.
func (b *Breaker[T]) Name() string {
	return b.name
}

// IsOpen reports whether err is a fail-fast rejection by an open or
// saturated half-open circuit, as opposed to a real upstream failure.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts a breaker state to its metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts a breaker state to its log label.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
