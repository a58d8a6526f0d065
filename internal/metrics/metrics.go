// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus collectors for the generation pipeline:
// cache efficiency, circuit breaker state, rate limiter queue depth, client
// pool occupancy and end-to-end generation outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "screenscout_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_cache_evictions_total",
			Help: "Total number of cache evictions (capacity or expiry)",
		},
		[]string{"cache"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "screenscout_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_circuit_breaker_requests_total",
			Help: "Total requests through circuit breakers by result",
		},
		[]string{"breaker", "result"}, // "success", "failure", "rejected"
	)

	// Rate Limiter Metrics
	RateLimiterActiveKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "screenscout_rate_limiter_active_keys",
			Help: "Number of credentials with running or queued operations",
		},
	)

	RateLimiterQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "screenscout_rate_limiter_queued",
			Help: "Number of operations waiting for admission",
		},
	)

	// Client Pool Metrics
	ClientPoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "screenscout_client_pool_entries",
			Help: "Current number of pooled upstream clients",
		},
		[]string{"pool"},
	)

	ClientPoolEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_client_pool_evictions_total",
			Help: "Total pooled clients evicted (LRU or idle sweep)",
		},
		[]string{"pool", "reason"}, // "lru", "idle"
	)

	// Generation Metrics
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "screenscout_generation_duration_seconds",
			Help:    "End-to-end catalog generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "category"},
	)

	GenerationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_generation_outcomes_total",
			Help: "Catalog generation outcomes by result class",
		},
		[]string{"outcome"}, // "fresh", "cache-hit", "coalesced", "stale-fallback", "placeholder"
	)

	CoalescerJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screenscout_coalescer_joins_total",
			Help: "Total requests that joined an in-flight generation",
		},
	)

	// Retry Metrics
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_retry_attempts_total",
			Help: "Total retry attempts by upstream dependency",
		},
		[]string{"dependency"},
	)

	// Title Resolution Metrics
	ResolutionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenscout_resolution_lookups_total",
			Help: "Title resolution lookups by result",
		},
		[]string{"result"}, // "resolved", "unresolved", "error"
	)
)
