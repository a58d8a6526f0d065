// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package retry executes fallible upstream operations with bounded
// exponential backoff. Errors are classified as retryable (rate limits,
// quota exhaustion, transient unavailability) or terminal (auth, validation,
// malformed responses, breaker rejections); terminal errors abort without
// consuming further attempts.
//
// AI providers embed retry-after hints in their error bodies in a few
// textual shapes ("Please try again in 20s", "retryDelay":"7s",
// "Retry-After: 30"). When a hint is present it replaces the computed
// backoff, padded with a small safety buffer.
package retry

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"screenscout/internal/breaker"
)

// hintBuffer is added to provider-supplied retry delays to absorb clock
// slop on the provider side.
const hintBuffer = 500 * time.Millisecond

// Options tunes a retry loop.
type Options struct {
	// MaxAttempts is the total number of attempts, first try included.
	// Default: 3
	MaxAttempts int

	// BaseDelay seeds the exponential backoff. Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff. Default: 30s
	MaxDelay time.Duration

	// OnRetry, when set, is observed with the 1-based attempt number that
	// just failed, the delay about to be slept, and the error.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (o *Options) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
}

// Do runs op until it succeeds, fails terminally, exhausts attempts, or ctx
// is done. The last error is returned wrapped when attempts run out.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts.applyDefaults()

	var zero T
	var err error

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		var result T
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}

		if !Retryable(err) {
			return zero, err
		}

		if attempt < opts.MaxAttempts-1 {
			delay := NextDelay(err, attempt, opts.BaseDelay, opts.MaxDelay)
			if opts.OnRetry != nil {
				opts.OnRetry(attempt+1, delay, err)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("max retry attempts reached: %w", err)
}

// retryablePatterns are the upstream error signatures worth retrying:
// rate limiting, quota pressure and transient unavailability.
var retryablePatterns = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"429",
	"too many requests",
	"quota",
	"resource exhausted",
	"resource_exhausted",
	"503",
	"service unavailable",
	"temporarily unavailable",
	"overloaded",
	"server is busy",
	"connection reset",
	"connection refused",
	"no such host",
	"unexpected eof",
}

// Retryable classifies an error. Breaker rejections are terminal here: the
// circuit already decided the dependency is down, and burning the retry
// budget against a fail-fast gate is pure delay.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if breaker.IsOpen(err) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Hint extraction patterns, tried in order. All capture a number; the unit
// is seconds unless the match says otherwise.
var (
	// "please try again in 20s", "try again in 1.5s", "try again in 500ms"
	tryAgainRe = regexp.MustCompile(`(?i)try again in\s+(\d+(?:\.\d+)?)\s*(ms|s)`)

	// "retryDelay":"7s" (Gemini), retryDelay: 7s
	retryDelayRe = regexp.MustCompile(`(?i)retrydelay["':\s]+(\d+(?:\.\d+)?)\s*s`)

	// "Retry-After: 30" (echoed response header, whole seconds)
	retryAfterRe = regexp.MustCompile(`(?i)retry-after["':\s]+(\d+)`)
)

// RetryAfterHint extracts a provider-supplied retry delay from the error
// text. The returned duration includes the safety buffer.
func RetryAfterHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	msg := err.Error()

	if m := tryAgainRe.FindStringSubmatch(msg); m != nil {
		n, convErr := strconv.ParseFloat(m[1], 64)
		if convErr == nil {
			unit := time.Second
			if strings.EqualFold(m[2], "ms") {
				unit = time.Millisecond
			}
			return time.Duration(n*float64(unit)) + hintBuffer, true
		}
	}
	if m := retryDelayRe.FindStringSubmatch(msg); m != nil {
		n, convErr := strconv.ParseFloat(m[1], 64)
		if convErr == nil {
			return time.Duration(n*float64(time.Second)) + hintBuffer, true
		}
	}
	if m := retryAfterRe.FindStringSubmatch(msg); m != nil {
		n, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return time.Duration(n)*time.Second + hintBuffer, true
		}
	}
	return 0, false
}

// NextDelay computes the wait before the next attempt: the provider hint
// when present, else capped exponential backoff from the attempt number.
func NextDelay(err error, attempt int, base, max time.Duration) time.Duration {
	if hint, ok := RetryAfterHint(err); ok {
		return hint
	}

	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}
