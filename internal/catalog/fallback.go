// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"screenscout/internal/breaker"
	"screenscout/internal/logging"
	"screenscout/internal/metrics"
)

// failureClass buckets a generation failure for placeholder display.
type failureClass string

const (
	classRateLimited failureClass = "rate-limited"
	classTimeout     failureClass = "timeout"
	classCredential  failureClass = "credential"
	classNetwork     failureClass = "network"
	classGeneric     failureClass = "unavailable"
)

// fallback resolves a failed generation to the best result available:
// an expired cache entry if one is still retained, otherwise a
// synthesized placeholder matching the failure class. It never
// returns nil.
func (s *Service) fallback(ctx context.Context, fp string, req *Request, cause error) *Result {
	log := logging.Ctx(ctx)

	if prev, ok := s.cache.GetStale(fp); ok {
		metrics.GenerationOutcomes.WithLabelValues("stale-fallback").Inc()
		log.Warn().Str("fingerprint", fp).Err(cause).Msg("serving stale catalog after failed generation")
		stale := *prev
		stale.Stale = true
		stale.Notice = "showing previous results; the latest generation failed"
		return &stale
	}

	class := classifyFailure(cause)
	metrics.GenerationOutcomes.WithLabelValues("placeholder").Inc()

	// An open breaker is expected steady-state behavior while an
	// upstream recovers, so it logs quieter than a real failure.
	if breaker.IsOpen(cause) {
		log.Debug().Str("fingerprint", fp).Msg("provider circuit open, serving placeholder")
	} else {
		log.Warn().Str("fingerprint", fp).Str("class", string(class)).Err(cause).Msg("serving placeholder catalog")
	}

	return placeholderResult(req, class)
}

// classifyFailure maps an error to a placeholder class by message
// pattern. Credential errors are checked before rate-limit ones since
// some providers mention quotas in auth failures.
func classifyFailure(err error) failureClass {
	if err == nil {
		return classGeneric
	}
	if breaker.IsOpen(err) {
		return classGeneric
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "invalid api key", "invalid x-api-key", "incorrect api key", "unauthorized", "authentication", "permission denied", "401", "403"):
		return classCredential
	case containsAny(msg, "rate limit", "ratelimit", "429", "quota", "resource exhausted", "too many requests"):
		return classRateLimited
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return classTimeout
	case containsAny(msg, "connection refused", "connection reset", "no such host", "network is unreachable", "broken pipe", "dial tcp", "eof"):
		return classNetwork
	default:
		return classGeneric
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// placeholderTexts gives each failure class a distinct user-facing
// title and explanation.
var placeholderTexts = map[failureClass]struct {
	title string
	desc  string
}{
	classRateLimited: {
		title: "Provider rate limit reached",
		desc:  "The AI provider is rate limiting this API key. Catalogs will return automatically once the limit resets.",
	},
	classTimeout: {
		title: "Generation timed out",
		desc:  "The AI provider took too long to respond. Try again in a moment.",
	},
	classCredential: {
		title: "API key rejected",
		desc:  "The configured API key was rejected by the provider. Reinstall the addon with a valid key.",
	},
	classNetwork: {
		title: "Provider unreachable",
		desc:  "Could not reach the AI provider. Check the server's network connection and try again.",
	},
	classGeneric: {
		title: "Catalog temporarily unavailable",
		desc:  "Catalog generation is temporarily unavailable. Try again in a few minutes.",
	},
}

// placeholderResult synthesizes a one-item catalog explaining the
// failure in the client's own UI.
func placeholderResult(req *Request, class failureClass) *Result {
	text := placeholderTexts[class]
	return &Result{
		Items: []Item{{
			ID:          "screenscout:error:" + string(class),
			Title:       text.title,
			Category:    req.Category,
			Description: text.desc,
		}},
		GeneratedAt: time.Now(),
		ConfigHash:  req.Config.Hash(),
		Notice:      text.title,
	}
}
