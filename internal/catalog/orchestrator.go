// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"screenscout/internal/breaker"
	"screenscout/internal/cache"
	"screenscout/internal/clientpool"
	"screenscout/internal/inflight"
	"screenscout/internal/logging"
	"screenscout/internal/metrics"
	"screenscout/internal/provider"
	"screenscout/internal/ratelimit"
	"screenscout/internal/resolve"
	"screenscout/internal/retry"
)

// SuggestionSource produces raw title suggestions for a user config.
// The production implementation composes the client pool, the circuit
// breaker, and the retry policy; tests substitute fakes.
type SuggestionSource interface {
	Suggest(ctx context.Context, cfg *UserConfig, prompt string, count int) ([]provider.Suggestion, error)
}

// TitleResolver maps suggested titles to canonical metadata.
type TitleResolver interface {
	ResolveBatch(ctx context.Context, lookups []resolve.Lookup) map[string]*resolve.Meta
}

// Config holds the orchestrator's tunables.
type Config struct {
	// ItemCount is how many items each catalog requests upstream.
	ItemCount int

	// RequestTimeout bounds how long a caller waits for generation.
	// The underlying work is not cancelled at this deadline; a late
	// completion still populates the cache for the next request.
	RequestTimeout time.Duration

	// MovieTTL and SeriesTTL control cache freshness per category.
	MovieTTL  time.Duration
	SeriesTTL time.Duration
}

// Service is the generation orchestrator. Generate never returns an
// error: every failure resolves to a stale cached value or a
// classified placeholder.
type Service struct {
	cfg      Config
	cache    *cache.Cache[*Result]
	group    *inflight.Group[*Result]
	limiter  *ratelimit.Limiter
	source   SuggestionSource
	resolver TitleResolver
}

// NewService assembles the orchestrator from its collaborators.
func NewService(cfg Config, c *cache.Cache[*Result], g *inflight.Group[*Result], l *ratelimit.Limiter, source SuggestionSource, resolver TitleResolver) *Service {
	return &Service{
		cfg:      cfg,
		cache:    c,
		group:    g,
		limiter:  l,
		source:   source,
		resolver: resolver,
	}
}

// Generate returns the catalog for req, from cache when fresh,
// joining an identical in-flight generation when one exists, and
// otherwise generating anew.
func (s *Service) Generate(ctx context.Context, req *Request) *Result {
	fp := req.fingerprint(time.Now())
	log := logging.Ctx(ctx)

	if res, ok := s.cache.Get(fp); ok {
		metrics.GenerationOutcomes.WithLabelValues("cache-hit").Inc()
		return res
	}

	p, started := s.group.Begin(fp)
	if started {
		go s.run(fp, req)
	} else {
		metrics.CoalescerJoins.Inc()
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	res, err := p.Wait(waitCtx)
	if err != nil {
		log.Debug().Str("fingerprint", fp).Err(err).Msg("generation failed, taking fallback path")
		return s.fallback(ctx, fp, req, err)
	}
	if !started {
		metrics.GenerationOutcomes.WithLabelValues("coalesced").Inc()
	}
	return res
}

// run executes the generation pipeline detached from any caller
// context, so waiters that hit their deadline do not cancel work that
// can still produce a cacheable result. The pipeline carries its own
// cap at twice the request timeout to bound leaked work.
func (s *Service) run(fp string, req *Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	var res *Result
	err := s.limiter.Execute(ctx, req.Config.APIKey, func(ctx context.Context) error {
		var opErr error
		res, opErr = s.generate(ctx, req)
		return opErr
	})

	if err == nil {
		s.cache.Set(fp, res, s.ttl(req.Category))
		metrics.GenerationDuration.WithLabelValues(req.Config.Provider, req.Category).Observe(time.Since(start).Seconds())
		metrics.GenerationOutcomes.WithLabelValues("fresh").Inc()
		logging.Info().
			Str("fingerprint", fp).
			Str("provider", req.Config.Provider).
			Int("items", len(res.Items)).
			Dur("elapsed", time.Since(start)).
			Msg("catalog generated")
	}
	s.group.Settle(fp, res, err)
}

// generate performs one provider call plus title resolution.
func (s *Service) generate(ctx context.Context, req *Request) (*Result, error) {
	prompt := buildPrompt(req, s.cfg.ItemCount, time.Now())

	suggestions, err := s.source.Suggest(ctx, req.Config, prompt, s.cfg.ItemCount)
	if err != nil {
		return nil, err
	}

	items := s.resolveItems(ctx, req, suggestions)
	if len(items) == 0 {
		return nil, errors.New("no suggested titles could be resolved")
	}

	return &Result{
		Items:       items,
		GeneratedAt: time.Now(),
		ConfigHash:  req.Config.Hash(),
	}, nil
}

// resolveItems matches suggestions to canonical metadata, preserving
// suggestion order and dropping anything the resolver cannot place.
func (s *Service) resolveItems(ctx context.Context, req *Request, suggestions []provider.Suggestion) []Item {
	lookups := make([]resolve.Lookup, 0, len(suggestions))
	for _, sug := range suggestions {
		lookups = append(lookups, resolve.Lookup{
			Title:    sug.Title,
			Year:     sug.Year,
			Category: req.Category,
		})
	}

	metas := s.resolver.ResolveBatch(ctx, lookups)

	items := make([]Item, 0, len(suggestions))
	for _, sug := range suggestions {
		meta, ok := metas[sug.Title]
		if !ok || meta == nil {
			continue
		}
		items = append(items, Item{
			ID:          meta.StableID,
			Title:       meta.CanonicalTitle,
			Category:    req.Category,
			Poster:      meta.PosterURL,
			Year:        meta.Year,
			Description: sug.Reason,
		})
	}
	return items
}

func (s *Service) ttl(category string) time.Duration {
	if category == "series" {
		return s.cfg.SeriesTTL
	}
	return s.cfg.MovieTTL
}

// ProviderSource is the production SuggestionSource: a pooled client
// per credential, one circuit breaker per provider, and the retry
// policy around the breaker. The breaker sits inside the retry loop
// so an open breaker fails the whole call fast instead of burning the
// retry budget.
type ProviderSource struct {
	pools    map[provider.Kind]*clientpool.Pool[provider.Client]
	breakers map[provider.Kind]*breaker.Breaker[[]provider.Suggestion]
	retry    retry.Options
}

// ProviderSourceConfig configures the production source.
type ProviderSourceConfig struct {
	Pool    clientpool.Config
	Breaker breaker.Config
	Retry   retry.Options

	// Timeout bounds each provider HTTP request.
	Timeout time.Duration

	// BaseURLs maps a provider kind to an endpoint override.
	BaseURLs map[string]string
}

// NewProviderSource builds one pool and one breaker per provider kind.
func NewProviderSource(cfg ProviderSourceConfig) *ProviderSource {
	src := &ProviderSource{
		pools:    make(map[provider.Kind]*clientpool.Pool[provider.Client]),
		breakers: make(map[provider.Kind]*breaker.Breaker[[]provider.Suggestion]),
		retry:    cfg.Retry,
	}
	for _, kind := range provider.Kinds() {
		kind := kind
		src.pools[kind] = clientpool.New(string(kind), cfg.Pool, func(credential string) (provider.Client, error) {
			return provider.New(kind, provider.Options{
				APIKey:  credential,
				BaseURL: cfg.BaseURLs[string(kind)],
				Timeout: cfg.Timeout,
			})
		}, nil)
		src.breakers[kind] = breaker.New[[]provider.Suggestion](string(kind), cfg.Breaker)
	}
	return src
}

// Suggest acquires the pooled client for the credential and runs the
// breaker-protected generation under the retry policy.
func (ps *ProviderSource) Suggest(ctx context.Context, cfg *UserConfig, prompt string, count int) ([]provider.Suggestion, error) {
	kind := cfg.Kind()
	pool, ok := ps.pools[kind]
	if !ok {
		return nil, fmt.Errorf("no client pool for provider %q", kind)
	}
	client, err := pool.Acquire(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("acquire %s client: %w", kind, err)
	}

	br := ps.breakers[kind]
	opts := ps.retry
	opts.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RetryAttempts.WithLabelValues(string(kind)).Inc()
		logging.Warn().
			Str("provider", string(kind)).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("retrying provider call")
	}

	return retry.Do(ctx, func(ctx context.Context) ([]provider.Suggestion, error) {
		return br.Execute(func() ([]provider.Suggestion, error) {
			return client.Generate(ctx, prompt, count)
		})
	}, opts)
}

// Validate checks the config's credential against its provider with
// a cheap authenticated call.
func (ps *ProviderSource) Validate(ctx context.Context, cfg *UserConfig) error {
	kind := cfg.Kind()
	pool, ok := ps.pools[kind]
	if !ok {
		return fmt.Errorf("no client pool for provider %q", kind)
	}
	client, err := pool.Acquire(cfg.APIKey)
	if err != nil {
		return fmt.Errorf("acquire %s client: %w", kind, err)
	}
	return client.ValidateCredential(ctx)
}

// SweepIdle evicts idle pooled clients across all providers.
func (ps *ProviderSource) SweepIdle() int {
	total := 0
	for _, pool := range ps.pools {
		total += pool.SweepIdle()
	}
	return total
}

// CloseAll tears down every pooled client for graceful shutdown.
func (ps *ProviderSource) CloseAll() {
	for _, pool := range ps.pools {
		pool.CloseAll()
	}
}
