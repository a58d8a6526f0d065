// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolve turns provider-suggested {title, year} pairs into stable
// catalog metadata (canonical title, poster, stable ID) by querying a
// Cinemeta-compatible metadata service.
//
// The resolver keeps its own read-through cache and paces outbound requests
// with a token bucket, so a burst of generations cannot hammer the metadata
// service. An unresolvable title is reported as absent; the orchestrator
// drops such items rather than failing the whole catalog.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"screenscout/internal/cache"
	"screenscout/internal/logging"
	"screenscout/internal/metrics"
)

// Lookup is one title to resolve.
type Lookup struct {
	Title    string
	Year     int
	Category string // "movie" or "series"
}

// Meta is the resolved canonical metadata for a title.
type Meta struct {
	StableID       string
	CanonicalTitle string
	Year           int
	PosterURL      string
	Category       string
}

// Config tunes the resolver.
type Config struct {
	// BaseURL is the Cinemeta-compatible metadata service root.
	BaseURL string

	// CacheCapacity bounds the resolver's own cache. Default: 4096
	CacheCapacity int

	// CacheTTL is how long resolved entries stay fresh. Default: 24h
	CacheTTL time.Duration

	// RequestsPerSecond paces outbound metadata calls. Default: 10
	RequestsPerSecond float64

	// Timeout bounds each metadata HTTP request. Default: 10s
	Timeout time.Duration

	// Workers bounds concurrent lookups within one batch. Default: 4
	Workers int
}

// Resolver resolves titles against a metadata service.
type Resolver struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache[*Meta]
	pace    *rate.Limiter
	ttl     time.Duration
	workers int
}

// New creates a resolver.
func New(cfg Config) *Resolver {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 4096
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Resolver{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache.New[*Meta]("resolve", cfg.CacheCapacity, 0),
		pace:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		ttl:     cfg.CacheTTL,
		workers: cfg.Workers,
	}
}

// ResolveBatch resolves a batch of lookups, returning a map keyed by the
// lookup's original title. Absent keys mean the title could not be resolved.
func (r *Resolver) ResolveBatch(ctx context.Context, lookups []Lookup) map[string]*Meta {
	results := make(map[string]*Meta, len(lookups))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, r.workers)
	for _, lookup := range lookups {
		wg.Add(1)
		go func(lookup Lookup) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, err := r.resolveOne(ctx, lookup)
			if err != nil {
				logging.Debug().Err(err).Str("title", lookup.Title).Msg("Title resolution failed")
				metrics.ResolutionLookups.WithLabelValues("error").Inc()
				return
			}
			if meta == nil {
				metrics.ResolutionLookups.WithLabelValues("unresolved").Inc()
				return
			}
			metrics.ResolutionLookups.WithLabelValues("resolved").Inc()

			mu.Lock()
			results[lookup.Title] = meta
			mu.Unlock()
		}(lookup)
	}
	wg.Wait()

	return results
}

// resolveOne resolves a single lookup through the cache. A cached nil marks
// a known-unresolvable title so repeated misses stay cheap.
func (r *Resolver) resolveOne(ctx context.Context, lookup Lookup) (*Meta, error) {
	key := fmt.Sprintf("resolve:%s:%s:%d", lookup.Category, strings.ToLower(lookup.Title), lookup.Year)
	if meta, ok := r.cache.Get(key); ok {
		return meta, nil
	}

	if err := r.pace.Wait(ctx); err != nil {
		return nil, err
	}

	meta, err := r.search(ctx, lookup)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, meta, r.ttl)
	return meta, nil
}

// searchResponse is the Cinemeta catalog search payload.
type searchResponse struct {
	Metas []searchMeta `json:"metas"`
}

type searchMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Poster      string `json:"poster"`
	ReleaseInfo string `json:"releaseInfo"`
}

// search queries the metadata service and picks the best candidate.
func (r *Resolver) search(ctx context.Context, lookup Lookup) (*Meta, error) {
	endpoint := fmt.Sprintf("%s/catalog/%s/top/search=%s.json",
		r.baseURL, lookup.Category, url.PathEscape(lookup.Title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("resolve: create request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve: http %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("resolve: decode response: %w", err)
	}

	return pickCandidate(lookup, parsed), nil
}

// pickCandidate selects the best match: exact name plus matching year wins,
// then exact name, then a year match, then the first result. Returns nil
// when the service found nothing.
func pickCandidate(lookup Lookup, parsed searchResponse) *Meta {
	if len(parsed.Metas) == 0 {
		return nil
	}

	toMeta := func(m searchMeta) *Meta {
		return &Meta{
			StableID:       m.ID,
			CanonicalTitle: m.Name,
			Year:           parseYear(m.ReleaseInfo),
			PosterURL:      m.Poster,
			Category:       m.Type,
		}
	}

	wantName := strings.ToLower(strings.TrimSpace(lookup.Title))

	var nameMatch, yearMatch *Meta
	for _, m := range parsed.Metas {
		year := parseYear(m.ReleaseInfo)
		nameEqual := strings.ToLower(strings.TrimSpace(m.Name)) == wantName
		yearClose := lookup.Year != 0 && year != 0 && abs(year-lookup.Year) <= 1

		if nameEqual && yearClose {
			return toMeta(m)
		}
		if nameEqual && nameMatch == nil {
			nameMatch = toMeta(m)
		}
		if yearClose && yearMatch == nil {
			yearMatch = toMeta(m)
		}
	}

	if nameMatch != nil {
		return nameMatch
	}
	if yearMatch != nil {
		return yearMatch
	}
	return toMeta(parsed.Metas[0])
}

// parseYear extracts the leading year from a releaseInfo string such as
// "1995" or "2008-2013".
func parseYear(releaseInfo string) int {
	releaseInfo = strings.TrimSpace(releaseInfo)
	if len(releaseInfo) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseInfo[:4])
	if err != nil {
		return 0
	}
	return year
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// CacheStats exposes the resolver cache counters for diagnostics.
func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// SweepCache removes long-expired cache entries. Called by the sweep
// service.
func (r *Resolver) SweepCache() int {
	return r.cache.Sweep()
}
