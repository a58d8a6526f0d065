// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	minRequestTimeout = 1 * time.Second
	maxRequestTimeout = 120 * time.Second
	minCacheCapacity  = 16
	maxItemCount      = 50
)

// Validate checks the configuration and clamps soft limits. It is
// called by Load after all layers have been merged.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLimiter(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validatePool(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateSweep(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.ItemCount < 1 || c.Catalog.ItemCount > maxItemCount {
		return fmt.Errorf("CATALOG_ITEM_COUNT must be between 1 and %d, got %d", maxItemCount, c.Catalog.ItemCount)
	}
	// Request timeouts outside the useful range are clamped rather
	// than rejected so that a misconfigured deployment still serves.
	if c.Catalog.RequestTimeout < minRequestTimeout {
		c.Catalog.RequestTimeout = minRequestTimeout
	}
	if c.Catalog.RequestTimeout > maxRequestTimeout {
		c.Catalog.RequestTimeout = maxRequestTimeout
	}
	if c.Catalog.MovieTTL <= 0 || c.Catalog.SeriesTTL <= 0 {
		return fmt.Errorf("catalog TTLs must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Capacity < minCacheCapacity {
		return fmt.Errorf("CACHE_CAPACITY must be at least %d, got %d", minCacheCapacity, c.Cache.Capacity)
	}
	if c.Cache.StaleRetention < 0 {
		return fmt.Errorf("CACHE_STALE_RETENTION must not be negative")
	}
	return nil
}

func (c *Config) validateLimiter() error {
	if c.Limiter.PerCredential < 1 {
		return fmt.Errorf("LIMITER_PER_CREDENTIAL must be at least 1, got %d", c.Limiter.PerCredential)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Breaker.ResetTimeout <= 0 {
		return fmt.Errorf("BREAKER_RESET_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.Pool.Capacity < 1 {
		return fmt.Errorf("POOL_CAPACITY must be at least 1, got %d", c.Pool.Capacity)
	}
	if c.Pool.IdleTTL <= 0 {
		return fmt.Errorf("POOL_IDLE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.BaseURL == "" {
		return fmt.Errorf("RESOLVER_BASE_URL is required")
	}
	if err := validateHTTPURL(c.Resolver.BaseURL, "RESOLVER_BASE_URL"); err != nil {
		return err
	}
	if c.Resolver.RequestsPerSecond <= 0 {
		return fmt.Errorf("RESOLVER_REQUESTS_PER_SECOND must be positive")
	}
	if c.Resolver.Workers < 1 {
		return fmt.Errorf("RESOLVER_WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) validateSweep() error {
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.Sweep.InflightStaleAfter <= 0 {
		return fmt.Errorf("SWEEP_INFLIGHT_STALE_AFTER must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOGGING_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOGGING_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a URL parses and uses an http(s) scheme.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
