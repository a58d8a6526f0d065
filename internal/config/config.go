// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides layered configuration loading for Screenscout.
//
// Configuration is assembled from three sources, lowest to highest
// precedence:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (SCREENSCOUT_ prefix)
package config

import "time"

// ConfigPathEnvVar names the environment variable that points at an
// explicit config file location.
const ConfigPathEnvVar = "SCREENSCOUT_CONFIG_PATH"

// DefaultConfigPaths are searched in order when no explicit path is set.
var DefaultConfigPaths = []string{
	"./screenscout.yaml",
	"./config/screenscout.yaml",
	"/etc/screenscout/screenscout.yaml",
}

// Config is the root configuration for the server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Cache     CacheConfig     `koanf:"cache"`
	Limiter   LimiterConfig   `koanf:"limiter"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Pool      PoolConfig      `koanf:"pool"`
	Resolver  ResolverConfig  `koanf:"resolver"`
	Providers ProvidersConfig `koanf:"providers"`
	Sweep     SweepConfig     `koanf:"sweep"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// CatalogConfig controls generation behaviour.
type CatalogConfig struct {
	ItemCount      int           `koanf:"item_count"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	MovieTTL       time.Duration `koanf:"movie_ttl"`
	SeriesTTL      time.Duration `koanf:"series_ttl"`
}

// CacheConfig controls the generation result cache.
type CacheConfig struct {
	Capacity       int           `koanf:"capacity"`
	StaleRetention time.Duration `koanf:"stale_retention"`
}

// LimiterConfig controls per-credential admission.
type LimiterConfig struct {
	PerCredential int `koanf:"per_credential"`
}

// BreakerConfig controls the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	ResetTimeout     time.Duration `koanf:"reset_timeout"`
	Window           time.Duration `koanf:"window"`
}

// PoolConfig controls the per-provider client pools.
type PoolConfig struct {
	Capacity int           `koanf:"capacity"`
	IdleTTL  time.Duration `koanf:"idle_ttl"`
}

// ResolverConfig controls metadata title resolution.
type ResolverConfig struct {
	BaseURL           string        `koanf:"base_url"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheCapacity     int           `koanf:"cache_capacity"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	Timeout           time.Duration `koanf:"timeout"`
	Workers           int           `koanf:"workers"`
}

// ProvidersConfig holds settings shared by the AI provider clients.
// BaseURLs maps a provider kind to an endpoint override, used for
// self-hosted gateways and tests.
type ProvidersConfig struct {
	Timeout  time.Duration     `koanf:"timeout"`
	BaseURLs map[string]string `koanf:"base_urls"`
}

// SweepConfig controls background maintenance.
type SweepConfig struct {
	Interval           time.Duration `koanf:"interval"`
	InflightStaleAfter time.Duration `koanf:"inflight_stale_after"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, tuned for a small
// self-hosted deployment.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Catalog: CatalogConfig{
			ItemCount:      20,
			RequestTimeout: 55 * time.Second,
			MovieTTL:       6 * time.Hour,
			SeriesTTL:      6 * time.Hour,
		},
		Cache: CacheConfig{
			Capacity:       1024,
			StaleRetention: 24 * time.Hour,
		},
		Limiter: LimiterConfig{
			PerCredential: 1,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			Window:           2 * time.Minute,
		},
		Pool: PoolConfig{
			Capacity: 32,
			IdleTTL:  30 * time.Minute,
		},
		Resolver: ResolverConfig{
			BaseURL:           "https://v3-cinemeta.strem.io",
			RequestsPerSecond: 10,
			CacheCapacity:     4096,
			CacheTTL:          24 * time.Hour,
			Timeout:           10 * time.Second,
			Workers:           4,
		},
		Providers: ProvidersConfig{
			Timeout:  60 * time.Second,
			BaseURLs: map[string]string{},
		},
		Sweep: SweepConfig{
			Interval:           time.Minute,
			InflightStaleAfter: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
