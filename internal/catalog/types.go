// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog orchestrates catalog generation: cache lookup,
// in-flight coalescing, per-credential admission, the retrying
// circuit-protected provider call, title resolution, and fallback
// synthesis when everything else fails.
package catalog

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"screenscout/internal/cache"
	"screenscout/internal/provider"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// UserConfig is the per-user configuration carried base64-encoded in
// the addon URL path. It is the unit of credential identity: the
// limiter, the client pool, and the cache fingerprint all key off it.
type UserConfig struct {
	Provider string `json:"provider" validate:"required"`
	APIKey   string `json:"apiKey" validate:"required,min=8"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

// Kind returns the provider variant tag for dispatch.
func (c *UserConfig) Kind() provider.Kind {
	return provider.Kind(strings.ToLower(c.Provider))
}

// Hash returns a stable short digest of the config. The raw API key
// never appears in cache keys, logs, or metrics.
func (c *UserConfig) Hash() string {
	return cache.HashKey(c.Provider + "|" + c.Model + "|" + c.Language + "|" + c.APIKey)
}

// DecodeUserConfig parses the base64 config segment of an addon URL.
// Both URL-safe and standard alphabets are accepted since clients
// differ in how they encode the path segment.
func DecodeUserConfig(encoded string) (*UserConfig, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("config segment is not valid base64: %w", err)
		}
	}

	cfg := &UserConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config segment is not valid JSON: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config is incomplete: %w", err)
	}
	if !cfg.Kind().Valid() {
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return cfg, nil
}

// Request identifies one catalog to generate.
type Request struct {
	Config    *UserConfig
	Category  string // "movie" or "series"
	CatalogID string // catalog flavor, e.g. "discover", "hidden-gems"
	Genre     string // optional genre filter from the extra path segment
}

// variant is the content portion of the cache fingerprint.
func (r *Request) variant() string {
	v := r.Category + "-" + r.CatalogID
	if r.Genre != "" {
		v += "-" + strings.ToLower(r.Genre)
	}
	return v
}

// Item is one resolved catalog entry, shaped for the addon response.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"name"`
	Category    string `json:"type"`
	Poster      string `json:"poster,omitempty"`
	Year        int    `json:"year,omitempty"`
	Description string `json:"description,omitempty"`
}

// Result is a generated catalog. Once cached it is immutable; the
// fallback path returns copies, never mutates the cached value.
type Result struct {
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generatedAt"`
	ConfigHash  string    `json:"configHash"`

	// Stale marks an expired cache entry served as fallback.
	Stale bool `json:"stale,omitempty"`

	// Notice carries a human-readable marker on fallback results.
	Notice string `json:"notice,omitempty"`
}
