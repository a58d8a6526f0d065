// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"screenscout/internal/catalog"
	"screenscout/internal/logging"
)

// Generator produces catalogs. Satisfied by catalog.Service.
type Generator interface {
	Generate(ctx context.Context, req *catalog.Request) *catalog.Result
}

// CredentialValidator checks a user config's API key against its
// provider. Satisfied by catalog.ProviderSource.
type CredentialValidator interface {
	Validate(ctx context.Context, cfg *catalog.UserConfig) error
}

// Handler holds the addon's HTTP handlers.
type Handler struct {
	svc       Generator
	validator CredentialValidator
	version   string
	started   time.Time
}

// NewHandler creates the handler set.
func NewHandler(svc Generator, validator CredentialValidator, version string) *Handler {
	return &Handler{svc: svc, validator: validator, version: version, started: time.Now()}
}

// meta is the catalog entry shape addon clients expect.
type meta struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	ReleaseInfo string `json:"releaseInfo,omitempty"`
	Description string `json:"description,omitempty"`
}

type catalogResponse struct {
	Metas []meta `json:"metas"`
}

// Health reports liveness for monitoring.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// BaseManifest serves the unconfigured manifest, telling the client
// that a user config is still required.
func (h *Handler) BaseManifest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildManifest(h.version, false))
}

// Manifest serves the configured manifest once the config segment
// decodes cleanly.
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	if _, err := h.userConfig(r); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, buildManifest(h.version, true))
}

// Validate checks the config's credential against the provider so a
// configure page can confirm a key before the user installs the
// addon.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.userConfig(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.validator.Validate(r.Context(), cfg); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Debug().Str("provider", cfg.Provider).Err(err).Msg("credential validation failed")
		respondJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// Catalog serves one generated catalog. Generation never fails from
// the client's perspective; the orchestrator resolves every failure
// to stale results or an explanatory placeholder.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.userConfig(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	category := chi.URLParam(r, "category")
	if category != "movie" && category != "series" {
		respondError(w, r, http.StatusNotFound, fmt.Errorf("unknown catalog type %q", category))
		return
	}

	req := &catalog.Request{
		Config:    cfg,
		Category:  category,
		CatalogID: chi.URLParam(r, "id"),
		Genre:     extraGenre(chi.URLParam(r, "extra")),
	}

	res := h.svc.Generate(r.Context(), req)

	metas := make([]meta, 0, len(res.Items))
	for _, item := range res.Items {
		m := meta{
			ID:          item.ID,
			Type:        item.Category,
			Name:        item.Title,
			Poster:      item.Poster,
			Description: item.Description,
		}
		if item.Year > 0 {
			m.ReleaseInfo = strconv.Itoa(item.Year)
		}
		metas = append(metas, m)
	}

	// Fallback responses must not be cached by intermediaries; a real
	// catalog may be available on the very next request.
	if res.Stale || res.Notice != "" {
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	respondJSON(w, http.StatusOK, catalogResponse{Metas: metas})
}

// userConfig decodes the config path segment.
func (h *Handler) userConfig(r *http.Request) (*catalog.UserConfig, error) {
	return catalog.DecodeUserConfig(chi.URLParam(r, "config"))
}

// extraGenre pulls the genre value out of the extra path segment,
// which arrives URL-encoded as "genre=Horror".
func extraGenre(extra string) string {
	if extra == "" {
		return ""
	}
	values, err := url.ParseQuery(extra)
	if err != nil {
		return ""
	}
	return values.Get("genre")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := logging.Ctx(r.Context())
	logger.Debug().Int("status", status).Err(err).Msg("request rejected")
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
