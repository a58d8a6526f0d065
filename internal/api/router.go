// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler, mw *Middleware) *Router {
	return &Router{handler: handler, middleware: mw}
}

// Setup builds the full route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.middleware.CORS())
	r.Use(rt.middleware.RateLimit())

	r.Get("/manifest.json", rt.handler.BaseManifest)
	r.Get("/api/v1/health", rt.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// {config} is the base64-encoded user config segment that
	// configured clients bake into the addon URL.
	r.Route("/{config}", func(r chi.Router) {
		r.Get("/manifest.json", rt.handler.Manifest)
		r.Get("/validate.json", rt.handler.Validate)
		r.Get("/catalog/{category}/{id}.json", rt.handler.Catalog)
		r.Get("/catalog/{category}/{id}/{extra}.json", rt.handler.Catalog)
	})

	return r
}
