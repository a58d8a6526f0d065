// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the Screenscout addon server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"screenscout/internal/api"
	"screenscout/internal/breaker"
	"screenscout/internal/cache"
	"screenscout/internal/catalog"
	"screenscout/internal/clientpool"
	"screenscout/internal/config"
	"screenscout/internal/inflight"
	"screenscout/internal/logging"
	"screenscout/internal/ratelimit"
	"screenscout/internal/resolve"
	"screenscout/internal/retry"
	"screenscout/internal/supervisor"
	"screenscout/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Msg("Starting Screenscout")

	// Core components.
	resultCache := cache.New[*catalog.Result]("catalog", cfg.Cache.Capacity, cfg.Cache.StaleRetention)
	group := inflight.NewGroup[*catalog.Result](cfg.Sweep.InflightStaleAfter)
	limiter := ratelimit.New(cfg.Limiter.PerCredential)

	source := catalog.NewProviderSource(catalog.ProviderSourceConfig{
		Pool: clientpool.Config{
			Capacity: cfg.Pool.Capacity,
			IdleTTL:  cfg.Pool.IdleTTL,
		},
		Breaker: breaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			ResetTimeout:     cfg.Breaker.ResetTimeout,
			Window:           cfg.Breaker.Window,
		},
		Retry:    retry.Options{},
		Timeout:  cfg.Providers.Timeout,
		BaseURLs: cfg.Providers.BaseURLs,
	})
	defer source.CloseAll()

	resolver := resolve.New(resolve.Config{
		BaseURL:           cfg.Resolver.BaseURL,
		RequestsPerSecond: cfg.Resolver.RequestsPerSecond,
		CacheCapacity:     cfg.Resolver.CacheCapacity,
		CacheTTL:          cfg.Resolver.CacheTTL,
		Timeout:           cfg.Resolver.Timeout,
		Workers:           cfg.Resolver.Workers,
	})

	svc := catalog.NewService(catalog.Config{
		ItemCount:      cfg.Catalog.ItemCount,
		RequestTimeout: cfg.Catalog.RequestTimeout,
		MovieTTL:       cfg.Catalog.MovieTTL,
		SeriesTTL:      cfg.Catalog.SeriesTTL,
	}, resultCache, group, limiter, source, resolver)

	// HTTP surface.
	handler := api.NewHandler(svc, source, version)
	router := api.NewRouter(handler, api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervision tree: HTTP in the api layer, periodic sweeps in the
	// maintenance layer.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddMaintenanceService(services.NewSweepService(cfg.Sweep.Interval,
		services.SweeperFunc{SweepName: "catalog-cache", Fn: resultCache.Sweep},
		services.SweeperFunc{SweepName: "inflight", Fn: group.Sweep},
		services.SweeperFunc{SweepName: "client-pools", Fn: source.SweepIdle},
		services.SweeperFunc{SweepName: "resolve-cache", Fn: resolver.SweepCache},
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Serving addon")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}
