// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"time"

	"screenscout/internal/logging"
)

// Sweeper is a periodic maintenance task: expired cache entries,
// abandoned in-flight work, idle pooled clients. Sweep returns how
// many entries it removed.
type Sweeper interface {
	Name() string
	Sweep() int
}

// SweeperFunc adapts a plain function to Sweeper.
type SweeperFunc struct {
	SweepName string
	Fn        func() int
}

func (s SweeperFunc) Name() string { return s.SweepName }
func (s SweeperFunc) Sweep() int   { return s.Fn() }

// SweepService runs every registered sweeper on a shared ticker. It
// is the single shutdown-aware home for periodic maintenance, so no
// component needs its own background goroutine.
type SweepService struct {
	interval time.Duration
	sweepers []Sweeper
}

// NewSweepService creates the service with the given cadence.
func NewSweepService(interval time.Duration, sweepers ...Sweeper) *SweepService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepService{interval: interval, sweepers: sweepers}
}

// Register adds a sweeper. Not safe to call once Serve has started.
func (s *SweepService) Register(sw Sweeper) {
	s.sweepers = append(s.sweepers, sw)
}

// Serve implements suture.Service.
func (s *SweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAll()
		}
	}
}

func (s *SweepService) runAll() {
	for _, sw := range s.sweepers {
		if removed := sw.Sweep(); removed > 0 {
			logging.Debug().Str("sweeper", sw.Name()).Int("removed", removed).Msg("sweep completed")
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *SweepService) String() string {
	return "sweep-service"
}
