// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package scheduler runs the periodic auto-refresh under a suture supervision
// tree. A refresh that fails (feed unreachable, panic in a provider client)
// is logged and the service restarts with suture's backoff instead of taking
// the process down.
package scheduler

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/pelorus/internal/enrich"
	"github.com/tomtom215/pelorus/internal/ingest"
	"github.com/tomtom215/pelorus/internal/logging"
)

// Refresher runs one full collect-and-aggregate pass.
type Refresher interface {
	Refresh(ctx context.Context, win ingest.Window) (enrich.Result, error)
}

// Service is a suture service running refreshes on a fixed interval. The
// first refresh fires one interval after start, not immediately, so a restart
// loop cannot hammer the feed.
type Service struct {
	refresher Refresher
	interval  time.Duration
}

// NewService creates the periodic refresh service.
func NewService(refresher Refresher, interval time.Duration) *Service {
	return &Service{refresher: refresher, interval: interval}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := logging.WithComponent("scheduler")
	log.Info().Dur("interval", s.interval).Msg("periodic refresh enabled")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			result, err := s.refresher.Refresh(ctx, ingest.Window{})
			if err != nil {
				log.Warn().Err(err).Msg("scheduled refresh failed")
				continue
			}
			log.Info().
				Int("rows", len(result.Rows)).
				Bool("ingest_failed", result.IngestFailed).
				Msg("scheduled refresh complete")
		}
	}
}

// String names the service in supervisor logs.
func (s *Service) String() string { return "periodic-refresh" }

// NewSupervisor builds the supervision tree with suture events routed into
// the zerolog pipeline via the slog bridge.
func NewSupervisor() *suture.Supervisor {
	return suture.New("pelorus", suture.Spec{
		EventHook: (&sutureslog.Handler{
			Logger: logging.NewSlogLogger(),
		}).MustHook(),
	})
}
