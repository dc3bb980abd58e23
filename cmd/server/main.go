// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Command server assembles and runs the Pelorus pipeline: the durable cache
// layer, the vessel track store, the identifier resolver, the compliance
// fetcher, the enrichment aggregator, the optional periodic refresh, and the
// HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pelorus/internal/api"
	"github.com/tomtom215/pelorus/internal/compliance"
	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/enrich"
	"github.com/tomtom215/pelorus/internal/ingest"
	"github.com/tomtom215/pelorus/internal/kvstore"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/registry"
	"github.com/tomtom215/pelorus/internal/scheduler"
	"github.com/tomtom215/pelorus/internal/trackstore"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", Version).Msg("pelorus starting")

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("cache close failed")
		}
	}()

	tracks := trackstore.New(kvstore.New(db, "track:"))
	if err := tracks.Load(); err != nil {
		logging.Warn().Err(err).Msg("snapshot load failed, starting empty")
	} else if n := tracks.Len(); n > 0 {
		logging.Info().Int("vessels", n).Msg("snapshot restored")
	}

	resolver := registry.New(cfg.Registry, kvstore.New(db, "imo:"))
	fetcher := compliance.New(cfg.Compliance, kvstore.New(db, "compliance:"))
	ingester := ingest.New(cfg.AIS, tracks)
	aggregator := enrich.New(tracks, ingester, resolver, fetcher, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisorErr := make(chan error, 1)
	if cfg.Scheduler.Enabled {
		sup := scheduler.NewSupervisor()
		sup.Add(scheduler.NewService(aggregator, cfg.Scheduler.Interval))
		go func() {
			supervisorErr <- sup.Serve(ctx)
		}()
	}

	server := api.NewServer(cfg, aggregator, tracks, resolver, fetcher)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.Router(),

		// Refresh holds the connection open for the whole collection window;
		// the write timeout must exceed the longest permitted window.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case err := <-supervisorErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("http shutdown incomplete")
	}

	if err := tracks.Save(); err != nil {
		logging.Warn().Err(err).Msg("final snapshot save failed")
	}

	logging.Info().Msg("pelorus stopped")
	return nil
}

// openDB opens the shared durable cache, honoring the in-memory opt-out.
func openDB(cfg *config.Config) (*badger.DB, error) {
	if cfg.Cache.InMemory {
		logging.Info().Msg("cache persistence disabled, running in-memory")
		return kvstore.OpenInMemory()
	}
	db, err := kvstore.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	logging.Info().Str("path", cfg.Cache.Path).Msg("durable cache opened")
	return db, nil
}
