// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package api exposes the pipeline over HTTP: trigger a refresh, read the
// enriched vessel rows, inspect and clear the durable caches. A refresh with
// an interrupted feed still answers 200 with the partial rows and a warning;
// only a feed that never opened is reported as an upstream failure.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pelorus/internal/compliance"
	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/enrich"
	"github.com/tomtom215/pelorus/internal/ingest"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/registry"
	"github.com/tomtom215/pelorus/internal/trackstore"
)

// Aggregating abstracts the aggregator for handler tests.
type Aggregating interface {
	Refresh(ctx context.Context, win ingest.Window) (enrich.Result, error)
	Snapshot(ctx context.Context) (enrich.Result, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	agg      Aggregating
	tracks   *trackstore.Store
	resolver *registry.Resolver
	fetcher  *compliance.Fetcher
	validate *validator.Validate
}

// NewServer creates the API server over the assembled pipeline.
func NewServer(cfg *config.Config, agg Aggregating, tracks *trackstore.Store, resolver *registry.Resolver, fetcher *compliance.Fetcher) *Server {
	return &Server{
		cfg:      cfg,
		agg:      agg,
		tracks:   tracks,
		resolver: resolver,
		fetcher:  fetcher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// handleRefresh opens a collection window and returns the freshly aggregated
// rows. Optional body fields narrow the region or change the duration for
// this refresh only.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "malformed request body: "+err.Error())
			return
		}
		if err := s.validateRequest(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}
	}

	result, err := s.agg.Refresh(r.Context(), req.window())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("refresh failed")
		s.writeError(w, r, http.StatusBadGateway, "feed unavailable: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleVessels aggregates the current store state without touching the feed.
func (s *Server) handleVessels(w http.ResponseWriter, r *http.Request) {
	result, err := s.agg.Snapshot(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("snapshot aggregation failed")
		s.writeError(w, r, http.StatusInternalServerError, "aggregation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type cacheStats struct {
	TrackedVessels    int `json:"tracked_vessels"`
	PersistedTracks   int `json:"persisted_tracks"`
	RegistryMappings  int `json:"registry_mappings"`
	ComplianceRecords int `json:"compliance_records"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := cacheStats{TrackedVessels: s.tracks.Len()}

	var err error
	if stats.PersistedTracks, err = s.tracks.PersistedCount(); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "cache unavailable: "+err.Error())
		return
	}
	if stats.RegistryMappings, err = s.resolver.CachedCount(); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "cache unavailable: "+err.Error())
		return
	}
	if stats.ComplianceRecords, err = s.fetcher.CachedCount(); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "cache unavailable: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleCacheClear drops cached state. The scope query parameter selects what
// to clear: "tracks", "registry", "compliance", or "all" (the default).
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "all"
	}

	cleared := make([]string, 0, 3)
	clearScope := func(name string, fn func() error) bool {
		if scope != "all" && scope != name {
			return true
		}
		if err := fn(); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "clear "+name+": "+err.Error())
			return false
		}
		cleared = append(cleared, name)
		return true
	}

	switch scope {
	case "all", "tracks", "registry", "compliance":
	default:
		s.writeError(w, r, http.StatusBadRequest, "unknown scope "+scope)
		return
	}

	if !clearScope("tracks", s.tracks.Clear) ||
		!clearScope("registry", s.resolver.Reset) ||
		!clearScope("compliance", s.fetcher.Clear) {
		return
	}

	logging.Ctx(r.Context()).Info().Strs("cleared", cleared).Msg("caches cleared")
	s.writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("response write failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
