// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pelorus/internal/compliance"
	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/enrich"
	"github.com/tomtom215/pelorus/internal/ingest"
	"github.com/tomtom215/pelorus/internal/kvstore"
	"github.com/tomtom215/pelorus/internal/middleware"
	"github.com/tomtom215/pelorus/internal/models"
	"github.com/tomtom215/pelorus/internal/registry"
	"github.com/tomtom215/pelorus/internal/trackstore"
)

type fakeAggregator struct {
	refreshResult  enrich.Result
	refreshErr     error
	snapshotResult enrich.Result
	lastWindow     ingest.Window
}

func (f *fakeAggregator) Refresh(_ context.Context, win ingest.Window) (enrich.Result, error) {
	f.lastWindow = win
	return f.refreshResult, f.refreshErr
}

func (f *fakeAggregator) Snapshot(_ context.Context) (enrich.Result, error) {
	return f.snapshotResult, nil
}

func testServer(t *testing.T, agg Aggregating) *Server {
	t.Helper()
	db, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
	}
	tracks := trackstore.New(kvstore.New(db, "track:"))
	resolver := registry.New(config.RegistryConfig{}, kvstore.New(db, "imo:"))
	fetcher := compliance.New(config.ComplianceConfig{BatchSize: 100}, kvstore.New(db, "compliance:"))
	return NewServer(cfg, agg, tracks, resolver, fetcher)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestRefreshSuccess(t *testing.T) {
	agg := &fakeAggregator{
		refreshResult: enrich.Result{
			Rows:        []models.EnrichedVesselRow{{MMSI: "123456789"}},
			GeneratedAt: time.Now(),
		},
	}
	s := testServer(t, agg)

	w := doRequest(t, s, http.MethodPost, "/api/v1/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res enrich.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].MMSI != "123456789" {
		t.Errorf("rows: %+v", res.Rows)
	}
}

func TestRefreshPartialStillOK(t *testing.T) {
	// An interrupted feed answers 200 with the partial rows and a warning.
	agg := &fakeAggregator{
		refreshResult: enrich.Result{
			Rows:         []models.EnrichedVesselRow{{MMSI: "1"}},
			IngestFailed: true,
			Warning:      "feed connection interrupted mid-window, results are partial",
		},
	}
	s := testServer(t, agg)

	w := doRequest(t, s, http.MethodPost, "/api/v1/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res enrich.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.IngestFailed || res.Warning == "" {
		t.Errorf("partial result not flagged: %+v", res)
	}
}

func TestRefreshFeedUnavailable(t *testing.T) {
	agg := &fakeAggregator{refreshErr: errors.New("dial feed: connection refused")}
	s := testServer(t, agg)

	w := doRequest(t, s, http.MethodPost, "/api/v1/refresh", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatal(err)
	}
	if er.Error == "" || er.RequestID == "" {
		t.Errorf("error response incomplete: %+v", er)
	}
}

func TestRefreshWithOverrides(t *testing.T) {
	agg := &fakeAggregator{}
	s := testServer(t, agg)

	body := `{"boxes":[{"lat_min":1.0,"lon_min":103.0,"lat_max":1.5,"lon_max":104.0}],"duration_seconds":60}`
	w := doRequest(t, s, http.MethodPost, "/api/v1/refresh", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if agg.lastWindow.Duration != time.Minute {
		t.Errorf("duration = %v", agg.lastWindow.Duration)
	}
	if len(agg.lastWindow.Boxes) != 1 || agg.lastWindow.Boxes[0].LatMax != 1.5 {
		t.Errorf("boxes = %+v", agg.lastWindow.Boxes)
	}
}

func TestRefreshValidation(t *testing.T) {
	s := testServer(t, &fakeAggregator{})

	tests := []struct {
		name string
		body string
	}{
		{"lat out of range", `{"boxes":[{"lat_min":-95,"lon_min":0,"lat_max":1,"lon_max":1}]}`},
		{"inverted box", `{"boxes":[{"lat_min":2,"lon_min":0,"lat_max":1,"lon_max":1}]}`},
		{"excessive duration", `{"duration_seconds":99999}`},
		{"malformed json", `{"boxes":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/api/v1/refresh", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestVesselsSnapshot(t *testing.T) {
	agg := &fakeAggregator{
		snapshotResult: enrich.Result{EmptyFeed: true, Rows: []models.EnrichedVesselRow{}},
	}
	s := testServer(t, agg)

	w := doRequest(t, s, http.MethodGet, "/api/v1/vessels", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res enrich.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.EmptyFeed {
		t.Error("EmptyFeed not carried through")
	}
}

func TestCacheStats(t *testing.T) {
	s := testServer(t, &fakeAggregator{})
	s.tracks.ApplyPosition("1", models.Position{ObservedAt: time.Now()})

	w := doRequest(t, s, http.MethodGet, "/api/v1/cache/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats cacheStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TrackedVessels != 1 {
		t.Errorf("tracked = %d, want 1", stats.TrackedVessels)
	}
}

func TestCacheClear(t *testing.T) {
	s := testServer(t, &fakeAggregator{})
	s.tracks.ApplyPosition("1", models.Position{ObservedAt: time.Now()})

	w := doRequest(t, s, http.MethodDelete, "/api/v1/cache", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if s.tracks.Len() != 0 {
		t.Error("tracks not cleared")
	}

	w = doRequest(t, s, http.MethodDelete, "/api/v1/cache?scope=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus scope: status = %d, want 400", w.Code)
	}
}

func TestCacheClearScoped(t *testing.T) {
	s := testServer(t, &fakeAggregator{})
	s.tracks.ApplyPosition("1", models.Position{ObservedAt: time.Now()})

	w := doRequest(t, s, http.MethodDelete, "/api/v1/cache?scope=compliance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if s.tracks.Len() != 1 {
		t.Error("compliance-scoped clear touched the track store")
	}
}

func TestHealth(t *testing.T) {
	s := testServer(t, &fakeAggregator{})
	w := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, &fakeAggregator{})
	w := doRequest(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("prometheus output missing")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s := testServer(t, &fakeAggregator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "fixed-id")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if got := w.Header().Get(middleware.RequestIDHeader); got != "fixed-id" {
		t.Errorf("request id = %q, want fixed-id", got)
	}

	// Absent inbound header: one is generated.
	w = doRequest(t, s, http.MethodGet, "/health", "")
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("no request id generated")
	}
}
