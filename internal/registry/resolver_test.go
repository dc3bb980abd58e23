// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/kvstore"
)

func testCache(t *testing.T) *kvstore.Store {
	t.Helper()
	db, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return kvstore.New(db, "imo:")
}

func newResolver(t *testing.T, url string) *Resolver {
	t.Helper()
	return New(config.RegistryConfig{
		URL:       url,
		Timeout:   5 * time.Second,
		CallDelay: time.Millisecond,
	}, testCache(t))
}

func TestResolveMissingCachesPositives(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		mmsi := r.URL.Query().Get("mmsi")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mmsi":"` + mmsi + `","imo":"9000001"}`))
	}))
	defer srv.Close()

	r := newResolver(t, srv.URL)
	ctx := context.Background()

	got := r.ResolveMissing(ctx, []string{"123456789"})
	if got["123456789"] != "9000001" {
		t.Fatalf("resolved = %q, want 9000001", got["123456789"])
	}

	// Second pass must be served entirely from cache.
	got = r.ResolveMissing(ctx, []string{"123456789"})
	if got["123456789"] != "9000001" {
		t.Fatalf("cached = %q", got["123456789"])
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("service called %d times, want 1", n)
	}
}

func TestResolveMissingCachesNegatives(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := newResolver(t, srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got := r.ResolveMissing(ctx, []string{"999999999"})
		if got["999999999"] != "" {
			t.Fatalf("pass %d: got %q, want empty", i, got["999999999"])
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("negative not cached: %d calls, want 1", n)
	}
}

func TestResolveMissingEmptyIMOIsNegative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"mmsi":"123","imo":""}`))
	}))
	defer srv.Close()

	r := newResolver(t, srv.URL)
	got := r.ResolveMissing(context.Background(), []string{"123"})
	if got["123"] != "" {
		t.Errorf("empty-imo response must resolve to empty, got %q", got["123"])
	}
}

func TestResolveMissingNoURLConfigured(t *testing.T) {
	r := newResolver(t, "")
	got := r.ResolveMissing(context.Background(), []string{"1", "2"})
	if len(got) != 2 || got["1"] != "" || got["2"] != "" {
		t.Errorf("unexpected result without a service: %+v", got)
	}
	// Nothing cached: identifiers stay eligible once a service is configured.
	if n, err := r.CachedCount(); err != nil || n != 0 {
		t.Errorf("CachedCount = %d, %v", n, err)
	}
}

func TestResetForcesRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := newResolver(t, srv.URL)
	ctx := context.Background()

	r.ResolveMissing(ctx, []string{"111111111"})
	if err := r.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	r.ResolveMissing(ctx, []string{"111111111"})

	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2 after reset", n)
	}
}

func TestLookupFailureCachedAsNegative(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newResolver(t, srv.URL)
	ctx := context.Background()

	r.ResolveMissing(ctx, []string{"222222222"})
	r.ResolveMissing(ctx, []string{"222222222"})
	if n := calls.Load(); n != 1 {
		t.Errorf("failed lookup retried within cache lifetime: %d calls", n)
	}
}
