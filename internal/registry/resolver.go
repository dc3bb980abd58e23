// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package registry resolves a vessel's registry identifier (IMO number) from
// its tracking identifier (MMSI) when the feed's static reports never carried
// one. Lookups go to an auxiliary registry service, serially and rate-limited;
// results are cached durably, including negatives, so an undiscoverable
// vessel is not retried on every aggregation pass. An explicit Reset clears
// the whole mapping cache to force retries.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/kvstore"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/metrics"
)

// mapping is one cached resolution. An empty IMO is a cached negative:
// looked up, nothing found, do not retry.
type mapping struct {
	IMO        string    `json:"imo"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// lookupResponse is the registry service's response shape. A missing or empty
// imo field is a valid "no match" response, not an error.
type lookupResponse struct {
	MMSI string `json:"mmsi"`
	IMO  string `json:"imo"`
}

// Resolver resolves MMSIs to IMO numbers with durable caching.
type Resolver struct {
	cfg     config.RegistryConfig
	cache   *kvstore.Store
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Resolver over the given mapping cache.
func New(cfg config.RegistryConfig, cache *kvstore.Store) *Resolver {
	delay := cfg.CallDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Resolver{
		cfg:     cfg,
		cache:   cache,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		now:     time.Now,
	}
}

// ResolveMissing returns the registry identifier for every requested tracking
// identifier. The result always contains one entry per input; an empty string
// means no discoverable IMO (including cached negatives). Cached entries are
// returned without any network call; uncached ones are looked up serially
// with the configured inter-call pacing. Lookup failures are cached as
// negatives - a provider outage degrades to "not checked" rather than
// blocking the pass.
func (r *Resolver) ResolveMissing(ctx context.Context, mmsis []string) map[string]string {
	out := make(map[string]string, len(mmsis))

	for _, mmsi := range mmsis {
		var m mapping
		err := r.cache.Get(mmsi, &m)
		switch {
		case err == nil:
			metrics.RegistryLookups.WithLabelValues("cache_hit").Inc()
			out[mmsi] = m.IMO
			continue
		case !errors.Is(err, kvstore.ErrNotFound):
			logging.Warn().Err(err).Str("mmsi", mmsi).Msg("identifier cache read failed")
		}

		if r.cfg.URL == "" {
			out[mmsi] = ""
			continue
		}

		imo := r.lookup(ctx, mmsi)
		out[mmsi] = imo
		if err := r.cache.Put(mmsi, mapping{IMO: imo, ResolvedAt: r.now()}); err != nil {
			logging.Warn().Err(err).Str("mmsi", mmsi).Msg("identifier cache write failed")
		}
	}
	return out
}

// lookup performs a single registry service call. Returns empty string for
// "no match" responses and for transport failures; both are cacheable
// negatives.
func (r *Resolver) lookup(ctx context.Context, mmsi string) string {
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		return ""
	}

	reqURL := fmt.Sprintf("%s?mmsi=%s", r.cfg.URL, url.QueryEscape(mmsi))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		return ""
	}

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Str("mmsi", mmsi).Msg("registry lookup failed, caching negative")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.RegistryLookups.WithLabelValues("negative").Inc()
		return ""
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		logging.Warn().Int("status", resp.StatusCode).Str("mmsi", mmsi).Msg("registry lookup failed, caching negative")
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		return ""
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		metrics.RegistryLookups.WithLabelValues("error").Inc()
		return ""
	}

	if lr.IMO == "" {
		metrics.RegistryLookups.WithLabelValues("negative").Inc()
		return ""
	}
	metrics.RegistryLookups.WithLabelValues("resolved").Inc()
	return lr.IMO
}

// Reset clears the whole mapping cache, forcing fresh lookups on the next
// pass. This is the only way a cached negative is retried.
func (r *Resolver) Reset() error {
	return r.cache.Clear()
}

// CachedCount reports the number of cached mappings (positive and negative).
func (r *Resolver) CachedCount() (int, error) {
	return r.cache.Count()
}
