// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package compliance screens registry identifiers against the compliance
// provider and caches the results durably. The cache - including explicit
// "checked, not found" markers - is the contract that keeps a fleet-sized
// region from hammering the provider: a cached identifier is never re-queried
// within the cache lifetime.
//
// Provider calls are batched to the provider-imposed chunk size, paced with a
// courtesy delay, bounded by a per-call timeout, and wrapped in a circuit
// breaker so a provider outage degrades the pass to cached/unscreened rows
// instead of stalling it.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/kvstore"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/metrics"
	"github.com/tomtom215/pelorus/internal/models"
)

const breakerName = "compliance-provider"

// Fetcher fetches and caches compliance records.
type Fetcher struct {
	cfg     config.ComplianceConfig
	cache   *kvstore.Store
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]models.ComplianceRecord]
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Fetcher over the given record cache.
func New(cfg config.ComplianceConfig, cache *kvstore.Store) *Fetcher {
	delay := cfg.ChunkDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.ComplianceRecord](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Fetcher{
		cfg:     cfg,
		cache:   cache,
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		now:     time.Now,
	}
}

// GetCompliance returns a ComplianceRecord for every requested registry
// identifier it can resolve. Cached records (including not-found markers) are
// served without network calls; the remainder is fetched in provider-sized
// chunks. A chunk failure is logged, surfaced in the returned error, and does
// not abort the remaining chunks - partial results are always retained.
func (f *Fetcher) GetCompliance(ctx context.Context, imos []string) (map[string]models.ComplianceRecord, error) {
	out := make(map[string]models.ComplianceRecord, len(imos))
	var uncached []string

	for _, imo := range dedupe(imos) {
		var rec models.ComplianceRecord
		err := f.cache.Get(imo, &rec)
		switch {
		case err == nil:
			metrics.ComplianceCacheHits.Inc()
			out[imo] = rec
		case errors.Is(err, kvstore.ErrNotFound):
			metrics.ComplianceCacheMisses.Inc()
			uncached = append(uncached, imo)
		default:
			logging.Warn().Err(err).Str("imo", imo).Msg("compliance cache read failed")
			uncached = append(uncached, imo)
		}
	}

	// No provider configured: cached data is all there is. Identifiers are
	// left unmarked so they are fetched once a provider is configured.
	if len(uncached) == 0 || f.cfg.URL == "" {
		return out, nil
	}

	var firstErr error
	for _, chunk := range chunks(uncached, f.cfg.BatchSize) {
		if err := f.limiter.Wait(ctx); err != nil {
			return out, err
		}

		records, err := f.cb.Execute(func() ([]models.ComplianceRecord, error) {
			return f.fetchChunk(ctx, chunk)
		})
		if err != nil {
			outcome := "failure"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				outcome = "rejected"
			}
			metrics.ComplianceProviderCalls.WithLabelValues(outcome).Inc()
			logging.Warn().Err(err).Int("chunk_size", len(chunk)).Msg("compliance chunk failed, continuing with remaining chunks")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.ComplianceProviderCalls.WithLabelValues("success").Inc()

		returned := make(map[string]bool, len(records))
		for _, rec := range records {
			returned[rec.IMO] = true
			out[rec.IMO] = rec
			if err := f.cache.Put(rec.IMO, rec); err != nil {
				logging.Warn().Err(err).Str("imo", rec.IMO).Msg("compliance cache write failed")
			}
		}

		// Identifiers the provider was successfully asked about but did not
		// return are marked not-found so they are never re-queried this
		// cache lifetime. Failed chunks are deliberately not marked: those
		// identifiers were never actually screened.
		for _, imo := range chunk {
			if returned[imo] {
				continue
			}
			marker := models.ComplianceRecord{
				IMO:       imo,
				Overall:   models.StatusUnknown,
				FetchedAt: f.now(),
				NotFound:  true,
			}
			out[imo] = marker
			if err := f.cache.Put(imo, marker); err != nil {
				logging.Warn().Err(err).Str("imo", imo).Msg("compliance cache write failed")
			}
		}
	}

	return out, firstErr
}

// fetchChunk performs one provider call and parses every returned item.
func (f *Fetcher) fetchChunk(ctx context.Context, imos []string) ([]models.ComplianceRecord, error) {
	reqURL := fmt.Sprintf("%s?imoNumbers=%s", f.cfg.URL, url.QueryEscape(strings.Join(imos, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if f.cfg.Username != "" {
		req.SetBasicAuth(f.cfg.Username, f.cfg.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compliance provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("compliance provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read compliance response: %w", err)
	}

	items, err := f.decodeItems(body)
	if err != nil {
		return nil, err
	}

	now := f.now()
	records := make([]models.ComplianceRecord, 0, len(items))
	for _, item := range items {
		if rec, ok := parseItem(item, &f.cfg, now); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// decodeItems tolerates the wrapper shapes the provider has shipped over the
// years: a bare list, a list under the configured result field, or a single
// bare object.
func (f *Fetcher) decodeItems(body []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode compliance response list: %w", err)
		}
		return items, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decode compliance response: %w", err)
	}

	if f.cfg.ResultField != "" {
		if raw, ok := obj[f.cfg.ResultField]; ok {
			var items []map[string]any
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decode %s list: %w", f.cfg.ResultField, err)
			}
			return items, nil
		}
	}

	// No wrapper: the object is itself a single record.
	var item map[string]any
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode compliance response item: %w", err)
	}
	return []map[string]any{item}, nil
}

// Clear drops every cached record, forcing re-screening on the next pass.
func (f *Fetcher) Clear() error {
	return f.cache.Clear()
}

// CachedCount reports the number of cached records (including not-found
// markers).
func (f *Fetcher) CachedCount() (int, error) {
	return f.cache.Count()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func chunks(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
