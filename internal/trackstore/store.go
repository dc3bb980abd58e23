// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package trackstore holds the accumulated per-vessel state fed by the stream
// ingester: an in-memory MMSI-keyed map with merge-on-arrival semantics and a
// durable snapshot so a later aggregation pass can reuse collected state
// without re-opening the feed.
package trackstore

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pelorus/internal/kvstore"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/metrics"
	"github.com/tomtom215/pelorus/internal/models"
)

// Store is the vessel state store. All methods are safe for concurrent use;
// the ingester is the only writer during a collection window but readers may
// aggregate concurrently.
type Store struct {
	mu      sync.RWMutex
	vessels map[string]*models.VesselTrackRecord
	persist *kvstore.Store
}

// New creates an empty store backed by the given snapshot persistence.
func New(persist *kvstore.Store) *Store {
	return &Store{
		vessels: make(map[string]*models.VesselTrackRecord),
		persist: persist,
	}
}

// ApplyPosition records a position report for mmsi, creating the record on
// first sight. The position always overwrites in full.
func (s *Store) ApplyPosition(mmsi string, pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(mmsi)
	rec.ApplyPosition(pos)
	metrics.TrackedVessels.Set(float64(len(s.vessels)))
}

// MergeStatic merges a static report for mmsi under the non-regression rule:
// known non-zero dimensions and a non-empty IMO survive an incoming
// zero/empty value.
func (s *Store) MergeStatic(mmsi string, static models.StaticDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(mmsi)
	rec.MergeStatic(static)
	metrics.TrackedVessels.Set(float64(len(s.vessels)))
}

// record returns the record for mmsi, creating it if unseen (mu held).
func (s *Store) record(mmsi string) *models.VesselTrackRecord {
	rec, ok := s.vessels[mmsi]
	if !ok {
		rec = &models.VesselTrackRecord{MMSI: mmsi}
		s.vessels[mmsi] = rec
	}
	return rec
}

// Get returns a copy of the record for mmsi.
func (s *Store) Get(mmsi string) (models.VesselTrackRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.vessels[mmsi]
	if !ok {
		return models.VesselTrackRecord{}, false
	}
	return rec.Clone(), true
}

// Records returns copies of all records last seen within expiry of now.
// A zero expiry disables the filter and returns everything.
func (s *Store) Records(now time.Time, expiry time.Duration) []models.VesselTrackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.VesselTrackRecord, 0, len(s.vessels))
	for _, rec := range s.vessels {
		if expiry > 0 && now.Sub(rec.LastSeenAt) > expiry {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}

// Len returns the number of tracked vessels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vessels)
}

// Load restores the persisted snapshot into memory. A missing or partially
// corrupt snapshot is not an error: unreadable entries are skipped and the
// store starts from whatever survived.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	skipped := 0
	err := s.persist.Each(func(key string, raw []byte) error {
		var rec models.VesselTrackRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			return nil
		}
		rec.MMSI = key
		s.vessels[key] = &rec
		return nil
	})
	if err != nil {
		return err
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("snapshot entries unreadable, treated as absent")
	}
	metrics.TrackedVessels.Set(float64(len(s.vessels)))
	return nil
}

// Save persists the current state as the reusable snapshot. Entries are
// written individually; a failed write leaves the previous value of that key
// intact for the next load.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var firstErr error
	for mmsi, rec := range s.vessels {
		if err := s.persist.Put(mmsi, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Clear empties both the in-memory state and the persisted snapshot.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vessels = make(map[string]*models.VesselTrackRecord)
	metrics.TrackedVessels.Set(0)
	if err := s.persist.Clear(); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}
	return nil
}

// PersistedCount reports how many snapshot entries are on disk.
func (s *Store) PersistedCount() (int, error) {
	return s.persist.Count()
}
