// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package enrich turns accumulated vessel state into display-ready rows:
// resolve missing registry identifiers, join compliance screening results,
// derive the display facet (category, nav-status label, color, footprint
// polygon). Aggregation is a pure read of the stores plus the two external
// resolvers; it never mutates track state.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/ingest"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/metrics"
	"github.com/tomtom215/pelorus/internal/models"
	"github.com/tomtom215/pelorus/internal/trackstore"
)

// Ingester opens a collection window into the track store.
type Ingester interface {
	Collect(ctx context.Context, win ingest.Window) error
}

// Resolver maps tracking identifiers to registry identifiers.
type Resolver interface {
	ResolveMissing(ctx context.Context, mmsis []string) map[string]string
}

// Screener returns compliance records for registry identifiers.
type Screener interface {
	GetCompliance(ctx context.Context, imos []string) (map[string]models.ComplianceRecord, error)
}

// Aggregator drives the full enrichment pass.
type Aggregator struct {
	tracks   *trackstore.Store
	ingester Ingester
	resolver Resolver
	screener Screener
	cfg      *config.Config
	now      func() time.Time
}

// New creates an Aggregator over the given stores and resolvers.
func New(tracks *trackstore.Store, ing Ingester, res Resolver, scr Screener, cfg *config.Config) *Aggregator {
	return &Aggregator{
		tracks:   tracks,
		ingester: ing,
		resolver: res,
		screener: scr,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Result is one aggregation pass: the rows plus enough status for callers to
// tell "empty region" from "feed died mid-window" from "screening degraded".
type Result struct {
	Rows []models.EnrichedVesselRow `json:"rows"`

	// IngestFailed is true when the feed connection dropped before the
	// collection window elapsed. Rows still reflect everything collected
	// before the drop plus prior snapshot state.
	IngestFailed bool `json:"ingest_failed,omitempty"`

	// Warning carries a human-readable degradation note (interrupted feed,
	// partial screening). Empty on a fully clean pass.
	Warning string `json:"warning,omitempty"`

	// EmptyFeed is true when the pass produced zero rows: nothing tracked
	// within the expiry horizon. Valid output for a quiet region, not an
	// error.
	EmptyFeed bool `json:"empty_feed"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Refresh runs a collection window and then aggregates. An interrupted feed
// degrades to a flagged partial result; only a feed that could not be opened
// at all is a hard error. The track store is snapshotted after collection so
// a later Snapshot call or process restart reuses the collected state.
func (a *Aggregator) Refresh(ctx context.Context, win ingest.Window) (Result, error) {
	interrupted := false
	if err := a.ingester.Collect(ctx, win); err != nil {
		if !errors.Is(err, ingest.ErrFeedInterrupted) {
			return Result{}, fmt.Errorf("open feed: %w", err)
		}
		interrupted = true
		logging.Warn().Err(err).Msg("collection window interrupted, aggregating partial data")
	}

	if err := a.tracks.Save(); err != nil {
		logging.Warn().Err(err).Msg("snapshot save failed, continuing with in-memory state")
	}

	res, err := a.aggregate(ctx)
	if err != nil {
		return res, err
	}
	if interrupted {
		res.IngestFailed = true
		res.Warning = joinWarnings("feed connection interrupted mid-window, results are partial", res.Warning)
	}
	return res, nil
}

// Snapshot aggregates the current store state without opening the feed.
func (a *Aggregator) Snapshot(ctx context.Context) (Result, error) {
	return a.aggregate(ctx)
}

func (a *Aggregator) aggregate(ctx context.Context) (Result, error) {
	start := a.now()
	defer func() {
		metrics.AggregationDuration.Observe(a.now().Sub(start).Seconds())
	}()

	records := a.tracks.Records(start, a.cfg.Track.Expiry)
	res := Result{GeneratedAt: start}

	// Resolve missing registry identifiers for vessels whose static reports
	// never carried one. Vessels without any position yet are still resolved;
	// they just produce no row this pass.
	var missing []string
	for i := range records {
		if records[i].RegistryID() == "" {
			missing = append(missing, records[i].MMSI)
		}
	}
	resolved := map[string]string{}
	if len(missing) > 0 && a.resolver != nil {
		resolved = a.resolver.ResolveMissing(ctx, missing)
	}

	imoOf := func(rec *models.VesselTrackRecord) string {
		if imo := rec.RegistryID(); imo != "" {
			return imo
		}
		return resolved[rec.MMSI]
	}

	imoSet := make(map[string]bool)
	var imos []string
	for i := range records {
		if imo := imoOf(&records[i]); imo != "" && !imoSet[imo] {
			imoSet[imo] = true
			imos = append(imos, imo)
		}
	}

	screening := map[string]models.ComplianceRecord{}
	if len(imos) > 0 && a.screener != nil {
		var err error
		screening, err = a.screener.GetCompliance(ctx, imos)
		if err != nil {
			res.Warning = "compliance screening partially unavailable, some vessels shown unscreened"
			logging.Warn().Err(err).Msg("compliance screening degraded")
		}
	}

	rows := make([]models.EnrichedVesselRow, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.LatestPosition == nil {
			continue
		}
		comp, screened := screening[imoOf(rec)]
		rows = append(rows, a.buildRow(rec, imoOf(rec), comp, screened))
	}

	res.Rows = rows
	res.EmptyFeed = len(rows) == 0
	metrics.AggregationRows.Set(float64(len(rows)))
	logging.Info().
		Int("rows", len(rows)).
		Int("tracked", len(records)).
		Int("screened_imos", len(imos)).
		Dur("elapsed", a.now().Sub(start)).
		Msg("aggregation pass complete")
	return res, nil
}

// buildRow flattens one track record and joins its compliance record.
func (a *Aggregator) buildRow(rec *models.VesselTrackRecord, imo string, comp models.ComplianceRecord, found bool) models.EnrichedVesselRow {
	pos := rec.LatestPosition

	row := models.EnrichedVesselRow{
		MMSI:        rec.MMSI,
		IMO:         imo,
		Latitude:    pos.Latitude,
		Longitude:   pos.Longitude,
		Speed:       pos.SpeedOverGround,
		Course:      pos.CourseOverGround,
		TrueHeading: pos.TrueHeading,
		LastSeenAt:  rec.LastSeenAt,

		NavStatus:      pos.NavStatus,
		NavStatusLabel: NavStatusLabel(pos.NavStatus),

		OverallStatus: models.StatusUnknown,
		Compliance:    make(map[string]int, len(a.cfg.Compliance.Fields)),
	}

	// Every configured check is present on every row; unresolved checks read
	// as StatusUnknown so consumers never need existence tests.
	for canonical := range a.cfg.Compliance.Fields {
		row.Compliance[canonical] = int(models.StatusUnknown)
	}

	if rec.Static != nil {
		st := rec.Static
		row.Name = st.Name
		row.TypeCode = st.TypeCode
		row.DimBow = st.DimBow
		row.DimStern = st.DimStern
		row.DimPort = st.DimPort
		row.DimStarboard = st.DimStarboard
		row.Destination = st.Destination
		row.CallSign = st.CallSign
		row.HasStatic = true
	}
	if row.Name == "" {
		row.Name = pos.ReportedName
	}

	if found && !comp.NotFound {
		row.Screened = true
		row.OverallStatus = comp.Overall
		for canonical, v := range comp.Fields {
			row.Compliance[canonical] = v
		}
		row.FlagName = comp.FlagName
		row.RegisteredOwner = comp.RegisteredOwner
		if row.Name == "" {
			row.Name = comp.ShipName
		}
	}

	row.TypeCategory = TypeCategory(row.TypeCode)
	row.DisplayColor = DisplayColor(row.OverallStatus, row.TypeCategory)

	// An unavailable heading (511) falls back to course over ground so the
	// footprint still points the way the vessel is moving.
	heading := float64(pos.TrueHeading)
	if pos.TrueHeading == models.HeadingUnavailable {
		heading = pos.CourseOverGround
	}
	row.FootprintPolygon = Footprint(
		pos.Latitude, pos.Longitude,
		row.DimBow, row.DimStern, row.DimPort, row.DimStarboard,
		heading, a.cfg.Display,
	)
	return row
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}
