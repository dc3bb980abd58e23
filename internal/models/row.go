// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package models

import "time"

// RGBA is a display color encoded as [red, green, blue, alpha].
// It marshals to a plain JSON array for direct consumption by map layers.
type RGBA [4]uint8

// EnrichedVesselRow is one row of aggregator output: the track record
// flattened, joined with its compliance record (all fields defaulted to
// StatusUnknown when unscreened), plus the derived display facet. Rows are
// ephemeral - rebuilt from the stores on every aggregation pass.
type EnrichedVesselRow struct {
	MMSI string `json:"mmsi"`
	Name string `json:"name"`
	IMO  string `json:"imo,omitempty"`

	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Speed       float64   `json:"speed"`
	Course      float64   `json:"course"`
	TrueHeading int       `json:"true_heading"`
	LastSeenAt  time.Time `json:"last_seen_at"`

	NavStatus      int    `json:"nav_status"`
	NavStatusLabel string `json:"nav_status_label"`

	TypeCode     int    `json:"type_code,omitempty"`
	TypeCategory string `json:"type_category"`

	DimBow       float64 `json:"dim_bow,omitempty"`
	DimStern     float64 `json:"dim_stern,omitempty"`
	DimPort      float64 `json:"dim_port,omitempty"`
	DimStarboard float64 `json:"dim_starboard,omitempty"`

	Destination string `json:"destination,omitempty"`
	CallSign    string `json:"call_sign,omitempty"`
	HasStatic   bool   `json:"has_static"`

	// Screened is true when a compliance record (including a not-found
	// marker) exists for this vessel's IMO. Unscreened vessels render as
	// "not checked", which is an expected state rather than an error.
	Screened bool `json:"screened"`

	OverallStatus Status `json:"overall_status"`

	// Compliance maps every configured canonical field key to its status;
	// unresolved fields default to StatusUnknown (-1).
	Compliance map[string]int `json:"compliance"`

	FlagName        string `json:"flag_name,omitempty"`
	RegisteredOwner string `json:"registered_owner,omitempty"`

	DisplayColor RGBA `json:"display_color"`

	// FootprintPolygon is a closed ring of [longitude, latitude] points: the
	// vessel's real-world outline rotated by heading and projected locally.
	// First and last point are always equal.
	FootprintPolygon [][2]float64 `json:"footprint_polygon"`
}
