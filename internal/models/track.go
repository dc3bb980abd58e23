// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package models

import (
	"strconv"
	"time"
)

// Position is the latest observed kinematic state of a vessel.
type Position struct {
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	SpeedOverGround  float64   `json:"speed_over_ground"`
	CourseOverGround float64   `json:"course_over_ground"`
	TrueHeading      int       `json:"true_heading"`
	NavStatus        int       `json:"nav_status"`
	ReportedName     string    `json:"reported_name,omitempty"`
	ObservedAt       time.Time `json:"observed_at"`
}

// StaticDescriptor is the merged static/voyage state of a vessel.
// IMO is empty when the vessel has never reported a registry number
// (ImoNumber 0 on the wire means unknown).
type StaticDescriptor struct {
	Name         string    `json:"name,omitempty"`
	IMO          string    `json:"imo,omitempty"`
	TypeCode     int       `json:"type_code,omitempty"`
	DimBow       float64   `json:"dim_bow,omitempty"`
	DimStern     float64   `json:"dim_stern,omitempty"`
	DimPort      float64   `json:"dim_port,omitempty"`
	DimStarboard float64   `json:"dim_starboard,omitempty"`
	Destination  string    `json:"destination,omitempty"`
	CallSign     string    `json:"call_sign,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VesselTrackRecord is the accumulated state for one tracked vessel, keyed by
// MMSI. It is created on the first message for an unseen MMSI and mutated in
// place on every subsequent one.
type VesselTrackRecord struct {
	MMSI           string            `json:"mmsi"`
	LatestPosition *Position         `json:"latest_position,omitempty"`
	Static         *StaticDescriptor `json:"static_descriptor,omitempty"`
	LastSeenAt     time.Time         `json:"last_seen_at"`
}

// ApplyPosition overwrites the latest position in full and advances the
// last-seen timestamp.
func (r *VesselTrackRecord) ApplyPosition(p Position) {
	pos := p
	r.LatestPosition = &pos
	r.LastSeenAt = p.ObservedAt
}

// MergeStatic merges a static report into the record. A known non-zero
// dimension, non-empty IMO, or other non-empty field is never regressed by an
// incoming zero/empty value; last-writer-wins applies only when the incoming
// value is itself meaningful.
func (r *VesselTrackRecord) MergeStatic(s StaticDescriptor) {
	if r.Static == nil {
		cp := s
		r.Static = &cp
		return
	}

	dst := r.Static
	if s.Name != "" {
		dst.Name = s.Name
	}
	if s.IMO != "" {
		dst.IMO = s.IMO
	}
	if s.TypeCode != 0 {
		dst.TypeCode = s.TypeCode
	}
	if s.DimBow != 0 {
		dst.DimBow = s.DimBow
	}
	if s.DimStern != 0 {
		dst.DimStern = s.DimStern
	}
	if s.DimPort != 0 {
		dst.DimPort = s.DimPort
	}
	if s.DimStarboard != 0 {
		dst.DimStarboard = s.DimStarboard
	}
	if s.Destination != "" {
		dst.Destination = s.Destination
	}
	if s.CallSign != "" {
		dst.CallSign = s.CallSign
	}
	dst.UpdatedAt = s.UpdatedAt
}

// Clone returns a deep copy of the record. Stores hand out clones so callers
// can never mutate shared state.
func (r *VesselTrackRecord) Clone() VesselTrackRecord {
	cp := *r
	if r.LatestPosition != nil {
		pos := *r.LatestPosition
		cp.LatestPosition = &pos
	}
	if r.Static != nil {
		st := *r.Static
		cp.Static = &st
	}
	return cp
}

// RegistryID returns the vessel's IMO number, or empty when unknown.
func (r *VesselTrackRecord) RegistryID() string {
	if r.Static == nil {
		return ""
	}
	return r.Static.IMO
}

// StaticFromReport converts a wire-format static report into a descriptor.
// An ImoNumber of 0 maps to the empty string (registry number unknown).
func StaticFromReport(s *ShipStaticData, at time.Time) StaticDescriptor {
	imo := ""
	if s.ImoNumber != 0 {
		imo = strconv.FormatInt(s.ImoNumber, 10)
	}
	return StaticDescriptor{
		Name:         trimName(s.Name),
		IMO:          imo,
		TypeCode:     s.Type,
		DimBow:       s.Dimension.A,
		DimStern:     s.Dimension.B,
		DimPort:      s.Dimension.C,
		DimStarboard: s.Dimension.D,
		Destination:  trimName(s.Destination),
		CallSign:     trimName(s.CallSign),
		UpdatedAt:    at,
	}
}

// PositionFromReport converts a wire-format position report into a Position.
func PositionFromReport(p *PositionReport, reportedName string, at time.Time) Position {
	return Position{
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		SpeedOverGround:  p.Sog,
		CourseOverGround: p.Cog,
		TrueHeading:      p.TrueHeading,
		NavStatus:        p.NavigationalStatus,
		ReportedName:     trimName(reportedName),
		ObservedAt:       at,
	}
}

// trimName strips the trailing padding AIS transponders emit in text fields.
func trimName(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '@') {
		end--
	}
	start := 0
	for start < end && s[start] == ' ' {
		start++
	}
	return s[start:end]
}
