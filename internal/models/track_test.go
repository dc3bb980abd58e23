// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package models

import (
	"testing"
	"time"
)

func TestMergeStaticNonRegression(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	rec := &VesselTrackRecord{MMSI: "123456789"}
	rec.MergeStatic(StaticDescriptor{
		Name:      "EVER GIVEN",
		IMO:       "9811000",
		TypeCode:  70,
		DimBow:    200,
		DimStern:  200,
		UpdatedAt: t0,
	})

	// A later report with zero/empty values must not erase known state.
	rec.MergeStatic(StaticDescriptor{
		Destination: "ROTTERDAM",
		UpdatedAt:   t1,
	})

	st := rec.Static
	if st.IMO != "9811000" {
		t.Errorf("IMO regressed to %q", st.IMO)
	}
	if st.Name != "EVER GIVEN" {
		t.Errorf("name regressed to %q", st.Name)
	}
	if st.DimBow != 200 || st.DimStern != 200 {
		t.Errorf("dimensions regressed: bow=%v stern=%v", st.DimBow, st.DimStern)
	}
	if st.Destination != "ROTTERDAM" {
		t.Errorf("meaningful new value not applied: destination=%q", st.Destination)
	}
	if !st.UpdatedAt.Equal(t1) {
		t.Errorf("UpdatedAt not advanced: %v", st.UpdatedAt)
	}
}

func TestMergeStaticLastWriterWinsForMeaningfulValues(t *testing.T) {
	rec := &VesselTrackRecord{MMSI: "123456789"}
	rec.MergeStatic(StaticDescriptor{Name: "OLD NAME", TypeCode: 60})
	rec.MergeStatic(StaticDescriptor{Name: "NEW NAME", TypeCode: 70})

	if rec.Static.Name != "NEW NAME" {
		t.Errorf("Name = %q, want NEW NAME", rec.Static.Name)
	}
	if rec.Static.TypeCode != 70 {
		t.Errorf("TypeCode = %d, want 70", rec.Static.TypeCode)
	}
}

func TestApplyPositionOverwritesInFull(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rec := &VesselTrackRecord{MMSI: "123456789"}

	rec.ApplyPosition(Position{Latitude: 1.25, Longitude: 103.8, SpeedOverGround: 12, ObservedAt: t0})
	rec.ApplyPosition(Position{Latitude: 1.26, Longitude: 103.9, ObservedAt: t0.Add(time.Minute)})

	if rec.LatestPosition.SpeedOverGround != 0 {
		t.Errorf("stale speed survived full overwrite: %v", rec.LatestPosition.SpeedOverGround)
	}
	if rec.LatestPosition.Latitude != 1.26 {
		t.Errorf("Latitude = %v, want 1.26", rec.LatestPosition.Latitude)
	}
	if !rec.LastSeenAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("LastSeenAt = %v", rec.LastSeenAt)
	}
}

func TestCloneIsDeep(t *testing.T) {
	rec := &VesselTrackRecord{MMSI: "1"}
	rec.ApplyPosition(Position{Latitude: 1})
	rec.MergeStatic(StaticDescriptor{Name: "A"})

	cp := rec.Clone()
	cp.LatestPosition.Latitude = 99
	cp.Static.Name = "B"

	if rec.LatestPosition.Latitude != 1 || rec.Static.Name != "A" {
		t.Error("clone shares state with the original")
	}
}

func TestStaticFromReportZeroIMO(t *testing.T) {
	sd := &ShipStaticData{UserID: 123456789, ImoNumber: 0, Name: "TEST @@@"}
	st := StaticFromReport(sd, time.Now())
	if st.IMO != "" {
		t.Errorf("ImoNumber 0 must map to empty IMO, got %q", st.IMO)
	}
	if st.Name != "TEST" {
		t.Errorf("padding not trimmed: %q", st.Name)
	}
}

func TestTrimName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"EVER GIVEN@@@@", "EVER GIVEN"},
		{"  PADDED  ", "PADDED"},
		{"@@@", ""},
		{"", ""},
		{"NO PADDING", "NO PADDING"},
	}
	for _, tt := range tests {
		if got := trimName(tt.in); got != tt.want {
			t.Errorf("trimName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusUnknown, "unknown"},
		{StatusOK, "ok"},
		{StatusWarning, "warning"},
		{StatusSevere, "severe"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
