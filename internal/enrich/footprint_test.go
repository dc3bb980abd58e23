// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package enrich

import (
	"math"
	"testing"

	"github.com/tomtom215/pelorus/internal/config"
)

var testDisplay = config.DisplayConfig{
	FallbackLength: 30,
	FallbackBeam:   8,
	ScaleFactor:    1.0,
}

func TestFootprintClosedRing(t *testing.T) {
	headings := []float64{0, 45, 90, 135, 180, 270, 359}
	dims := [][4]float64{
		{100, 20, 10, 10},
		{0, 0, 0, 0}, // fallback hull
		{5, 5, 2, 2},
	}
	for _, h := range headings {
		for _, d := range dims {
			ring := Footprint(1.3, 103.8, d[0], d[1], d[2], d[3], h, testDisplay)
			if len(ring) != 5 {
				t.Fatalf("heading %v dims %v: ring has %d points, want 5", h, d, len(ring))
			}
			if ring[0] != ring[len(ring)-1] {
				t.Errorf("heading %v dims %v: ring not closed: %v != %v", h, d, ring[0], ring[len(ring)-1])
			}
		}
	}
}

func TestFootprintHeadingZeroPointsNorth(t *testing.T) {
	// Bow 100m, stern 20m, heading north: the two bow corners sit north of
	// the antenna, the stern corners south, and the ring is centered on lon.
	ring := Footprint(1.3, 103.8, 100, 20, 10, 10, 0, testDisplay)

	wantNorth := 1.3 + 100/metersPerDegreeLat
	if math.Abs(ring[0][1]-wantNorth) > 1e-9 || math.Abs(ring[1][1]-wantNorth) > 1e-9 {
		t.Errorf("bow corners at lat %v / %v, want %v", ring[0][1], ring[1][1], wantNorth)
	}
	wantSouth := 1.3 - 20/metersPerDegreeLat
	if math.Abs(ring[2][1]-wantSouth) > 1e-9 {
		t.Errorf("stern corner at lat %v, want %v", ring[2][1], wantSouth)
	}
}

func TestFootprintHeading90PointsEast(t *testing.T) {
	// Rotated 90 degrees clockwise the bow offset becomes an eastward
	// longitude offset.
	ring := Footprint(1.3, 103.8, 100, 20, 10, 10, 90, testDisplay)

	lonScale := metersPerDegreeLat * math.Cos(1.3*math.Pi/180)
	wantEast := 103.8 + 100/lonScale
	if math.Abs(ring[0][0]-wantEast) > 1e-9 {
		t.Errorf("bow corner at lon %v, want %v", ring[0][0], wantEast)
	}
	// Bow corners must now sit at latitudes offset only by the beam.
	wantLat := 1.3 + 10/metersPerDegreeLat
	if math.Abs(ring[0][1]-wantLat) > 1e-9 {
		t.Errorf("bow port corner at lat %v, want %v", ring[0][1], wantLat)
	}
}

func TestFootprintFallbackDimensions(t *testing.T) {
	ring := Footprint(1.3, 103.8, 0, 0, 0, 0, 0, testDisplay)

	// Fallback hull: length 30 split evenly, so bow corner is 15m north.
	want := 1.3 + 15/metersPerDegreeLat
	if math.Abs(ring[0][1]-want) > 1e-9 {
		t.Errorf("fallback bow at lat %v, want %v", ring[0][1], want)
	}
}

func TestFootprintScaleFactor(t *testing.T) {
	display := testDisplay
	display.ScaleFactor = 2.0
	ring := Footprint(1.3, 103.8, 100, 20, 10, 10, 0, display)

	want := 1.3 + 200/metersPerDegreeLat
	if math.Abs(ring[0][1]-want) > 1e-9 {
		t.Errorf("scaled bow at lat %v, want %v", ring[0][1], want)
	}
}

func TestFootprintPartialDimensionsNotFallback(t *testing.T) {
	// A single non-zero dimension means the vessel did report; fallback must
	// not kick in.
	ring := Footprint(1.3, 103.8, 50, 0, 0, 0, 0, testDisplay)
	want := 1.3 + 50/metersPerDegreeLat
	if math.Abs(ring[0][1]-want) > 1e-9 {
		t.Errorf("bow at lat %v, want %v", ring[0][1], want)
	}
	// Stern corners collapse onto the antenna latitude.
	if math.Abs(ring[2][1]-1.3) > 1e-9 {
		t.Errorf("stern at lat %v, want 1.3", ring[2][1])
	}
}
