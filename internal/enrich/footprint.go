// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package enrich

import (
	"math"

	"github.com/tomtom215/pelorus/internal/config"
)

// metersPerDegreeLat is the equirectangular approximation used to project
// footprint offsets from meters to degrees. Longitude degrees shrink with
// cos(latitude); both are accurate to well under a meter at footprint scale.
const metersPerDegreeLat = 111320.0

// Footprint builds the vessel's outline as a closed ring of
// [longitude, latitude] points: the reported bow/stern/port/starboard offsets
// (falling back to the configured default hull when all four are zero),
// scaled by the display scale factor, rotated by headingDeg clockwise from
// north, and projected around the antenna position. The first point is always
// repeated as the last.
func Footprint(lat, lon, bow, stern, port, starboard, headingDeg float64, display config.DisplayConfig) [][2]float64 {
	if bow == 0 && stern == 0 && port == 0 && starboard == 0 {
		bow = display.FallbackLength / 2
		stern = display.FallbackLength / 2
		port = display.FallbackBeam / 2
		starboard = display.FallbackBeam / 2
	}

	scale := display.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	bow *= scale
	stern *= scale
	port *= scale
	starboard *= scale

	// Hull corners in the ship frame: x to starboard, y toward the bow.
	corners := [4][2]float64{
		{-port, bow},
		{starboard, bow},
		{starboard, -stern},
		{-port, -stern},
	}

	theta := headingDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	latRad := lat * math.Pi / 180
	lonScale := metersPerDegreeLat * math.Cos(latRad)
	if math.Abs(lonScale) < 1e-9 {
		// Degenerate at the poles; keep the projection finite.
		lonScale = 1e-9
	}

	ring := make([][2]float64, 0, len(corners)+1)
	for _, c := range corners {
		// Clockwise rotation from north: ship +y maps onto the heading.
		east := c[0]*cos + c[1]*sin
		north := -c[0]*sin + c[1]*cos
		ring = append(ring, [2]float64{
			lon + east/lonScale,
			lat + north/metersPerDegreeLat,
		})
	}
	return append(ring, ring[0])
}
