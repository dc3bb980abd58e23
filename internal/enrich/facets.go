// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package enrich

import "github.com/tomtom215/pelorus/internal/models"

// Display facet tables. The range boundaries and the nav-status enumeration
// come from the AIS standard and are exercised boundary-by-boundary in tests;
// a change here changes what operators see on the map.

// typeRange maps an inclusive AIS type-code range to a category.
type typeRange struct {
	lo, hi   int
	category string
}

var typeRanges = []typeRange{
	{52, 52, "Tug"},
	{60, 69, "Passenger"},
	{70, 79, "Cargo"},
	{80, 89, "Tanker"},
}

// TypeCategory maps an AIS ship-type code to a coarse display category.
// Zero (never reported) maps to "Unknown"; any other unmapped code to
// "Other".
func TypeCategory(code int) string {
	if code == 0 {
		return "Unknown"
	}
	for _, r := range typeRanges {
		if code >= r.lo && code <= r.hi {
			return r.category
		}
	}
	return "Other"
}

// navStatusLabels is the 16-value AIS navigational status enumeration.
// Codes 9-13 are reserved by the standard; 15 means the transponder reported
// no status at all.
var navStatusLabels = [16]string{
	0:  "Under way using engine",
	1:  "At anchor",
	2:  "Not under command",
	3:  "Restricted manoeuverability",
	4:  "Constrained by her draught",
	5:  "Moored",
	6:  "Aground",
	7:  "Engaged in fishing",
	8:  "Under way sailing",
	9:  "Reserved",
	10: "Reserved",
	11: "Reserved",
	12: "Reserved",
	13: "Reserved",
	14: "AIS-SART active",
	15: "Not defined",
}

// NavStatusLabel maps a navigational status code to its display label.
// Out-of-range codes collapse to "Not defined".
func NavStatusLabel(code int) string {
	if code < 0 || code > 15 {
		return "Not defined"
	}
	return navStatusLabels[code]
}

// Status colors override type colors whenever screening produced a known
// result; the type palette only shows through for unscreened vessels.
var (
	colorSevere  = models.RGBA{255, 0, 0, 220}     // red
	colorWarning = models.RGBA{255, 165, 0, 220}   // amber
	colorOK      = models.RGBA{0, 255, 0, 180}     // green
	colorNeutral = models.RGBA{128, 128, 128, 180} // gray

	typeColors = map[string]models.RGBA{
		"Passenger": {0, 0, 255, 180},
		"Cargo":     {100, 200, 100, 180},
		"Tanker":    {139, 0, 139, 180},
		"Tug":       {128, 128, 0, 180},
	}
)

// DisplayColor derives the row color. For any known overall status the color
// is a pure function of the status alone; only StatusUnknown falls back to
// the type-category palette, and vessels with no usable category render
// neutral gray.
func DisplayColor(overall models.Status, typeCategory string) models.RGBA {
	switch overall {
	case models.StatusSevere:
		return colorSevere
	case models.StatusWarning:
		return colorWarning
	case models.StatusOK:
		return colorOK
	}
	if c, ok := typeColors[typeCategory]; ok {
		return c
	}
	return colorNeutral
}
