// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package compliance

import (
	"strconv"
	"time"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/models"
)

// Response parsing is entirely table-driven: every provider field name comes
// from the configured ComplianceConfig, never from code. The provider has
// renamed and reshaped its field set across versions without changing the
// meaning of any check; an unmapped field is simply absent from the record
// (read back as StatusUnknown), and a mapped field missing from a response
// item degrades to StatusUnknown for that vessel rather than failing the
// chunk.

// parseItem extracts a ComplianceRecord from one decoded response item.
// Returns false when the item carries no registry identifier and therefore
// cannot be keyed.
func parseItem(item map[string]any, cfg *config.ComplianceConfig, now time.Time) (models.ComplianceRecord, bool) {
	imo := stringValue(item[cfg.IDField])
	if imo == "" {
		return models.ComplianceRecord{}, false
	}

	rec := models.ComplianceRecord{
		IMO:       imo,
		Overall:   models.StatusUnknown,
		Fields:    make(map[string]int, len(cfg.Fields)),
		FetchedAt: now,
	}

	for canonical, providerKey := range cfg.Fields {
		if v, ok := item[providerKey]; ok {
			rec.Fields[canonical] = statusValue(v)
		}
	}

	if v, ok := item[cfg.OverallField]; ok {
		rec.Overall = models.Status(statusValue(v))
	} else {
		// Older provider schemas omit the rollup; derive it as the worst
		// value across the mapped checks, matching the provider's own
		// definition.
		rec.Overall = rollup(rec.Fields)
	}

	rec.ShipName = stringValue(item[cfg.NameField])
	rec.FlagName = stringValue(item[cfg.FlagField])
	rec.RegisteredOwner = stringValue(item[cfg.OwnerField])
	rec.ShipManager = stringValue(item[cfg.ManagerField])

	return rec, true
}

// rollup returns the worst status across field values, or StatusUnknown when
// no mapped field was present at all.
func rollup(fields map[string]int) models.Status {
	if len(fields) == 0 {
		return models.StatusUnknown
	}
	worst := 0
	for _, v := range fields {
		if v > worst {
			worst = v
		}
	}
	return models.Status(worst)
}

// statusValue coerces a provider check value to the 0/1/2 scale. The provider
// has shipped both JSON numbers and numeric strings for the same fields;
// anything unparseable is treated as 0 (clear), matching the provider's
// documented default.
func statusValue(v any) int {
	switch t := v.(type) {
	case float64:
		return clampStatus(int(t))
	case int:
		return clampStatus(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return clampStatus(n)
	default:
		return 0
	}
}

func clampStatus(n int) int {
	if n < 0 {
		return 0
	}
	if n > 2 {
		return 2
	}
	return n
}

// stringValue coerces a provider value to a string, tolerating the numeric
// identifiers some schema versions emit.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}
