// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package models

import "time"

// Status is a compliance check outcome as reported by the provider.
// The provider's scale is 0/1/2; StatusUnknown marks a vessel that has not
// been screened (or a field absent from the provider response).
type Status int

// Status values. The numeric values match the provider's wire encoding and
// must not be reordered.
const (
	StatusUnknown Status = -1
	StatusOK      Status = 0
	StatusWarning Status = 1
	StatusSevere  Status = 2
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// ComplianceRecord is the screening result for one registry identifier (IMO).
// Records are created and overwritten only by the compliance fetcher and are
// otherwise immutable; their presence in the cache - including NotFound
// markers - means the identifier is not re-queried within the cache lifetime.
type ComplianceRecord struct {
	IMO string `json:"imo"`

	// Overall is the provider's worst-case rollup across all checks.
	Overall Status `json:"overall_status"`

	// Fields maps canonical field keys to their 0/1/2 status. The key set is
	// driven by the configured field table, not hard-coded.
	Fields map[string]int `json:"fields,omitempty"`

	// Descriptive provider fields, informational only.
	ShipName        string `json:"ship_name,omitempty"`
	FlagName        string `json:"flag_name,omitempty"`
	RegisteredOwner string `json:"registered_owner,omitempty"`
	ShipManager     string `json:"ship_manager,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`

	// NotFound marks an identifier the provider was queried for but returned
	// no record. Distinct from "never queried".
	NotFound bool `json:"not_found,omitempty"`
}

// Field returns the status for a canonical field key, or StatusUnknown when
// the field is absent from the record.
func (c *ComplianceRecord) Field(key string) Status {
	if c == nil || c.Fields == nil {
		return StatusUnknown
	}
	if v, ok := c.Fields[key]; ok {
		return Status(v)
	}
	return StatusUnknown
}
