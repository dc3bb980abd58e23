// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package models defines the data structures shared across the pipeline:
// the AIS feed wire format, the per-vessel track record with its
// merge-on-arrival semantics, the compliance screening record, and the
// flattened enriched row returned to callers.
package models
