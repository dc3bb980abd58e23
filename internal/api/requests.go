// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package api

import (
	"fmt"
	"time"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/ingest"
)

// BoxRequest is one bounding region in a refresh request.
type BoxRequest struct {
	LatMin float64 `json:"lat_min" validate:"min=-90,max=90"`
	LonMin float64 `json:"lon_min" validate:"min=-180,max=180"`
	LatMax float64 `json:"lat_max" validate:"min=-90,max=90"`
	LonMax float64 `json:"lon_max" validate:"min=-180,max=180"`
}

// RefreshRequest optionally overrides the configured collection region and
// window duration for a single refresh. An empty body uses configuration as-is.
type RefreshRequest struct {
	Boxes           []BoxRequest `json:"boxes" validate:"omitempty,max=10,dive"`
	DurationSeconds int          `json:"duration_seconds" validate:"omitempty,min=1,max=3600"`
}

// validateRequest runs struct validation plus the ordering checks the tag
// language cannot express.
func (s *Server) validateRequest(req *RefreshRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	for i, b := range req.Boxes {
		if b.LatMax <= b.LatMin {
			return fmt.Errorf("boxes[%d]: lat_max must exceed lat_min", i)
		}
		if b.LonMax <= b.LonMin {
			return fmt.Errorf("boxes[%d]: lon_max must exceed lon_min", i)
		}
	}
	return nil
}

// window converts the request into an ingest window with zero values falling
// back to configuration.
func (req *RefreshRequest) window() ingest.Window {
	win := ingest.Window{
		Duration: time.Duration(req.DurationSeconds) * time.Second,
	}
	for _, b := range req.Boxes {
		win.Boxes = append(win.Boxes, config.BoundingBox{
			LatMin: b.LatMin,
			LonMin: b.LonMin,
			LatMax: b.LatMax,
			LonMax: b.LonMax,
		})
	}
	return win
}
