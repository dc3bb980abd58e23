// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if err := c.validateAIS(); err != nil {
		return err
	}
	if err := c.validateCompliance(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAIS() error {
	if !strings.HasPrefix(c.AIS.FeedURL, "ws://") && !strings.HasPrefix(c.AIS.FeedURL, "wss://") {
		return fmt.Errorf("ais.feed_url must be a ws:// or wss:// URL, got %q", c.AIS.FeedURL)
	}
	if len(c.AIS.Boxes) == 0 {
		return fmt.Errorf("ais.boxes must contain at least one bounding box")
	}
	for i, b := range c.AIS.Boxes {
		if b.LatMin >= b.LatMax {
			return fmt.Errorf("ais.boxes[%d]: lat_min (%v) must be below lat_max (%v)", i, b.LatMin, b.LatMax)
		}
		if b.LonMin >= b.LonMax {
			return fmt.Errorf("ais.boxes[%d]: lon_min (%v) must be below lon_max (%v)", i, b.LonMin, b.LonMax)
		}
		if b.LatMin < -90 || b.LatMax > 90 {
			return fmt.Errorf("ais.boxes[%d]: latitude out of range [-90, 90]", i)
		}
		if b.LonMin < -180 || b.LonMax > 180 {
			return fmt.Errorf("ais.boxes[%d]: longitude out of range [-180, 180]", i)
		}
	}
	if c.AIS.CollectDuration <= 0 {
		return fmt.Errorf("ais.collect_duration must be positive, got %v", c.AIS.CollectDuration)
	}
	return nil
}

// validateCompliance validates the compliance provider configuration.
// Screening is optional: with no URL, vessels render as "not checked".
func (c *Config) validateCompliance() error {
	if c.Compliance.URL == "" {
		return nil
	}
	if c.Compliance.BatchSize <= 0 {
		return fmt.Errorf("compliance.batch_size must be positive, got %d", c.Compliance.BatchSize)
	}
	if c.Compliance.IDField == "" {
		return fmt.Errorf("compliance.id_field is required: response items cannot be keyed without it")
	}
	if len(c.Compliance.Fields) == 0 {
		return fmt.Errorf("compliance.fields table is empty: no checks would ever be extracted")
	}
	for canonical, provider := range c.Compliance.Fields {
		if canonical == "" || provider == "" {
			return fmt.Errorf("compliance.fields contains an empty mapping (%q -> %q)", canonical, provider)
		}
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if c.Display.FallbackLength <= 0 || c.Display.FallbackBeam <= 0 {
		return fmt.Errorf("display fallback dimensions must be positive (length=%v beam=%v)",
			c.Display.FallbackLength, c.Display.FallbackBeam)
	}
	if c.Display.ScaleFactor <= 0 {
		return fmt.Errorf("display.scale_factor must be positive, got %v", c.Display.ScaleFactor)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
