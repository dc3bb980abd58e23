// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package config holds all application configuration, loaded via Koanf v2
// with layered sources (highest priority wins):
//
//  1. Environment variables (AIS_FEED_KEY, COMPLIANCE_URL, ...)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
//
// Everything that is tuning rather than logic lives here: the
// bounding region, collection duration, track expiry, provider batch size and
// pacing delays, per-call timeouts, fallback footprint dimensions, the display
// scale factor, and - most importantly - the declarative compliance field
// table mapping canonical field keys to the provider's current field names.
// The provider has renamed its field set more than once; absorbing the next
// rename must only ever require a table edit, never a code change.
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import "time"

// Config is the root configuration for the pipeline.
type Config struct {
	AIS        AISConfig        `koanf:"ais"`
	Registry   RegistryConfig   `koanf:"registry"`
	Compliance ComplianceConfig `koanf:"compliance"`
	Track      TrackConfig      `koanf:"track"`
	Display    DisplayConfig    `koanf:"display"`
	Cache      CacheConfig      `koanf:"cache"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// BoundingBox is a geographic collection region in decimal degrees.
type BoundingBox struct {
	LatMin float64 `koanf:"lat_min"`
	LonMin float64 `koanf:"lon_min"`
	LatMax float64 `koanf:"lat_max"`
	LonMax float64 `koanf:"lon_max"`
}

// AISConfig configures the live feed subscription.
type AISConfig struct {
	// FeedURL is the websocket endpoint of the AIS push feed.
	FeedURL string `koanf:"feed_url"`

	// FeedKey is the feed API key sent in the subscription payload.
	FeedKey string `koanf:"feed_key"`

	// Boxes are the bounding regions to subscribe to.
	Boxes []BoundingBox `koanf:"boxes"`

	// CollectDuration bounds each ingestion window; the connection is closed
	// when it elapses and accumulated state is returned to the caller.
	CollectDuration time.Duration `koanf:"collect_duration"`

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// RegistryConfig configures the auxiliary MMSI-to-IMO lookup service.
// An empty URL disables resolution; vessels without an IMO from the feed are
// then simply left unscreened.
type RegistryConfig struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`
	CallDelay time.Duration `koanf:"call_delay"`
}

// ComplianceConfig configures the compliance screening provider and the
// declarative response-field table.
type ComplianceConfig struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// BatchSize is the provider-imposed maximum identifiers per call.
	BatchSize int `koanf:"batch_size"`

	// ChunkDelay is the courtesy pause between consecutive provider calls.
	ChunkDelay time.Duration `koanf:"chunk_delay"`

	Timeout time.Duration `koanf:"timeout"`

	// ResultField names the wrapper key holding the response list.
	// Empty means the response body is the list itself.
	ResultField string `koanf:"result_field"`

	// IDField names the registry identifier within each response item.
	IDField string `koanf:"id_field"`

	// OverallField names the provider's worst-case rollup value. When the
	// provider omits it, the rollup is computed as the max over mapped
	// field values.
	OverallField string `koanf:"overall_field"`

	// Fields maps canonical field keys to provider field names. The set of
	// canonical keys - not this code - defines which checks a record carries.
	Fields map[string]string `koanf:"fields"`

	// Descriptive (informational) provider fields.
	NameField    string `koanf:"name_field"`
	FlagField    string `koanf:"flag_field"`
	OwnerField   string `koanf:"owner_field"`
	ManagerField string `koanf:"manager_field"`
}

// TrackConfig configures track store behavior.
type TrackConfig struct {
	// Expiry excludes vessels not seen within the window from aggregation
	// output. Zero disables expiry (records are retained forever).
	Expiry time.Duration `koanf:"expiry"`
}

// DisplayConfig holds presentation tuning for the derived facet.
type DisplayConfig struct {
	// FallbackLength/FallbackBeam (meters) size the footprint when a vessel
	// has not reported dimensions.
	FallbackLength float64 `koanf:"fallback_length"`
	FallbackBeam   float64 `koanf:"fallback_beam"`

	// ScaleFactor multiplies footprint dimensions for visibility at wide
	// zoom levels. 1.0 renders true size.
	ScaleFactor float64 `koanf:"scale_factor"`
}

// CacheConfig configures the durable cache layer.
type CacheConfig struct {
	Path string `koanf:"path"`

	// InMemory opts out of persistence entirely (caches live and die with
	// the process).
	InMemory bool `koanf:"in_memory"`
}

// SchedulerConfig configures the optional periodic auto-refresh.
type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
