// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pelorus/config.yaml",
	"/etc/pelorus/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		AIS: AISConfig{
			FeedURL: "wss://stream.aisstream.io/v0/stream",
			FeedKey: "",
			// Singapore Strait, the region the system was built around.
			Boxes: []BoundingBox{
				{LatMin: 1.22, LonMin: 103.80, LatMax: 1.32, LonMax: 103.92},
			},
			CollectDuration:  30 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
		Registry: RegistryConfig{
			URL:       "",
			Timeout:   30 * time.Second,
			CallDelay: 500 * time.Millisecond,
		},
		Compliance: ComplianceConfig{
			URL:          "",
			Username:     "",
			Password:     "",
			BatchSize:    100,
			ChunkDelay:   500 * time.Millisecond,
			Timeout:      30 * time.Second,
			ResultField:  "ShipResult",
			IDField:      "lrimoShipNo",
			OverallField: "legalOverall",
			Fields:       DefaultFieldTable(),
			NameField:    "shipName",
			FlagField:    "flagName",
			OwnerField:   "registeredOwner",
			ManagerField: "shipManager",
		},
		Track: TrackConfig{
			Expiry: 12 * time.Hour,
		},
		Display: DisplayConfig{
			FallbackLength: 30,
			FallbackBeam:   8,
			ScaleFactor:    1.0,
		},
		Cache: CacheConfig{
			Path:     "/data/pelorus",
			InMemory: false,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: 60 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3859,
			Timeout:         120 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// DefaultFieldTable returns the canonical-key to provider-field mapping for
// the provider's current response schema (screening spec v3.71 naming). The
// table is configuration: when the provider renames fields again, deployments
// override individual entries in config.yaml without a release.
func DefaultFieldTable() map[string]string {
	return map[string]string{
		// Ship sanction lists
		"ship_bes_sanction":   "shipBESSanctionList",
		"ship_eu_sanction":    "shipEUSanctionList",
		"ship_ofac_sanction":  "shipOFACSanctionList",
		"ship_ofac_non_sdn":   "shipOFACNonSDNSanctionList",
		"ship_swiss_sanction": "shipSwissSanctionList",
		"ship_un_sanction":    "shipUNSanctionList",
		"ship_ofac_advisory":  "shipUSTreasuryOFACAdvisoryList",

		// Sanctioned-country port call history
		"port_call_3m":  "shipSanctionedCountryPortCallLast3m",
		"port_call_6m":  "shipSanctionedCountryPortCallLast6m",
		"port_call_12m": "shipSanctionedCountryPortCallLast12m",

		// Dark activity
		"dark_activity": "shipDarkActivityIndicator",

		// Flag issues
		"flag_disputed":   "shipFlagDisputed",
		"flag_sanctioned": "shipFlagSanctionedCountry",
		"flag_historical": "shipHistoricalFlagSanctionedCountry",

		// Owner/operator sanction lists
		"owner_australian":   "shipOwnerAustralianSanctionList",
		"owner_bes":          "shipOwnerBESSanctionList",
		"owner_canadian":     "shipOwnerCanadianSanctionList",
		"owner_eu":           "shipOwnerEUSanctionList",
		"owner_fatf":         "shipOwnerFATFJurisdiction",
		"owner_ofac_ssi":     "shipOFACSSIList",
		"owner_ofac":         "shipOwnerOFACSanctionList",
		"owner_swiss":        "shipOwnerSwissSanctionList",
		"owner_uae":          "shipOwnerUAESanctionList",
		"owner_un":           "shipOwnerUNSanctionList",
		"owner_ofac_country": "shipOwnerOFACSanctionedCountry",
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML (if present)
//  3. Environment variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	// AIS_FEED_KEY -> ais.feed_key, COMPLIANCE_BATCH_SIZE -> compliance.batch_size
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns empty string when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSections are the env-var prefixes mapped onto config sections.
var configSections = []string{
	"ais", "registry", "compliance", "track", "display",
	"cache", "scheduler", "server", "logging",
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - AIS_FEED_KEY -> ais.feed_key
//   - COMPLIANCE_BATCH_SIZE -> compliance.batch_size
//   - LOG_LEVEL -> logging.level (legacy alias)
//   - HTTP_PORT -> server.port (legacy alias)
//
// Variables not matching any section are ignored (empty path) so unrelated
// environment noise never lands in the config tree.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Legacy aliases kept for operator convenience.
	aliases := map[string]string{
		"log_level":   "logging.level",
		"log_format":  "logging.format",
		"http_port":   "server.port",
		"http_host":   "server.host",
		"ais_api_key": "ais.feed_key",
	}
	if path, ok := aliases[key]; ok {
		return path
	}

	for _, section := range configSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + key[len(prefix):]
		}
	}
	return ""
}

// processSliceFields converts comma-separated env strings into slices for
// fields typed []string.
func processSliceFields(k *koanf.Koanf) error {
	sliceFields := []string{"server.cors_origins"}
	for _, field := range sliceFields {
		if raw, ok := k.Get(field).(string); ok {
			parts := strings.Split(raw, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if err := k.Set(field, parts); err != nil {
				return fmt.Errorf("set %s: %w", field, err)
			}
		}
	}
	return nil
}
