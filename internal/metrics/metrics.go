// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package metrics exposes Prometheus instrumentation for the pipeline:
// feed ingestion volume, cache efficiency, provider call outcomes, circuit
// breaker state, aggregation latency, and API request metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_messages_total",
			Help: "Total AIS feed messages processed, by message type",
		},
		[]string{"type"},
	)

	IngestDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_messages_dropped_total",
			Help: "Total AIS feed messages dropped, by reason",
		},
		[]string{"reason"}, // "no_mmsi", "unknown_type", "malformed"
	)

	IngestSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_ingest_sessions_total",
			Help: "Total feed collection windows, by outcome",
		},
		[]string{"outcome"}, // "complete", "failed"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ais_ingest_duration_seconds",
			Help:    "Duration of feed collection windows in seconds",
			Buckets: []float64{5, 10, 30, 60, 120, 300},
		},
	)

	TrackedVessels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracked_vessels",
			Help: "Current number of vessels in the track store",
		},
	)

	// Identifier resolution metrics
	RegistryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_lookups_total",
			Help: "MMSI to IMO resolution outcomes",
		},
		[]string{"outcome"}, // "cache_hit", "resolved", "negative", "error"
	)

	// Compliance screening metrics
	ComplianceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compliance_cache_hits_total",
			Help: "Compliance lookups served from the durable cache",
		},
	)

	ComplianceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compliance_cache_misses_total",
			Help: "Compliance lookups requiring a provider call",
		},
	)

	ComplianceProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_provider_calls_total",
			Help: "Compliance provider chunk calls, by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Aggregation metrics
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of enrichment aggregation passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregationRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregation_rows",
			Help: "Rows emitted by the most recent aggregation pass",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "In-flight API requests",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
