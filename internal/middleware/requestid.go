// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package middleware provides the HTTP middleware chain: request IDs and
// Prometheus instrumentation. Rate limiting and CORS come from the httprate
// and cors packages and are wired directly in the router.
package middleware

import (
	"net/http"

	"github.com/tomtom215/pelorus/internal/logging"
)

// RequestIDHeader is the header carrying the request correlation ID in both
// directions. An inbound value is trusted and propagated; otherwise one is
// generated.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID to the request context and echoes it in
// the response, so a log line can always be tied back to the request that
// produced it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
