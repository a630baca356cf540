// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. The api
package composes these with its chi middleware (CORS, rate limiting, security
headers) into the full request-processing stack.

Key Components:

  - Compression: Gzip compression for screen-heavy JSON responses
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking wired into the logging context
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The api router applies the global stack (request ID, real IP, recoverer,
CORS) once, then wraps each route group:

	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(api.RateLimitCustom(api.RateLimitConfigChat))
	    r.Use(chiMiddleware(middleware.PrometheusMetrics))
	    r.Use(chiMiddleware(middleware.Compression))
	    r.Post("/chat", handler.Chat)
	})

Usage Example - Performance Monitoring:

	// Create performance monitor holding the last 1000 samples
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Get per-endpoint statistics for the health payload
	stats := perfMon.GetStats()

Usage Example - Request ID:

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing request")
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for ranked screen payloads
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)

Slow Request Logging:

Chat endpoints make up to three upstream LLM calls per turn, so the slow
request threshold is 5 seconds rather than the sub-second budget a pure
database endpoint would get. Requests above the threshold log a warning
with method, path and duration.

Thread Safety:

All middleware components are thread-safe:
  - Compression uses pooled per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: HTTP handlers and the chi middleware stack
  - internal/metrics: Prometheus metrics definitions
  - internal/logging: context-aware structured logging
*/
package middleware
