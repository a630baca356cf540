// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

/*
Package api provides the HTTP REST API layer of the screen discovery service.

It exposes the conversational assistant, the deterministic discovery engine,
the area profiler, and operational endpoints behind a Chi route tree with a
shared middleware stack.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: Request handlers for every endpoint
  - Response formatting: Standardized JSON envelope with metadata and ETag
  - Error handling: Shared error taxonomy (INPUT_INVALID, VALIDATION_ERROR,
    RATE_LIMITED, UPSTREAM_UNAVAILABLE, PARSE_FAILURE, STATE_CONFLICT,
    NOT_FOUND, METHOD_NOT_ALLOWED, FATAL)
  - Rate limiting: Per-endpoint IP limits via go-chi/httprate
  - CORS: go-chi/cors, configured from server.cors_origins

Endpoints:

 1. Conversational (/api/v1/chat, /api/v1/chat-open,
    /api/v1/creative-suggestion):
    XIA turns, live-mode page help, and creative briefs. Responses are
    per-session and sent with Cache-Control: no-store.

 2. Discovery (/api/v1/discover):
    Direct inventory discovery with slot availability and budget fit,
    no LLM involved.

 3. Profiling (/api/v1/screen-profile):
    Compute or fetch the area context profile for a screen or raw
    coordinates. Strictly rate limited because each run fans out to
    Maps and LLM upstreams.

 4. Operational (/health, /health/live, /health/ready, /api/v1/sync,
    /metrics):
    Probes, manual console sync trigger, and Prometheus metrics.

Usage Example:

	import (
	    "github.com/fazal-lab/Platform-Console-Studio-Screen/internal/api"
	    "github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	)

	// Create dependencies
	db, _ := database.New(cfg.Database)
	handler := api.NewHandler(db, syncManager, orchestrator, engine, menu, pipeline, cfg)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	// Setup routes and start server
	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())

Performance Characteristics:

  - Discovery and session reads answer in milliseconds from DuckDB
  - Chat turns run for seconds (up to three upstream LLM calls per turn)
  - Inventory responses carry a 60s public cache header plus an ETag
  - Gzip compression on the screen-heavy chat and discover payloads

Thread Safety:

All handlers are safe for concurrent use. Chat turns are additionally
serialized per session by the orchestrator's keyed mutex.

See Also:

  - internal/xia: Conversation orchestration and discovery engine
  - internal/profiler: Area context profiling pipeline
  - internal/database: Inventory and booking store
  - internal/middleware: Metrics, compression, and request ID middleware
*/
package api
