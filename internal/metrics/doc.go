// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - DuckDB query performance
  - Console sync operation statistics
  - Google Maps and LLM upstream calls
  - Area profile pipeline runs (rules / hybrid / full_llm / research_agent)
  - Chat turn processing and intent distribution
  - Circuit breaker state transitions
  - Cache hit/miss rates

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: tier (chat, profile, sync, health, api)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - duckdb_connection_pool_size: Connections in use (gauge)

Sync Metrics:
  - sync_duration_seconds: Console sync duration (histogram)
  - sync_records_processed_total: Records processed (counter)
  - sync_errors_total: Failed syncs (counter)
    Labels: error_type (console_api, database, validation)
  - sync_last_success_timestamp: Unix timestamp of last successful sync (gauge)
  - sync_batch_size: Records processed per sync run (histogram)

Upstream Metrics:
  - maps_api_call_duration_seconds: Google Maps call latency (histogram)
    Labels: endpoint (API path, e.g. /geocode/json, /place/nearbysearch/json)
  - maps_api_call_errors_total: Failed Google Maps calls (counter)
    Labels: endpoint
  - llm_call_duration_seconds: LLM completion latency (histogram)
    Labels: provider, operation
  - llm_calls_total: LLM completion calls (counter)
    Labels: provider, operation, result
  - llm_parse_failures_total: LLM responses that failed JSON parsing (counter)
    Labels: operation

Pipeline Metrics:
  - profile_generation_duration_seconds: Area profile latency (histogram)
    Labels: mode
  - profiles_generated_total / profile_errors_total: Outcomes (counter)
    Labels: mode
  - profile_llm_escalations_total: Hybrid escalations to the LLM (counter)
    Labels: reason

Chat Metrics:
  - chat_turn_duration_seconds: Turn latency (histogram)
    Labels: mode (chat, live)
  - chat_turns_total: Turns processed (counter)
    Labels: mode, result (success, failure, rate_limited)
  - chat_intents_total: Classified intents (counter)
    Labels: intent
  - chat_sessions_created_total: New sessions (counter)
  - screens_ranked_per_turn: Ranked screen counts (histogram)
  - holds_expired_total: Stale assistant holds released (counter)

Cache Metrics:
  - cache_hits_total / cache_misses_total: Lookup outcomes (counter)
    Labels: cache_type (response, filter_menu, llm_decision, maps, geo_persistent)
  - cache_entries: Current entry count per in-memory cache (gauge)
    Labels: cache_type
  - cache_evictions_total: TTL expiries and explicit clears (counter)
    Labels: cache_type

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name (google-maps, chat-llm)
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

System Metrics:
  - app_info: Build information, value always 1 (gauge)
    Labels: version, go_version
  - app_uptime_seconds: Uptime computed at scrape time (gauge)

# Usage Example

Recording metrics from application code:

	metrics.RecordAPIRequest("POST", "/api/v1/chat", "200", duration)
	metrics.RecordDBQuery("select", "screens", duration, err)
	metrics.RecordLLMCall("chat", "rank", duration, err)
	metrics.RecordProfile("hybrid", duration, err)

Recording HTTP metrics with middleware:

	r.Use(chiMiddleware(middleware.PrometheusMetrics))

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels use route patterns, not raw paths
  - Error types are truncated or mapped to fixed constants
  - Session and screen identifiers are never used as labels

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/database: Database metrics recording
  - internal/sync: Sync operation metrics
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
