// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package metrics

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Console sync operation metrics
// - Google Maps and LLM upstream calls
// - Area profile pipeline runs
// - Chat turn processing

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"tier"},
	)

	// Console Sync Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of console sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Sync operations can take minutes
		},
	)

	SyncRecordsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_records_processed_total",
			Help: "Total number of screen and booking records processed during sync",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"error_type"}, // "console_api", "database", "validation"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync",
		},
	)

	SyncBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_batch_size",
			Help:    "Number of records in sync batches",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000},
		},
	)

	// Google Maps Upstream Metrics
	MapsCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maps_api_call_duration_seconds",
			Help:    "Duration of Google Maps API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"}, // API path: "/geocode/json", "/place/nearbysearch/json", "/place/details/json"
	)

	MapsCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maps_api_call_errors_total",
			Help: "Total number of failed Google Maps API calls",
		},
		[]string{"endpoint"},
	)

	// LLM Upstream Metrics
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Duration of LLM completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60}, // LLM calls can take tens of seconds
		},
		[]string{"provider", "operation"}, // provider: "gemini", "chat"; operation: "understand", "rank", "respond", ...
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total number of LLM completion calls",
		},
		[]string{"provider", "operation", "result"}, // result: "success", "failure"
	)

	LLMParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_parse_failures_total",
			Help: "Total number of LLM responses that failed JSON parsing",
		},
		[]string{"operation"},
	)

	// Area Profile Pipeline Metrics
	ProfileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profile_generation_duration_seconds",
			Help:    "Duration of area profile generation in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120}, // Research mode can take minutes
		},
		[]string{"mode"}, // "rules", "hybrid", "full_llm", "research_agent"
	)

	ProfilesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiles_generated_total",
			Help: "Total number of area profiles generated",
		},
		[]string{"mode"},
	)

	ProfileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_errors_total",
			Help: "Total number of area profile generation failures",
		},
		[]string{"mode"},
	)

	ProfileLLMEscalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_llm_escalations_total",
			Help: "Total number of hybrid profiles escalated to the LLM",
		},
		[]string{"reason"}, // "LOW_CONFIDENCE", "CLOSE_DOMINANCE_RATIOS", ...
	)

	// Chat Metrics
	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Duration of chat turn processing in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60}, // Three LLM calls per full turn
		},
		[]string{"mode"}, // "chat", "live"
	)

	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of chat turns processed",
		},
		[]string{"mode", "result"}, // result: "success", "failure", "rate_limited"
	)

	ChatIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_intents_total",
			Help: "Total number of classified chat intents",
		},
		[]string{"intent"},
	)

	ChatSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sessions_created_total",
			Help: "Total number of chat sessions created",
		},
	)

	ScreensRankedBatch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screens_ranked_per_turn",
			Help:    "Number of screens ranked per chat turn",
			Buckets: []float64{1, 5, 10, 15, 30, 50, 100},
		},
	)

	HoldsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holds_expired_total",
			Help: "Total number of stale assistant holds released",
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "response", "filter_menu", "llm_decision", "maps", "geo_persistent"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

// startTime anchors the uptime gauge, which is computed at scrape time.
var startTime = time.Now()

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSyncOperation records a console sync operation metric
func RecordSyncOperation(duration time.Duration, recordsProcessed int, err error) {
	SyncDuration.Observe(duration.Seconds())
	SyncRecordsProcessed.Add(float64(recordsProcessed))
	SyncBatchSize.Observe(float64(recordsProcessed))
	if err != nil {
		errorType := "other"
		// Categorize error types
		errorMsg := err.Error()
		switch {
		case strings.Contains(errorMsg, "console"):
			errorType = "console_api"
		case strings.Contains(errorMsg, "database"), strings.Contains(errorMsg, "upsert"):
			errorType = "database"
		case strings.Contains(errorMsg, "decode"), strings.Contains(errorMsg, "validation"):
			errorType = "validation"
		}
		SyncErrors.WithLabelValues(errorType).Inc()
	} else {
		// Update last success timestamp
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordRateLimitHit records a request rejected by an HTTP rate limiter
func RecordRateLimitHit(tier string) {
	APIRateLimitHits.WithLabelValues(tier).Inc()
}

// SetDBConnectionsInUse sets the database connection pool gauge
func SetDBConnectionsInUse(n int) {
	DBConnectionPoolSize.Set(float64(n))
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordMapsCall records a Google Maps API call metric
func RecordMapsCall(endpoint string, duration time.Duration, err error) {
	MapsCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if err != nil {
		MapsCallErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordLLMCall records an LLM completion call metric
func RecordLLMCall(provider, operation string, duration time.Duration, err error) {
	LLMCallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	LLMCallsTotal.WithLabelValues(provider, operation, result).Inc()
}

// RecordLLMParseFailure records an LLM response that failed JSON parsing
func RecordLLMParseFailure(operation string) {
	LLMParseFailures.WithLabelValues(operation).Inc()
}

// RecordProfile records an area profile generation
func RecordProfile(mode string, duration time.Duration, err error) {
	ProfileDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err != nil {
		ProfileErrors.WithLabelValues(mode).Inc()
	} else {
		ProfilesGenerated.WithLabelValues(mode).Inc()
	}
}

// RecordProfileEscalation records a hybrid pipeline escalating to the LLM
func RecordProfileEscalation(reason string) {
	ProfileLLMEscalations.WithLabelValues(reason).Inc()
}

// RecordChatTurn records a chat turn and its outcome
func RecordChatTurn(mode string, duration time.Duration, err error) {
	ChatTurnDuration.WithLabelValues(mode).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	ChatTurnsTotal.WithLabelValues(mode, result).Inc()
}

// RecordChatRateLimited records a chat turn rejected by the session rate limit
func RecordChatRateLimited(mode string) {
	ChatTurnsTotal.WithLabelValues(mode, "rate_limited").Inc()
}

// RecordChatIntent records a classified chat intent
func RecordChatIntent(intent string) {
	ChatIntentsTotal.WithLabelValues(intent).Inc()
}

// RecordSessionCreated records a new chat session
func RecordSessionCreated() {
	ChatSessionsCreated.Inc()
}

// RecordScreensRanked records the number of screens ranked in a turn
func RecordScreensRanked(count int) {
	ScreensRankedBatch.Observe(float64(count))
}

// RecordHoldsExpired records stale holds released by the sweeper
func RecordHoldsExpired(count int) {
	if count > 0 {
		HoldsExpired.Add(float64(count))
	}
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheEvictions records entries removed from a cache
func RecordCacheEvictions(cacheType string, count int) {
	if count > 0 {
		CacheEvictions.WithLabelValues(cacheType).Add(float64(count))
	}
}

// SetCacheSize sets the current entry count for a cache
func SetCacheSize(cacheType string, entries int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(entries))
}

// RecordBreakerStateChange records a circuit breaker transition.
// State values: 0=closed, 1=half-open, 2=open.
func RecordBreakerStateChange(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordBreakerRequest records one request through a circuit breaker.
// Requests the breaker refused without executing count as "rejected".
func RecordBreakerRequest(name string, err error) {
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// SetAppInfo publishes the build version labels. Call once at startup.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

func breakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 2
	case "half-open":
		return 1
	default:
		return 0
	}
}
