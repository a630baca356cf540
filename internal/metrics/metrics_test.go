// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package metrics

import (
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/sony/gobreaker/v2"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// TestRecordDBQuery tests database query metric recording
func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful SELECT query",
			operation: "SELECT",
			table:     "screens",
			duration:  10 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "successful INSERT query",
			operation: "INSERT",
			table:     "slot_bookings",
			duration:  5 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "failed query with short error",
			operation: "UPDATE",
			table:     "screens",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
		{
			name:      "failed query with long error - should truncate to 50 chars",
			operation: "DELETE",
			table:     "slot_bookings",
			duration:  50 * time.Millisecond,
			err:       errors.New("this is a very long error message that exceeds fifty characters and should be truncated properly"),
		},
		{
			name:      "fast query under 1ms",
			operation: "SELECT",
			table:     "screens",
			duration:  500 * time.Microsecond,
			err:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the query - should not panic
			RecordDBQuery(tt.operation, tt.table, tt.duration, tt.err)
		})
	}
}

// TestRecordDBQuery_ErrorTruncation verifies error messages are truncated at 50 chars
func TestRecordDBQuery_ErrorTruncation(t *testing.T) {
	// Error with exactly 50 characters
	err50 := errors.New(strings.Repeat("a", 50))
	RecordDBQuery("SELECT", "test", time.Millisecond, err50)

	// Error with 51 characters - should truncate
	err51 := errors.New(strings.Repeat("b", 51))
	RecordDBQuery("SELECT", "test", time.Millisecond, err51)

	// Error with 100 characters - should truncate
	err100 := errors.New(strings.Repeat("c", 100))
	RecordDBQuery("SELECT", "test", time.Millisecond, err100)

	// Very short error
	errShort := errors.New("err")
	RecordDBQuery("SELECT", "test", time.Millisecond, errShort)
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful chat turn",
			method:     "POST",
			endpoint:   "/api/v1/chat",
			statusCode: "200",
			duration:   2500 * time.Millisecond,
		},
		{
			name:       "successful discover",
			method:     "POST",
			endpoint:   "/api/v1/discover",
			statusCode: "200",
			duration:   25 * time.Millisecond,
		},
		{
			name:       "session not found",
			method:     "GET",
			endpoint:   "/api/v1/chat/{session_id}",
			statusCode: "404",
			duration:   2 * time.Millisecond,
		},
		{
			name:       "rate limited chat turn",
			method:     "POST",
			endpoint:   "/api/v1/chat",
			statusCode: "429",
			duration:   time.Millisecond,
		},
		{
			name:       "upstream failure",
			method:     "POST",
			endpoint:   "/api/v1/screen-profile",
			statusCode: "502",
			duration:   30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
		})
	}
}

// TestRecordSyncOperation tests sync metric recording and error categorization
func TestRecordSyncOperation(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		records  int
		err      error
	}{
		{
			name:     "successful sync",
			duration: 30 * time.Second,
			records:  1500,
			err:      nil,
		},
		{
			name:     "console API failure",
			duration: 5 * time.Second,
			records:  0,
			err:      errors.New("console screens request: connection refused"),
		},
		{
			name:     "database failure",
			duration: 10 * time.Second,
			records:  50,
			err:      errors.New("upsert screen SCR-001: constraint violation"),
		},
		{
			name:     "validation failure",
			duration: 2 * time.Second,
			records:  0,
			err:      errors.New("decode screens payload: unexpected end of JSON input"),
		},
		{
			name:     "uncategorized failure",
			duration: time.Second,
			records:  0,
			err:      errors.New("something unexpected"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordSyncOperation(tt.duration, tt.records, tt.err)
		})
	}
}

// TestTrackActiveRequest tests active request gauge tracking
func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+2 {
		t.Errorf("APIActiveRequests = %v, want %v", got, before+2)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

// TestRecordMapsCall tests Google Maps upstream metric recording
func TestRecordMapsCall(t *testing.T) {
	endpoints := []string{"geocode", "nearby", "place_details"}

	for _, endpoint := range endpoints {
		t.Run(endpoint, func(t *testing.T) {
			RecordMapsCall(endpoint, 250*time.Millisecond, nil)
			RecordMapsCall(endpoint, 30*time.Second, errors.New("OVER_QUERY_LIMIT"))
		})
	}
}

// TestRecordLLMCall tests LLM upstream metric recording
func TestRecordLLMCall(t *testing.T) {
	tests := []struct {
		provider  string
		operation string
		err       error
	}{
		{"chat", "understand", nil},
		{"chat", "rank", nil},
		{"chat", "respond", errors.New("circuit breaker is open")},
		{"gemini", "classify_area", nil},
		{"gemini", "research", errors.New("deadline exceeded")},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"_"+tt.operation, func(t *testing.T) {
			RecordLLMCall(tt.provider, tt.operation, 3*time.Second, tt.err)
		})
	}
}

// TestRecordLLMParseFailure tests parse failure counting
func TestRecordLLMParseFailure(t *testing.T) {
	before := testutil.ToFloat64(LLMParseFailures.WithLabelValues("understand"))

	RecordLLMParseFailure("understand")
	RecordLLMParseFailure("understand")

	if got := testutil.ToFloat64(LLMParseFailures.WithLabelValues("understand")); got != before+2 {
		t.Errorf("LLMParseFailures = %v, want %v", got, before+2)
	}
}

// TestRecordProfile tests area profile pipeline metric recording
func TestRecordProfile(t *testing.T) {
	modes := []string{"rules", "hybrid", "full_llm", "research_agent"}

	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			RecordProfile(mode, 5*time.Second, nil)
			RecordProfile(mode, time.Second, errors.New("geocode failed"))
		})
	}
}

// TestRecordProfileEscalation tests hybrid escalation counting
func TestRecordProfileEscalation(t *testing.T) {
	reasons := []string{
		"LOW_CONFIDENCE",
		"CLOSE_DOMINANCE_RATIOS",
		"INSUFFICIENT_PLACES_DATA",
		"BORDERLINE_CLASSIFICATION",
	}

	for _, reason := range reasons {
		RecordProfileEscalation(reason)
	}
}

// TestRecordChatTurn tests chat turn metric recording
func TestRecordChatTurn(t *testing.T) {
	RecordChatTurn("chat", 4*time.Second, nil)
	RecordChatTurn("live", 2*time.Second, nil)
	RecordChatTurn("chat", 500*time.Millisecond, errors.New("chat assistant temporarily unavailable"))
	RecordChatRateLimited("chat")
}

// TestRecordChatIntent tests intent counting
func TestRecordChatIntent(t *testing.T) {
	intents := []string{
		"brand_awareness_discovery",
		"filter_add",
		"filter_remove",
		"question",
		"start_over",
	}

	for _, intent := range intents {
		RecordChatIntent(intent)
	}
}

// TestRecordScreensRanked tests ranked screen histogram
func TestRecordScreensRanked(t *testing.T) {
	for _, count := range []int{1, 15, 30, 100} {
		RecordScreensRanked(count)
	}
}

// TestRecordHoldsExpired verifies zero counts are not added
func TestRecordHoldsExpired(t *testing.T) {
	before := testutil.ToFloat64(HoldsExpired)

	RecordHoldsExpired(0)
	if got := testutil.ToFloat64(HoldsExpired); got != before {
		t.Errorf("HoldsExpired = %v after zero count, want %v", got, before)
	}

	RecordHoldsExpired(3)
	if got := testutil.ToFloat64(HoldsExpired); got != before+3 {
		t.Errorf("HoldsExpired = %v, want %v", got, before+3)
	}
}

// TestCacheMetrics tests general cache metrics
func TestCacheMetrics(t *testing.T) {
	cacheTypes := []string{"places", "geocode", "filter_menu"}

	for _, cacheType := range cacheTypes {
		RecordCacheHit(cacheType)
		RecordCacheMiss(cacheType)
		RecordCacheEvictions(cacheType, 2)
		SetCacheSize(cacheType, 50)
	}

	before := testutil.ToFloat64(CacheEvictions.WithLabelValues("places"))
	RecordCacheEvictions("places", 0)
	if got := testutil.ToFloat64(CacheEvictions.WithLabelValues("places")); got != before {
		t.Errorf("CacheEvictions = %v after zero-count record, want %v", got, before)
	}
}

// TestRecordBreakerStateChange tests circuit breaker transition recording
func TestRecordBreakerStateChange(t *testing.T) {
	RecordBreakerStateChange("google-maps", "closed", "open")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("google-maps")); got != 2 {
		t.Errorf("CircuitBreakerState = %v after open, want 2", got)
	}

	RecordBreakerStateChange("google-maps", "open", "half-open")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("google-maps")); got != 1 {
		t.Errorf("CircuitBreakerState = %v after half-open, want 1", got)
	}

	RecordBreakerStateChange("google-maps", "half-open", "closed")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("google-maps")); got != 0 {
		t.Errorf("CircuitBreakerState = %v after closed, want 0", got)
	}
}

// TestBreakerTransitionCounter verifies transitions accumulate per edge
func TestBreakerTransitionCounter(t *testing.T) {
	edge := CircuitBreakerTransitions.WithLabelValues("chat-llm", "closed", "open")
	before := getCounterValue(edge)

	RecordBreakerStateChange("chat-llm", "closed", "open")
	RecordBreakerStateChange("chat-llm", "closed", "open")

	if got := getCounterValue(edge); got != before+2 {
		t.Errorf("transition counter = %v, want %v", got, before+2)
	}
}

// TestConcurrentMetricRecording verifies thread safety under concurrent load
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 100
	operationsPerGoroutine := 50

	// Test concurrent DB query recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordDBQuery("SELECT", "screens", time.Duration(j)*time.Millisecond, nil)
			}
		}()
	}

	// Test concurrent API request recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordAPIRequest("POST", "/api/v1/chat", "200", time.Duration(j)*time.Millisecond)
			}
		}()
	}

	// Test concurrent active request tracking
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}

	// Test concurrent LLM call recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordLLMCall("chat", "rank", time.Second, nil)
			}
		}()
	}

	wg.Wait()
}

// TestAppMetrics tests application-level metrics
func TestAppMetrics(t *testing.T) {
	SetAppInfo("2.0.0")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("2.0.0", runtime.Version())); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}

	if got := testutil.ToFloat64(AppUptime); got < 0 {
		t.Errorf("AppUptime = %v, want >= 0", got)
	}
}

// TestRecordBreakerRequest tests breaker request outcome classification
func TestRecordBreakerRequest(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("upstream 503"), "failure"},
		{"rejected open", gobreaker.ErrOpenState, "rejected"},
		{"rejected half-open", gobreaker.ErrTooManyRequests, "rejected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("test-breaker", tc.result))
			RecordBreakerRequest("test-breaker", tc.err)
			after := testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("test-breaker", tc.result))
			if after != before+1 {
				t.Errorf("CircuitBreakerRequests{%s} = %v, want %v", tc.result, after, before+1)
			}
		})
	}
}

// TestMetricsRegistration verifies all metrics are properly registered
func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		DBQueryDuration,
		DBQueryErrors,
		DBConnectionPoolSize,
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		SyncDuration,
		SyncRecordsProcessed,
		SyncErrors,
		SyncLastSuccess,
		SyncBatchSize,
		MapsCallDuration,
		MapsCallErrors,
		LLMCallDuration,
		LLMCallsTotal,
		LLMParseFailures,
		ProfileDuration,
		ProfilesGenerated,
		ProfileErrors,
		ProfileLLMEscalations,
		ChatTurnDuration,
		ChatTurnsTotal,
		ChatIntentsTotal,
		ChatSessionsCreated,
		ScreensRankedBatch,
		HoldsExpired,
		CacheHits,
		CacheMisses,
		CacheSize,
		CacheEvictions,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerTransitions,
		AppInfo,
		AppUptime,
	}

	// Verify each metric can be described
	for _, m := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering verifies metrics can be gathered and linted
func TestMetricGathering(t *testing.T) {
	// Record some metrics
	RecordDBQuery("TEST", "test_table", time.Millisecond, nil)
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	// Verify we can lint the metrics (checks for consistency issues)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

// Benchmark tests for metrics performance

func BenchmarkRecordDBQuery(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordDBQuery("SELECT", "screens", 10*time.Millisecond, nil)
	}
}

func BenchmarkRecordAPIRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordAPIRequest("POST", "/api/v1/chat", "200", 25*time.Millisecond)
	}
}

func BenchmarkRecordLLMCall(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordLLMCall("chat", "understand", time.Second, nil)
	}
}

func BenchmarkTrackActiveRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		TrackActiveRequest(true)
		TrackActiveRequest(false)
	}
}
