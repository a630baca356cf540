// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"net/http"
	"testing"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

func TestRouter_UnknownRouteNotFound(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})
	router := newTestRouter(handler)

	rec := doJSON(t, router, "GET", "/api/v1/unicorns", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	// Unknown routes answer in the same JSON error envelope as handlers.
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestRouter_SecurityHeadersOnAPIRoutes(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})
	router := newTestRouter(handler)

	rec := doJSON(t, router, "POST", "/api/v1/discover", discoverBody("Chennai"))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})
	router := newTestRouter(handler)

	rec := doJSON(t, router, "GET", "/metrics", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})
	router := newTestRouter(handler)

	rec := doJSON(t, router, "GET", "/health", nil)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set on responses")
	}
}

func TestRouter_LatencySampledOnAPIRoutes(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})
	router := newTestRouter(handler)

	doJSON(t, router, "POST", "/api/v1/discover", discoverBody("Chennai"))
	doJSON(t, router, "POST", "/api/v1/discover", discoverBody("Chennai"))

	stats := handler.GetPerformanceStats()
	if len(stats) != 1 {
		t.Fatalf("endpoint stats = %d, want 1", len(stats))
	}
	if stats[0].Path != "POST /api/v1/discover" {
		t.Errorf("sampled endpoint = %q, want POST /api/v1/discover", stats[0].Path)
	}
	if stats[0].RequestCount != 2 {
		t.Errorf("request count = %d, want 2", stats[0].RequestCount)
	}
}
