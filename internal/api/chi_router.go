// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/middleware"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows our existing middleware to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(HTTPDebugLogging())          // Diagnostic logging (enabled via HTTP_DEBUG=true)
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Unmatched routes and method mismatches answer in the shared error
	// taxonomy rather than Chi's plain-text defaults.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting (1000/min) allows frequent monitoring
	// while preventing abuse
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Conversational Endpoints
	// ========================
	// Chat turns fan out to up to three LLM calls; the per-session budget
	// lives in the orchestrator, this IP limit blunts scripted abuse.
	r.Route("/api/v1/chat", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitChat())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiPathValue)

		r.Post("/", router.handler.Chat)
		r.Get("/{session_id}", router.handler.ChatSession)
	})

	r.Route("/api/v1/chat-open", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitChat())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)
		r.Use(chiMiddleware(middleware.Compression))

		r.Post("/", router.handler.ChatOpen)
	})

	r.Route("/api/v1/creative-suggestion", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitChat())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)

		r.Post("/", router.handler.CreativeSuggestion)
	})

	// ========================
	// Discovery Endpoints
	// ========================
	// Deterministic inventory queries, no LLM involved
	r.Route("/api/v1/discover", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)
		r.Use(chiMiddleware(middleware.Compression))

		r.Post("/", router.handler.Discover)
	})

	// ========================
	// Profiling Endpoints
	// ========================
	// Strict rate limiting: each profile run fans out to Maps and LLM
	// upstreams
	r.Route("/api/v1/screen-profile", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitProfile())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)

		r.Post("/", router.handler.ProfileScreen)
		r.Get("/", router.handler.GetScreenProfile)
	})

	// ========================
	// Sync Routes
	// ========================
	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitSync())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)

		r.Post("/", router.handler.TriggerSync)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// chiPathValue middleware injects Chi URL params into request so handlers
// using r.PathValue() continue to work. This bridges Chi's chi.URLParam()
// with Go 1.22+'s r.PathValue().
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
