// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"net/http"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/middleware"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// healthDetail extends the basic health payload with subsystem metrics.
type healthDetail struct {
	models.HealthStatus
	Cache       *cacheHealth               `json:"cache,omitempty"`
	Performance []middleware.EndpointStats `json:"performance,omitempty"`
}

type cacheHealth struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Keys       int64   `json:"keys"`
	HitRatePct float64 `json:"hit_rate_pct"`
}

// Health handles health check requests.
//
// Method: GET
// Path: /health
//
// Returns database connectivity, screen inventory count, last sync time,
// uptime, response-cache counters, and per-endpoint latency percentiles.
// Status is "healthy" when the database answers, "degraded" otherwise;
// the endpoint itself always returns 200 so monitors can read the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	screenCount := 0
	if dbConnected {
		if n, err := h.db.CountScreens(r.Context()); err == nil {
			screenCount = n
		}
	}

	var lastSyncPtr *time.Time
	if h.sync != nil {
		lastSync := h.sync.LastSyncTime()
		if !lastSync.IsZero() {
			lastSyncPtr = &lastSync
		}
	}

	health := healthDetail{
		HealthStatus: models.HealthStatus{
			Status:            status,
			Version:           config.AppVersion,
			DatabaseConnected: dbConnected,
			ScreenCount:       screenCount,
			LastSyncTime:      lastSyncPtr,
			Uptime:            time.Since(h.startTime).Seconds(),
		},
		Performance: h.GetPerformanceStats(),
	}
	if h.cache != nil {
		cs := h.cache.GetStats()
		health.Cache = &cacheHealth{
			Hits:       cs.Hits,
			Misses:     cs.Misses,
			Keys:       cs.TotalKeys,
			HitRatePct: h.cache.HitRate(),
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 OK only when the database is reachable, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	ready := dbConnected

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
