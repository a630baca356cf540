// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/cache"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/middleware"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/profiler"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/sync"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/xia"
)

// Handler holds the dependencies every HTTP endpoint needs. All fields may be
// nil in tests; handlers that require one check and respond 503 rather than
// panic.
type Handler struct {
	db           *database.DB
	sync         *sync.Manager
	orchestrator *xia.Orchestrator
	engine       *xia.Engine
	menu         *xia.FilterMenu
	pipeline     *profiler.Pipeline
	config       *config.Config
	startTime    time.Time
	cache        *cache.Cache
	perfMon      *middleware.PerformanceMonitor
}

// NewHandler creates a new API handler.
func NewHandler(db *database.DB, syncManager *sync.Manager, orchestrator *xia.Orchestrator, engine *xia.Engine, menu *xia.FilterMenu, pipeline *profiler.Pipeline, cfg *config.Config) *Handler {
	h := &Handler{
		db:           db,
		sync:         syncManager,
		orchestrator: orchestrator,
		engine:       engine,
		menu:         menu,
		pipeline:     pipeline,
		config:       cfg,
		startTime:    time.Now(),
		cache:        cache.New("response", 5*time.Minute),
		perfMon:      middleware.NewPerformanceMonitor(1000),
	}

	// Console syncs rewrite inventory under cached responses, so a completed
	// sync flushes the response cache and the rendered filter menu together.
	if syncManager != nil {
		syncManager.SetOnSyncCompleted(h.OnSyncCompleted)
	}

	return h
}

// ClearCache removes all cached API responses.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

// OnSyncCompleted is invoked by the sync manager after each successful sync.
func (h *Handler) OnSyncCompleted(newRecords int, durationMs int64) {
	logging.Info().
		Int("new_records", newRecords).
		Int64("duration_ms", durationMs).
		Msg("Sync completed, invalidating caches")

	h.ClearCache()
	if h.menu != nil {
		h.menu.Invalidate()
	}
}

// GetCacheStats returns cache performance statistics.
func (h *Handler) GetCacheStats() cache.Stats {
	if h.cache != nil {
		return h.cache.GetStats()
	}
	return cache.Stats{}
}

// GetPerformanceStats returns per-endpoint latency statistics.
func (h *Handler) GetPerformanceStats() []middleware.EndpointStats {
	if h.perfMon != nil {
		return h.perfMon.GetStats()
	}
	return nil
}
