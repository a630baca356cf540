// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
)

// StartStopManager matches the sync.Manager lifecycle: Start spawns the
// internal goroutines and returns, Stop blocks until they drain.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService adapts the sync manager's Start/Stop lifecycle to
// suture's blocking Serve contract. The manager owns its goroutines
// (sync loop, hold sweeper) behind a WaitGroup, so the wrapper only
// orchestrates the transitions.
type SyncService struct {
	manager StartStopManager
	name    string
}

// NewSyncService wraps the sync manager as a supervised service.
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "console-sync",
	}
}

// Serve implements suture.Service. A Start failure is returned so
// suture restarts the service under its backoff policy.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until the manager's goroutines complete.
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *SyncService) String() string {
	return s.name
}

// HTTPServer matches the *http.Server lifecycle methods the wrapper
// needs, allowing mocks in tests.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts http.Server's blocking ListenAndServe to
// suture's context-aware Serve: the listener runs in a goroutine, and
// context cancellation triggers a graceful Shutdown bounded by the
// configured timeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps an HTTP server as a supervised service.
// The shutdownTimeout bounds how long active connections get to drain.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service. http.ErrServerClosed is the normal
// shutdown signal and never surfaces as a failure.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The serve context is already canceled; shutdown gets its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		logging.Info().Msg("HTTP server stopped")
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}

// GCRunner reclaims storage space on demand. Badger-backed stores only
// compact their value logs when asked, so something has to ask.
type GCRunner interface {
	RunGC()
}

// JanitorService periodically runs garbage collection on the stores it
// oversees, typically the session store and the persistent geo cache.
type JanitorService struct {
	interval time.Duration
	stores   []GCRunner
	name     string
}

// NewJanitorService creates a janitor sweeping every interval. An interval
// of zero or less defaults to 10 minutes.
func NewJanitorService(interval time.Duration, stores ...GCRunner) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{
		interval: interval,
		stores:   stores,
		name:     "store-janitor",
	}
}

// Serve implements suture.Service, sweeping until the context is canceled.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, store := range j.stores {
				store.RunGC()
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return j.name
}
