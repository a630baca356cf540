// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
)

// TreeConfig holds supervision parameters shared by every layer.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns production defaults. These match suture's
// own built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the supervision hierarchy for the service: a root supervisor
// with a worker layer (console sync, hold sweeper) and an API layer
// (HTTP server). A crash in one layer restarts within that layer and
// never takes the other down with it.
type Tree struct {
	root    *suture.Supervisor
	workers *suture.Supervisor
	api     *suture.Supervisor
	config  TreeConfig
}

// NewTree creates the supervision tree. Zero config values fall back to
// the defaults.
func NewTree(config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	rootSpec := suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Child supervisors inherit the event hook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("studio-screen", rootSpec)
	workers := suture.New("worker-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(workers)
	root.Add(api)

	return &Tree{
		root:    root,
		workers: workers,
		api:     api,
		config:  config,
	}
}

// Root returns the root supervisor for direct access if needed.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddWorker adds a service to the worker layer. Use this for the sync
// manager and any other background loop.
func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// AddAPI adds a service to the API layer. Use this for the HTTP server.
func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// RemoveWorker removes a service previously added with AddWorker.
func (t *Tree) RemoveWorker(token suture.ServiceToken) error {
	return t.workers.Remove(token)
}

// Serve starts the tree and blocks until the context is canceled. This
// is the main entry point for running the supervised service.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine. The
// returned channel receives the error (or nil) when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// configured shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// logEvent forwards supervisor events to the service log. Suture
// reports restarts, panics, and shutdown stragglers through this hook;
// severity follows the event type.
func logEvent(event suture.Event) {
	fields := event.Map()
	switch event.Type() {
	case suture.EventTypeServicePanic:
		logging.Error().Fields(fields).Msg("Supervised service panicked")
	case suture.EventTypeStopTimeout:
		logging.Error().Fields(fields).Msg("Supervised service did not stop within timeout")
	case suture.EventTypeServiceTerminate:
		logging.Warn().Fields(fields).Msg("Supervised service terminated, restarting")
	case suture.EventTypeBackoff:
		logging.Warn().Fields(fields).Msg("Supervisor entering backoff")
	case suture.EventTypeResume:
		logging.Info().Fields(fields).Msg("Supervisor resumed")
	default:
		logging.Info().Fields(fields).Msg(event.String())
	}
}
