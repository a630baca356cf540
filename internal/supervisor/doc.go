// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package supervisor runs the long-lived parts of the service under a
// suture supervision tree.
//
// The tree has two layers under the root:
//
//   - workers: the console sync manager (inventory sync loop plus the
//     hold-expiry sweeper) and the store janitor
//   - api: the HTTP server
//
// The layers isolate failures. A crashing sync loop is restarted with
// backoff while the API keeps serving whatever inventory is already in
// the database; the reverse holds for an API crash during a sync cycle.
//
// Components expose Start/Stop (sync.Manager) or
// ListenAndServe/Shutdown (http.Server) lifecycles; the wrappers in
// this package adapt both shapes to suture's blocking Serve(ctx)
// contract. Supervisor events (panics, backoff, stop timeouts) are
// forwarded to the service log.
//
// Usage:
//
//	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
//	tree.AddWorker(supervisor.NewSyncService(syncManager))
//	tree.AddAPI(supervisor.NewHTTPServerService(server, 10*time.Second))
//	if err := tree.Serve(ctx); err != nil { ... }
package supervisor
