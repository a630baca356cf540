// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

// Router wires handlers to the Chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler. CORS origins come from
// the server configuration; an empty list blocks all cross-origin calls.
func NewRouter(handler *Handler, corsOrigins []string) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromServer(corsOrigins),
	}
}

// Handler returns the underlying API handler, mainly for tests.
func (router *Router) Handler() *Handler {
	return router.handler
}
