// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/session"
)

// CreativeRequest is the body of POST /api/v1/creative-suggestion. The brief
// is generated against the campaign context stored in the session.
type CreativeRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	ScreenID  string `json:"screen_id" validate:"required,max=128"`
}

// CreativeSuggestion generates a creative brief for one screen against the
// session's campaign context: headline, format fit, visual guidelines, and a
// production checklist grounded in the screen's hardware and area profile.
//
// Method: POST
// Path: /api/v1/creative-suggestion
//
// Response:
//   - 200: Brief generated
//   - 400: Malformed body
//   - 404: Unknown session or screen
//   - 500: Brief generation failed after fallbacks
func (h *Handler) CreativeSuggestion(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.orchestrator == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Chat engine not available", nil)
		return
	}

	var req CreativeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	brief, err := h.orchestrator.CreativeBrief(r.Context(), req.SessionID, req.ScreenID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Session not found", nil)
		case errors.Is(err, sql.ErrNoRows):
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Screen not found", nil)
		default:
			respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Creative brief generation failed", err)
		}
		return
	}

	respondNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   brief,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
