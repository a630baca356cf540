// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/session"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/xia"
)

// ChatRequest is the body of POST /api/v1/chat. SessionID is optional; the
// server mints one for the first turn of a conversation.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	UserID    string `json:"user_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// ChatOpenRequest is the body of POST /api/v1/chat-open. The page context
// tells the assistant what the console is currently showing.
type ChatOpenRequest struct {
	SessionID   string          `json:"session_id" validate:"omitempty,max=128"`
	UserID      string          `json:"user_id" validate:"required,max=128"`
	Message     string          `json:"message" validate:"required,max=4000"`
	PageContext xia.PageContext `json:"page_context"`
}

// Chat handles one conversational turn of the screen discovery assistant.
//
// Method: POST
// Path: /api/v1/chat
//
// Response:
//   - 200: Turn processed, body carries the assistant reply and ranked screens
//   - 400: Malformed body or validation failure
//   - 429: Per-session message budget exhausted
//   - 500: Turn failed (LLM fallbacks exhausted or session store error)
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.orchestrator == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Chat engine not available", nil)
		return
	}

	var req ChatRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	start := time.Now()
	resp, err := h.orchestrator.HandleTurn(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		h.respondChatError(w, r, req.SessionID, err)
		return
	}

	respondNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// ChatOpen handles one turn of the live-mode assistant, which answers
// questions about whatever console page the user is looking at.
//
// Method: POST
// Path: /api/v1/chat-open
func (h *Handler) ChatOpen(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.orchestrator == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Chat engine not available", nil)
		return
	}

	var req ChatOpenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	start := time.Now()
	resp, err := h.orchestrator.HandleLiveTurn(r.Context(), req.SessionID, req.UserID, req.Message, req.PageContext)
	if err != nil {
		h.respondChatError(w, r, req.SessionID, err)
		return
	}

	respondNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// ChatSession returns the stored conversation state for a session.
//
// Method: GET
// Path: /api/v1/chat/{session_id}
//
// Response:
//   - 200: Session found
//   - 404: Unknown or expired session
func (h *Handler) ChatSession(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.orchestrator == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Chat engine not available", nil)
		return
	}

	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeInputInvalid, "session_id is required", nil)
		return
	}

	sess, err := h.orchestrator.Session(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Failed to load session", err)
		return
	}

	respondNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   sess,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// respondChatError maps orchestrator errors onto the API taxonomy.
func (h *Handler) respondChatError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	if errors.Is(err, xia.ErrRateLimited) {
		logging.Ctx(r.Context()).Warn().Str("session", sanitizeLogValue(sessionID)).Msg("Chat session rate limited")
		retryAfter := 0
		if h.config != nil {
			retryAfter = int(h.config.Chat.RateLimitWindow.Seconds())
		}
		respondErrorDetails(w, http.StatusTooManyRequests, &models.APIError{
			Code:    models.ErrCodeRateLimited,
			Message: "Message limit reached for this session, please wait before continuing",
			Details: map[string]interface{}{
				"retry_after_seconds": retryAfter,
			},
		})
		return
	}
	respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Chat turn failed", err)
}
