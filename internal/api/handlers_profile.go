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

	"github.com/goccy/go-json"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// ProfileRequest is the body of POST /api/v1/screen-profile. Either a screen
// ID or a coordinate pair must be given; with a screen ID the computed
// profile is also persisted onto the inventory record.
type ProfileRequest struct {
	ScreenID     string   `json:"screen_id" validate:"omitempty,max=128"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	PipelineMode string   `json:"pipeline_mode" validate:"omitempty,oneof=rules hybrid full_llm research_agent"`
}

// ProfileScreen computes an area context profile for a screen or a raw
// coordinate pair.
//
// Method: POST
// Path: /api/v1/screen-profile
//
// Response:
//   - 200: Profile computed (and stored when screen_id was given)
//   - 400: Neither screen_id nor coordinates provided, or bad values
//   - 404: screen_id given but no such screen
//   - 502: Maps or LLM upstream failed
func (h *Handler) ProfileScreen(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Profiler not available", nil)
		return
	}

	var req ProfileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	var (
		lat, lng float64
		screen   *models.Screen
	)
	switch {
	case req.ScreenID != "":
		if !h.requireDB(w) {
			return
		}
		s, err := h.db.GetScreen(r.Context(), req.ScreenID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Screen not found", nil)
				return
			}
			respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Failed to load screen", err)
			return
		}
		if s.SpecLatitude == 0 && s.SpecLongitude == 0 {
			respondError(w, http.StatusBadRequest, models.ErrCodeInputInvalid, "Screen has no coordinates", nil)
			return
		}
		screen = s
		lat, lng = s.SpecLatitude, s.SpecLongitude
	case req.Latitude != nil && req.Longitude != nil:
		lat, lng = *req.Latitude, *req.Longitude
	default:
		respondError(w, http.StatusBadRequest, models.ErrCodeInputInvalid, "Either screen_id or latitude and longitude are required", nil)
		return
	}

	start := time.Now()
	profile, err := h.pipeline.Profile(r.Context(), lat, lng, req.PipelineMode)
	if err != nil {
		respondError(w, http.StatusBadGateway, models.ErrCodeUpstreamUnavailable, "Profiling failed", err)
		return
	}

	if screen != nil {
		profileJSON, err := json.Marshal(profile)
		if err != nil {
			respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Failed to encode profile", err)
			return
		}
		if err := h.db.UpdateProfile(r.Context(), screen.ScreenID, profile, string(profileJSON)); err != nil {
			respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Failed to store profile", err)
			return
		}
		logging.Ctx(r.Context()).Info().
			Str("screen", sanitizeLogValue(screen.ScreenID)).
			Str("mode", profile.Metadata.PipelineMode).
			Msg("Screen profile stored")
		h.ClearCache()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   profile,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// GetScreenProfile returns the stored area profile for a screen.
//
// Method: GET
// Path: /api/v1/screen-profile?screen_id=...
//
// Response:
//   - 200: Stored profile returned
//   - 400: screen_id missing
//   - 404: Screen unknown or never profiled
func (h *Handler) GetScreenProfile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireDB(w) {
		return
	}

	screenID := r.URL.Query().Get("screen_id")
	if screenID == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeInputInvalid, "screen_id is required", nil)
		return
	}

	screen, err := h.db.GetScreen(r.Context(), screenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Screen not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Failed to load screen", err)
		return
	}

	if screen.ProfileJSON == "" {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Screen has not been profiled", nil)
		return
	}

	var profile models.AreaProfile
	if err := json.Unmarshal([]byte(screen.ProfileJSON), &profile); err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeParseFailure, "Stored profile is unreadable", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   profile,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
