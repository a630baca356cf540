// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// DiscoverRequest is the body of POST /api/v1/discover. Dates and budget are
// required because availability is always computed against a campaign window.
type DiscoverRequest struct {
	Location      []string               `json:"location" validate:"omitempty,max=10,dive,max=200"`
	Filters       map[string]interface{} `json:"filters"`
	Excludes      map[string]interface{} `json:"excludes"`
	RemoveFilters []string               `json:"remove_filters" validate:"omitempty,max=30,dive,max=100"`
	TextSearch    string                 `json:"text_search" validate:"omitempty,max=500"`
	StartDate     string                 `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string                 `json:"end_date" validate:"required,datetime=2006-01-02"`
	BudgetRange   string                 `json:"budget_range" validate:"required,max=50"`
	Limit         int                    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Discover runs the deterministic screen discovery pass without a
// conversation: filter inventory, match locations, compute per-screen slot
// availability and budget fit.
//
// Method: POST
// Path: /api/v1/discover
//
// Response:
//   - 200: Discovery complete, body carries matched screens with availability
//   - 400: Malformed body, bad dates, or bad budget
//   - 500: Inventory query failed
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Discovery engine not available", nil)
		return
	}

	var req DiscoverRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	params := models.DiscoverParams{
		Location:      req.Location,
		Filters:       req.Filters,
		Excludes:      req.Excludes,
		RemoveFilters: req.RemoveFilters,
		TextSearch:    req.TextSearch,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		BudgetRange:   req.BudgetRange,
		Limit:         req.Limit,
	}

	start := time.Now()
	result, err := h.engine.Discover(r.Context(), params)
	if err != nil {
		// Dates are format-checked above, so a number parse failure here
		// means the budget string was unusable.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			respondError(w, http.StatusBadRequest, models.ErrCodeInputInvalid, "budget_range must be a number or a range like 50000-100000", err)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeFatal, "Discovery failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
