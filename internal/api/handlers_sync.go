// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"net/http"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// TriggerSync handles manual sync trigger requests. The sync itself runs in
// the background; a 202 only means it was started.
//
// Method: POST
// Path: /api/v1/sync
//
// Response:
//   - 202: Sync triggered
//   - 503: Sync manager not configured
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamUnavailable, "Sync manager not available", nil)
		return
	}

	go func() {
		if err := h.sync.TriggerSync(); err != nil {
			logging.Error().Err(err).Msg("Manual sync failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"message": "Sync triggered"},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
