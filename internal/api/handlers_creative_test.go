// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

func TestCreativeSuggestion_OK(t *testing.T) {
	handler, store, db := newChatHandler(t, &stubLLM{responses: []string{
		`{"headline": "Own the Morning Commute"}`,
	}})
	seedAPIScreen(t, db, "chn-1", "Chennai", nil)

	sess := models.NewChatSession("s1", "u1")
	sess.Campaign.ProductCategory = "coffee"
	if err := store.Save(sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	router := newTestRouter(handler)
	rec := doJSON(t, router, "POST", "/api/v1/creative-suggestion", map[string]string{
		"session_id": "s1",
		"screen_id":  "chn-1",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var brief models.CreativeBrief
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &brief); err != nil {
		t.Fatalf("decode brief: %v", err)
	}
	if brief.Headline != "Own the Morning Commute" {
		t.Errorf("Headline = %q", brief.Headline)
	}
}

func TestCreativeSuggestion_SessionNotFound(t *testing.T) {
	handler, _, db := newChatHandler(t, &stubLLM{})
	seedAPIScreen(t, db, "chn-1", "Chennai", nil)

	rec := doJSON(t, http.HandlerFunc(handler.CreativeSuggestion), "POST", "/api/v1/creative-suggestion", map[string]string{
		"session_id": "no-such-session",
		"screen_id":  "chn-1",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "Session not found" {
		t.Errorf("error = %+v, want session not found", env.Error)
	}
}

func TestCreativeSuggestion_ScreenNotFound(t *testing.T) {
	handler, store, _ := newChatHandler(t, &stubLLM{})

	if err := store.Save(models.NewChatSession("s1", "u1")); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	rec := doJSON(t, http.HandlerFunc(handler.CreativeSuggestion), "POST", "/api/v1/creative-suggestion", map[string]string{
		"session_id": "s1",
		"screen_id":  "ghost",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "Screen not found" {
		t.Errorf("error = %+v, want screen not found", env.Error)
	}
}

func TestCreativeSuggestion_ValidationError(t *testing.T) {
	handler, _, _ := newChatHandler(t, &stubLLM{})

	rec := doJSON(t, http.HandlerFunc(handler.CreativeSuggestion), "POST", "/api/v1/creative-suggestion", map[string]string{
		"session_id": "s1",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != models.ErrCodeValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}
