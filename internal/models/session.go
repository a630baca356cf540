// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package models

import (
	"time"
)

// Chat personas. Persona sticks once detected unless the user explicitly
// signals a change (anti-flicker).
const (
	PersonaAgency        = "agency"
	PersonaBusinessOwner = "business_owner"
)

// ChatMessage is a single history entry.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CampaignContext accumulates what the assistant has learned about the
// campaign across turns. Empty string means unknown.
type CampaignContext struct {
	AdCategory      string   `json:"ad_category,omitempty"`
	ProductCategory string   `json:"product_category,omitempty"`
	BrandObjective  string   `json:"brand_objective,omitempty"`
	TargetAudience  string   `json:"target_audience,omitempty"`
	Location        []string `json:"location,omitempty"`
	StartDate       string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate         string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	BudgetRange     string   `json:"budget_range,omitempty"`
}

// GatewayFieldsComplete reports whether all four gateway fields are known.
func (c *CampaignContext) GatewayFieldsComplete() bool {
	return len(c.Location) > 0 && c.StartDate != "" && c.EndDate != "" && c.BudgetRange != ""
}

// PendingGatewayEdit is a proposed change to an already-collected gateway
// field. It is never applied without explicit user confirmation.
type PendingGatewayEdit struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ChatSession is the full per-conversation state. It is loaded, mutated by
// exactly one turn at a time, and persisted once per turn.
type ChatSession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	History []ChatMessage `json:"history"`

	// Active discover state.
	Filters    map[string]interface{} `json:"filters"`
	Excludes   map[string]interface{} `json:"excludes"`
	TextSearch string                 `json:"text_search,omitempty"`

	// Snapshot of Filters/Excludes before the last mutation, for revert.
	PreviousFilters  map[string]interface{} `json:"previous_filters,omitempty"`
	PreviousExcludes map[string]interface{} `json:"previous_excludes,omitempty"`

	Campaign CampaignContext `json:"campaign"`

	// Persona sticks between turns; PersonaConfidence gates switching.
	Persona           string  `json:"persona,omitempty"`
	PersonaConfidence float64 `json:"persona_confidence,omitempty"`

	PendingEdit       *PendingGatewayEdit `json:"pending_edit,omitempty"`
	DiscoveryComplete bool                `json:"discovery_complete"`

	// QuestionAttempts counts how often each missing gateway field has been
	// asked about, capped by the orchestrator.
	QuestionAttempts map[string]int `json:"question_attempts,omitempty"`

	// LastRanking preserves the most recent ranked screen ids for revert
	// and restore flows.
	LastRanking []string `json:"last_ranking,omitempty"`

	// UserMessageTimes is the sliding window used for per-session rate
	// limiting.
	UserMessageTimes []time.Time `json:"user_message_times,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChatSession returns an initialized session.
func NewChatSession(sessionID, userID string) *ChatSession {
	now := time.Now().UTC()
	return &ChatSession{
		SessionID:        sessionID,
		UserID:           userID,
		Filters:          make(map[string]interface{}),
		Excludes:         make(map[string]interface{}),
		QuestionAttempts: make(map[string]int),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// SnapshotFilters stores the current filter state for a later revert.
func (s *ChatSession) SnapshotFilters() {
	s.PreviousFilters = cloneFilterMap(s.Filters)
	s.PreviousExcludes = cloneFilterMap(s.Excludes)
}

// RevertFilters restores the last snapshot. Returns false when there is
// nothing to revert to.
func (s *ChatSession) RevertFilters() bool {
	if s.PreviousFilters == nil && s.PreviousExcludes == nil {
		return false
	}
	s.Filters = cloneFilterMap(s.PreviousFilters)
	s.Excludes = cloneFilterMap(s.PreviousExcludes)
	if s.Filters == nil {
		s.Filters = make(map[string]interface{})
	}
	if s.Excludes == nil {
		s.Excludes = make(map[string]interface{})
	}
	return true
}

// Reset clears conversational state but keeps the session identity.
func (s *ChatSession) Reset() {
	s.History = nil
	s.Filters = make(map[string]interface{})
	s.Excludes = make(map[string]interface{})
	s.TextSearch = ""
	s.PreviousFilters = nil
	s.PreviousExcludes = nil
	s.Campaign = CampaignContext{}
	s.Persona = ""
	s.PersonaConfidence = 0
	s.PendingEdit = nil
	s.DiscoveryComplete = false
	s.QuestionAttempts = make(map[string]int)
	s.LastRanking = nil
	s.UpdatedAt = time.Now().UTC()
}

func cloneFilterMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
