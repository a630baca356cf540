// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// scriptedLLM replays canned responses in order. Once the script runs out it
// repeats the last entry, so multi-call turns stay easy to set up.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     [][]Message
}

func (s *scriptedLLM) Complete(_ context.Context, messages []Message, _ float64, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, messages)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "{}", nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func discoveredScreen(id string, available bool) models.DiscoveredScreen {
	return models.DiscoveredScreen{
		Screen:       models.Screen{ScreenID: id, Name: "Screen " + id, SpecCity: "Chennai"},
		Availability: models.ScreenAvailability{Available: available},
	}
}

func TestUnderstandParsesResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{
		"intent": "screen_search",
		"detected_persona": "agency",
		"persona_confidence": 0.9,
		"product_category": "food",
		"filters": {"environment": "Outdoor"}
	}`}}
	p := NewPipeline(llm)

	u := p.Understand(context.Background(), models.NewChatSession("s1", "u1"), "menu", "", "outdoor screens please")
	assert.False(t, u.Fallback)
	assert.Equal(t, IntentScreenSearch, u.Intent)
	assert.Equal(t, models.PersonaAgency, u.DetectedPersona)
	assert.Equal(t, "food", u.ProductCategory)
	assert.Equal(t, "Outdoor", u.Filters["environment"])
	assert.NotNil(t, u.Exclude)
}

func TestUnderstandFallbackOnError(t *testing.T) {
	p := NewPipeline(&scriptedLLM{err: errors.New("connection refused")})

	u := p.Understand(context.Background(), models.NewChatSession("s1", "u1"), "menu", "", "hello")
	assert.True(t, u.Fallback)
	assert.Equal(t, IntentGreeting, u.Intent)
	assert.Equal(t, models.PersonaBusinessOwner, u.DetectedPersona)
}

func TestUnderstandFallbackOnGarbage(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []string{"sorry, I cannot help with that"}})

	u := p.Understand(context.Background(), models.NewChatSession("s1", "u1"), "menu", "", "hello")
	assert.True(t, u.Fallback)
}

func TestRankEmptyAndSingle(t *testing.T) {
	llm := &scriptedLLM{}
	p := NewPipeline(llm)
	u := understandingFallback()

	assert.Nil(t, p.Rank(context.Background(), u, "msg", nil))
	assert.Zero(t, llm.callCount())

	ranked := p.Rank(context.Background(), u, "msg", []models.DiscoveredScreen{discoveredScreen("a", true)})
	require.Len(t, ranked, 1)
	assert.Equal(t, 100.0, ranked[0].Score)
	assert.Equal(t, "Only matching screen for this search.", ranked[0].Summary)
	assert.Zero(t, llm.callCount(), "single screen bypasses the ranking call")
}

func TestRankSortsByScore(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{
		"ranking": ["b", "a"],
		"scores": {
			"a": {"total": 60, "summary": "Decent fit."},
			"b": {"total": 85, "summary": "Strong fit."}
		}
	}`}}
	p := NewPipeline(llm)

	ranked := p.Rank(context.Background(), understandingFallback(), "msg", []models.DiscoveredScreen{
		discoveredScreen("a", true),
		discoveredScreen("b", true),
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].ScreenID)
	assert.Equal(t, 85.0, ranked[0].Score)
	assert.Equal(t, "a", ranked[1].ScreenID)
}

func TestRankFailedCallKeepsScreensAtZero(t *testing.T) {
	p := NewPipeline(&scriptedLLM{err: errors.New("timeout")})

	ranked := p.Rank(context.Background(), understandingFallback(), "msg", []models.DiscoveredScreen{
		discoveredScreen("a", true),
		discoveredScreen("b", false),
	})
	require.Len(t, ranked, 2)
	for _, r := range ranked {
		assert.Zero(t, r.Score)
		assert.Equal(t, "Ranking unavailable for this screen.", r.Summary)
	}
}

func TestRankSplitsIntoBatches(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"ranking": [], "scores": {}}`}}
	p := NewPipeline(llm)

	screens := make([]models.DiscoveredScreen, rankingBatchSize+1)
	for i := range screens {
		screens[i] = discoveredScreen(fmt.Sprintf("s%02d", i), true)
	}
	ranked := p.Rank(context.Background(), understandingFallback(), "msg", screens)
	assert.Len(t, ranked, rankingBatchSize+1)
	assert.Equal(t, 2, llm.callCount())
}

func TestRankIgnoresUnknownScreenIDs(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{
		"scores": {
			"a": {"total": 70, "summary": "ok"},
			"phantom": {"total": 99, "summary": "not in batch"}
		}
	}`}}
	p := NewPipeline(llm)

	ranked := p.Rank(context.Background(), understandingFallback(), "msg", []models.DiscoveredScreen{
		discoveredScreen("a", true),
		discoveredScreen("b", true),
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ScreenID)
	assert.Equal(t, 70.0, ranked[0].Score)
	assert.Equal(t, "b", ranked[1].ScreenID)
	assert.Zero(t, ranked[1].Score)
}

func TestRespondCapsQuickReplies(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{
		"reply": "Here are your screens!",
		"quick_replies": ["one", "two", "three", "four"]
	}`}}
	p := NewPipeline(llm)

	reply := p.Respond(context.Background(), models.NewChatSession("s1", "u1"), call3Input{
		Intent: IntentScreenSearch, UserMessage: "show me",
	})
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Here are your screens!", reply.Reply)
	assert.Len(t, reply.QuickReplies, 3)
}

func TestRespondFallbacks(t *testing.T) {
	p := NewPipeline(&scriptedLLM{err: errors.New("down")})
	sess := models.NewChatSession("s1", "u1")

	reply := p.Respond(context.Background(), sess, call3Input{Intent: IntentGreeting})
	assert.True(t, reply.Fallback)
	assert.Equal(t, "Hi! I'm XIA, your screen planning assistant. Tell me about your campaign!", reply.Reply)

	reply = p.Respond(context.Background(), sess, call3Input{
		Intent: IntentScreenSearch, TotalScreens: 12, AvailableScreens: 9,
	})
	assert.True(t, reply.Fallback)
	assert.Contains(t, reply.Reply, "12 screens")
	assert.Contains(t, reply.Reply, "9 available")
}

func TestRespondEmptyReplyFallsBack(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []string{`{"reply": "", "quick_replies": []}`}})

	reply := p.Respond(context.Background(), models.NewChatSession("s1", "u1"), call3Input{Intent: IntentGreeting})
	assert.True(t, reply.Fallback)
}

func TestCollectGatewayExtraction(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{
		"extracted": {
			"location": ["Chennai"],
			"start_date": "2026-03-01",
			"end_date": null,
			"budget_range": "50000"
		},
		"reply": "Great, Chennai it is. When should the campaign end?",
		"quick_replies": ["2 weeks", "1 month", "Custom dates"]
	}`}}
	p := NewPipeline(llm)

	result := p.CollectGateway(context.Background(), models.NewChatSession("s1", "u1"), "Chennai from March 1, 50k budget")
	assert.False(t, result.Fallback)
	assert.Equal(t, []string{"Chennai"}, result.Extracted.Location)
	require.NotNil(t, result.Extracted.StartDate)
	assert.Equal(t, "2026-03-01", *result.Extracted.StartDate)
	assert.Nil(t, result.Extracted.EndDate)
	require.NotNil(t, result.Extracted.BudgetRange)
	assert.Equal(t, "50000", *result.Extracted.BudgetRange)
}

func TestCollectGatewayFallbackAsksNextMissingField(t *testing.T) {
	p := NewPipeline(&scriptedLLM{err: errors.New("down")})

	sess := models.NewChatSession("s1", "u1")
	sess.Campaign.Location = []string{"Chennai"}
	result := p.CollectGateway(context.Background(), sess, "hello")
	assert.True(t, result.Fallback)
	assert.Contains(t, result.Reply, "start")
}

func TestCreativeSuggestPropagatesErrors(t *testing.T) {
	p := NewPipeline(&scriptedLLM{err: errors.New("down")})

	_, err := p.CreativeSuggest(context.Background(), models.NewChatSession("s1", "u1"), &models.Screen{ScreenID: "a", Name: "Screen a"})
	assert.Error(t, err)
}

func TestParseJSONObject(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}

	require.NoError(t, parseJSONObject(`{"intent": "greeting"}`, &out))
	assert.Equal(t, "greeting", out.Intent)

	require.NoError(t, parseJSONObject("```json\n{\"intent\": \"revert\"}\n```", &out))
	assert.Equal(t, "revert", out.Intent)

	require.NoError(t, parseJSONObject(`Sure! Here you go: {"intent": "show_all"} Hope that helps.`, &out))
	assert.Equal(t, "show_all", out.Intent)

	assert.Error(t, parseJSONObject("no json here", &out))
}

func TestNearbySummary(t *testing.T) {
	got := nearbySummary("RETAIL:3, FOOD_BEVERAGE:12, HEALTHCARE:1, EDUCATION:5, TRANSIT:7, SERVICES:2")
	assert.Equal(t, "FOOD_BEVERAGE:12, TRANSIT:7, EDUCATION:5, RETAIL:3, SERVICES:2", got)

	assert.Empty(t, nearbySummary(""))
	assert.Empty(t, nearbySummary("garbage"))
}

func TestBuildSpeakHints(t *testing.T) {
	hints := buildSpeakHints("COMMERCIAL", "PEDESTRIAN", "LONG_WAIT", "RETAIL:3")
	assert.Equal(t, "this is a walkable area with steady foot traffic", hints.Movement)
	assert.Equal(t, "shops nearby", hints.Nearby)

	hints = buildSpeakHints("MIXED", "PEDESTRIAN", "LONG_WAIT", "RETAIL:3, FOOD_BEVERAGE:2")
	assert.Empty(t, hints.Area, "mixed areas get no area phrase")
	assert.Contains(t, hints.Nearby, " and ")

	hints = buildSpeakHints("COMMERCIAL", "PEDESTRIAN", "LONG_WAIT", "RETAIL:3, FOOD_BEVERAGE:2, TRANSIT:1")
	assert.Contains(t, hints.Nearby, ", and ")
}
