// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/session"
)

func newTestOrchestrator(t *testing.T, db *database.DB, llm Completer, cfg config.ChatConfig) (*Orchestrator, *session.Store) {
	t.Helper()
	store, err := session.Open("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	o := NewOrchestrator(store, db, NewEngine(db, cfg), NewFilterMenu(db), NewPipeline(llm), cfg)
	return o, store
}

// seedReadySession stores a session whose gateway fields are already
// collected, so turns go straight to the understanding pipeline.
func seedReadySession(t *testing.T, store *session.Store, sessionID string) *models.ChatSession {
	t.Helper()
	sess := models.NewChatSession(sessionID, "u1")
	sess.Campaign = models.CampaignContext{
		Location:    []string{"Chennai"},
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-11",
		BudgetRange: "50000",
	}
	require.NoError(t, store.Save(sess))
	return sess
}

const understandScreenSearch = `{
	"intent": "screen_search",
	"detected_persona": "business_owner",
	"persona_confidence": 0.7,
	"filters": {},
	"exclude": {}
}`

const plainReply = `{"reply": "Here you go.", "quick_replies": ["Refine", "Start over"]}`

func TestHandleTurnGatewayCollectionPhase(t *testing.T) {
	db := testDB(t)
	llm := &scriptedLLM{responses: []string{`{
		"extracted": {"location": ["Chennai"], "start_date": "2026-03-01", "end_date": null, "budget_range": null},
		"reply": "Chennai, got it. When should the campaign run?",
		"quick_replies": ["Next week", "Next month"]
	}`}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "I want to advertise in Chennai")
	require.NoError(t, err)
	assert.Equal(t, IntentGatewayCollection, resp.Intent)
	assert.Empty(t, resp.Screens)
	assert.Equal(t, 1, llm.callCount(), "gateway phase makes exactly one call")

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chennai"}, sess.Campaign.Location)
	assert.Equal(t, "2026-03-01", sess.Campaign.StartDate)
	assert.Empty(t, sess.Campaign.EndDate)
	assert.Len(t, sess.History, 2)
}

func TestHandleTurnRunsPipelineWhenGatewayComplete(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{understandScreenSearch, plainReply}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	seedReadySession(t, store, "s1")

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "show me screens")
	require.NoError(t, err)
	assert.Equal(t, IntentScreenSearch, resp.Intent)
	require.Len(t, resp.Screens, 1)
	assert.Equal(t, "chn-1", resp.Screens[0].ScreenID)
	assert.Equal(t, 100.0, resp.Screens[0].Score)
	assert.Equal(t, "Here you go.", resp.Reply)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"chn-1"}, sess.LastRanking)
	assert.Equal(t, models.PersonaBusinessOwner, sess.Persona)
}

func TestHandleTurnRateLimit(t *testing.T) {
	db := testDB(t)
	cfg := testChatConfig()
	cfg.RateLimitMessages = 2
	llm := &scriptedLLM{responses: []string{`{"extracted": {}, "reply": "Which city?", "quick_replies": []}`}}
	o, _ := newTestOrchestrator(t, db, llm, cfg)

	for i := 0; i < 2; i++ {
		_, err := o.HandleTurn(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
	}
	_, err := o.HandleTurn(context.Background(), "s1", "u1", "hello again")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHandleTurnGreetingSuppressesScreens(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "greeting", "detected_persona": "business_owner", "persona_confidence": 0.5, "filters": {}, "exclude": {}}`,
		`{"reply": "Hi there!", "quick_replies": []}`,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	seedReadySession(t, store, "s1")

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, IntentGreeting, resp.Intent)
	assert.Empty(t, resp.Screens)
	assert.Equal(t, 2, llm.callCount(), "greeting skips discover and ranking")
}

func TestHandleTurnFilterStackingAndRevert(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	o, store := newTestOrchestrator(t, db, &scriptedLLM{}, testChatConfig())
	seedReadySession(t, store, "s1")

	turn := func(llmScript ...string) *models.ChatSession {
		t.Helper()
		o.pipeline = NewPipeline(&scriptedLLM{responses: llmScript})
		_, err := o.HandleTurn(context.Background(), "s1", "u1", "message")
		require.NoError(t, err)
		sess, err := store.Get("s1")
		require.NoError(t, err)
		return sess
	}

	sess := turn(`{"intent": "refinement", "filters": {"environment": "Outdoor"}, "exclude": {}}`, plainReply)
	assert.Equal(t, "Outdoor", sess.Filters["environment"])

	// A second filter stacks on the first.
	sess = turn(`{"intent": "refinement", "filters": {"screen_type": "LED"}, "exclude": {}}`, plainReply)
	assert.Equal(t, "Outdoor", sess.Filters["environment"])
	assert.Equal(t, "LED", sess.Filters["screen_type"])

	// Revert restores the pre-mutation snapshot.
	sess = turn(`{"intent": "revert", "filters": {}, "exclude": {}}`, plainReply)
	assert.Equal(t, "Outdoor", sess.Filters["environment"])
	assert.NotContains(t, sess.Filters, "screen_type")

	// show_all clears everything.
	sess = turn(`{"intent": "show_all", "filters": {}, "exclude": {}}`, plainReply)
	assert.Empty(t, sess.Filters)
	assert.Empty(t, sess.Excludes)
}

func TestHandleTurnSpecCityBecomesPendingEdit(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "refinement", "filters": {"spec_city": "Mumbai"}, "exclude": {}}`,
		`{"reply": "Want me to add Mumbai to your campaign?", "quick_replies": ["Yes", "No"]}`,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	seedReadySession(t, store, "s1")

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "what about Mumbai?")
	require.NoError(t, err)
	assert.Equal(t, IntentGatewayEditPending, resp.Intent)
	require.NotNil(t, resp.PendingEdit)
	assert.Equal(t, "gateway_location_add", resp.PendingEdit.Field)
	assert.Equal(t, "Mumbai", resp.PendingEdit.NewValue)
	assert.Empty(t, resp.Screens)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.NotContains(t, sess.Filters, "spec_city")
	assert.Equal(t, []string{"Chennai"}, sess.Campaign.Location, "edit not applied without confirmation")
}

func TestHandleTurnPendingEditAccept(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "gateway_edit_pending", "filters": {}, "exclude": {}}`,
		plainReply,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	sess := seedReadySession(t, store, "s1")
	sess.PendingEdit = &models.PendingGatewayEdit{
		Field: "gateway_location_add", OldValue: "Chennai", NewValue: "Mumbai",
	}
	require.NoError(t, store.Save(sess))

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "yes, add it")
	require.NoError(t, err)
	assert.Nil(t, resp.PendingEdit)

	sess, err = store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chennai", "Mumbai"}, sess.Campaign.Location)
}

func TestHandleTurnPendingEditReject(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "gateway_edit_pending", "filters": {}, "exclude": {}}`,
		plainReply,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	sess := seedReadySession(t, store, "s1")
	sess.PendingEdit = &models.PendingGatewayEdit{
		Field: "gateway_budget_range", OldValue: "50000", NewValue: "80000",
	}
	require.NoError(t, store.Save(sess))

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "no, keep current")
	require.NoError(t, err)
	assert.Nil(t, resp.PendingEdit)

	sess, err = store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "50000", sess.Campaign.BudgetRange)
}

func TestHandleTurnPendingEditNoSignalStaysPending(t *testing.T) {
	db := testDB(t)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "refinement", "filters": {}, "exclude": {}}`,
		plainReply,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	sess := seedReadySession(t, store, "s1")
	sess.PendingEdit = &models.PendingGatewayEdit{
		Field: "gateway_start_date", OldValue: "2026-03-01", NewValue: "2026-04-01",
	}
	require.NoError(t, store.Save(sess))

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "what does that change?")
	require.NoError(t, err)
	assert.Equal(t, IntentGatewayEditPending, resp.Intent)
	require.NotNil(t, resp.PendingEdit)
	assert.Equal(t, "gateway_start_date", resp.PendingEdit.Field)
}

func TestHandleTurnStartOverResets(t *testing.T) {
	db := testDB(t)
	llm := &scriptedLLM{responses: []string{
		`{"intent": "start_over", "filters": {}, "exclude": {}}`,
		`{"reply": "Fresh start! Tell me about your campaign.", "quick_replies": []}`,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	sess := seedReadySession(t, store, "s1")
	sess.Filters["environment"] = "Outdoor"
	sess.Persona = models.PersonaAgency
	require.NoError(t, store.Save(sess))

	resp, err := o.HandleTurn(context.Background(), "s1", "u1", "start over")
	require.NoError(t, err)
	assert.Equal(t, IntentStartOver, resp.Intent)

	sess, err = store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Filters)
	assert.Empty(t, sess.Persona)
	assert.False(t, sess.Campaign.GatewayFieldsComplete())
}

func TestInterceptBudget(t *testing.T) {
	o := &Orchestrator{}

	u := &Understanding{Filters: map[string]interface{}{"price_per_slot": 50000.0}, GatewayEdits: map[string]interface{}{}}
	o.interceptBudget(u, "my budget is 50000")
	assert.NotContains(t, u.Filters, "price_per_slot")
	assert.Equal(t, "50000", u.GatewayEdits["gateway_budget_range"])

	u = &Understanding{Intent: IntentRefinement, Filters: map[string]interface{}{
		"price_per_slot": map[string]interface{}{"lte": 500.0},
	}, GatewayEdits: map[string]interface{}{}}
	o.interceptBudget(u, "screens under 500 per slot")
	assert.Contains(t, u.Filters, "price_per_slot")
	assert.Equal(t, IntentRefinement, u.Intent)

	u = &Understanding{Intent: IntentRefinement, Filters: map[string]interface{}{"price_per_slot": 5000.0}, GatewayEdits: map[string]interface{}{}}
	o.interceptBudget(u, "around 5000")
	assert.NotContains(t, u.Filters, "price_per_slot")
	assert.Equal(t, IntentNeedsMoreInfo, u.Intent)
	assert.NotEmpty(t, u.QuestionToAsk)
}

func TestScrubUnderstanding(t *testing.T) {
	u := &Understanding{
		ProductCategory: "not specified",
		BrandObjective:  "awareness",
		Filters:         map[string]interface{}{"environment": "unknown", "screen_type": "LED"},
		Exclude:         map[string]interface{}{},
		GatewayEdits:    map[string]interface{}{"gateway_budget_range": "n/a"},
	}
	scrubUnderstanding(u)
	assert.Empty(t, u.ProductCategory)
	assert.Equal(t, "awareness", u.BrandObjective)
	assert.NotContains(t, u.Filters, "environment")
	assert.Equal(t, "LED", u.Filters["screen_type"])
	assert.Empty(t, u.GatewayEdits)
}

func TestAccumulateCampaignPersonaAntiFlicker(t *testing.T) {
	o := &Orchestrator{}
	sess := models.NewChatSession("s1", "u1")

	// First detection sticks.
	o.accumulateCampaign(sess, &Understanding{DetectedPersona: models.PersonaBusinessOwner, PersonaConfidence: 0.6})
	assert.Equal(t, models.PersonaBusinessOwner, sess.Persona)
	assert.Equal(t, 0.6, sess.PersonaConfidence)

	// Same persona again gets a small boost.
	o.accumulateCampaign(sess, &Understanding{DetectedPersona: models.PersonaBusinessOwner, PersonaConfidence: 0.3})
	assert.InDelta(t, 0.65, sess.PersonaConfidence, 1e-9)

	// Weak contrary detection does not flip the persona.
	o.accumulateCampaign(sess, &Understanding{DetectedPersona: models.PersonaAgency, PersonaConfidence: 0.7})
	assert.Equal(t, models.PersonaBusinessOwner, sess.Persona)

	// A confident detection does.
	o.accumulateCampaign(sess, &Understanding{DetectedPersona: models.PersonaAgency, PersonaConfidence: 0.85})
	assert.Equal(t, models.PersonaAgency, sess.Persona)
	assert.Equal(t, 0.85, sess.PersonaConfidence)
}

func TestAccumulateCampaignDiscoveryComplete(t *testing.T) {
	o := &Orchestrator{}
	sess := models.NewChatSession("s1", "u1")

	o.accumulateCampaign(sess, &Understanding{AdCategory: "food", BrandObjective: "awareness"})
	assert.False(t, sess.DiscoveryComplete)

	o.accumulateCampaign(sess, &Understanding{TargetAudience: "young professionals"})
	assert.True(t, sess.DiscoveryComplete)
}

func TestNextQuestionTopicHonorsAttemptCap(t *testing.T) {
	o := &Orchestrator{cfg: testChatConfig()}
	sess := models.NewChatSession("s1", "u1")

	assert.Equal(t, "ad_category", o.nextQuestionTopic(sess))

	// Two unanswered attempts exhaust the topic; the pipeline moves on.
	sess.QuestionAttempts["ad_category"] = 2
	assert.Equal(t, "brand_objective", o.nextQuestionTopic(sess))

	sess.Campaign.BrandObjective = "awareness"
	sess.QuestionAttempts["target_audience"] = 2
	assert.Empty(t, o.nextQuestionTopic(sess))
}

func TestMessageHasSignal(t *testing.T) {
	assert.True(t, messageHasSignal("Yes, go ahead!", editAcceptSignals))
	assert.True(t, messageHasSignal("please keep current setup", editRejectSignals))
	assert.False(t, messageHasSignal("yesterday was fine", editAcceptSignals), "word boundary matters")
	assert.False(t, messageHasSignal("tell me more", editAcceptSignals))
}

func TestHandleLiveTurnInit(t *testing.T) {
	db := testDB(t)
	llm := &scriptedLLM{responses: []string{
		`{"reply": "You're on the dashboard. It shows your active campaigns.", "quick_replies": ["What can I do here?"]}`,
	}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())

	pc := PageContext{Page: "dashboard", PageLabel: "Dashboard"}
	resp, err := o.HandleLiveTurn(context.Background(), "s1", "u1", LiveModeInit, pc)
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "dashboard")

	// The sentinel never lands in history as a user message.
	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "assistant", sess.History[0].Role)
}

func TestHandleLiveTurnRedirect(t *testing.T) {
	db := testDB(t)
	llm := &scriptedLLM{responses: []string{
		`{"reply": "Taking you to your campaigns.", "quick_replies": [], "redirect": {"path": "/dashboard/campaigns", "label": "My Campaigns"}}`,
	}}
	o, _ := newTestOrchestrator(t, db, llm, testChatConfig())

	resp, err := o.HandleLiveTurn(context.Background(), "s1", "u1", "show my campaigns", PageContext{Page: "dashboard"})
	require.NoError(t, err)
	require.NotNil(t, resp.Redirect)
	assert.Equal(t, "/dashboard/campaigns", resp.Redirect.Path)
}

func TestCreativeBrief(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	llm := &scriptedLLM{responses: []string{`{
		"headline": "Taste the city",
		"sub_text": "Fresh meals, minutes away",
		"call_to_action": "Order now"
	}`}}
	o, store := newTestOrchestrator(t, db, llm, testChatConfig())
	seedReadySession(t, store, "s1")

	brief, err := o.CreativeBrief(context.Background(), "s1", "chn-1")
	require.NoError(t, err)
	assert.Equal(t, "Taste the city", brief.Headline)

	_, err = o.CreativeBrief(context.Background(), "s1", "missing")
	assert.Error(t, err)
}
