// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/session"
)

// ErrRateLimited is returned when a session exceeds its message budget.
// The API layer maps it to 429.
var ErrRateLimited = errors.New("xia: rate limited")

// LiveModeInit is the sentinel first message of a live-mode conversation.
const LiveModeInit = "[LIVE_MODE_INIT]"

// IntentGatewayCollection marks turns answered by the gateway collection
// call rather than the three-call pipeline.
const IntentGatewayCollection = "gateway_collection"

// Intents that skip discover and ranking entirely.
var skipRankingIntents = map[string]bool{
	IntentGatewayEditPending: true,
	IntentGreeting:           true,
	IntentClarification:      true,
	IntentStartOver:          true,
	IntentNeedsMoreInfo:      true,
}

// Intents whose replies must not present screen results.
var suppressScreenIntents = map[string]bool{
	IntentGatewayEditPending: true,
	IntentGreeting:           true,
	IntentStartOver:          true,
}

// Placeholder strings the understanding call emits for unknowns. They are
// scrubbed before anything reaches session state or SQL.
var placeholderValues = map[string]bool{
	"": true, "not specified": true, "unknown": true, "n/a": true,
	"none": true, "any": true,
}

// Gateway edit confirmation and rejection signals, matched against the
// user's next message while an edit is pending.
var (
	editAcceptSignals = []string{"yes", "add it", "confirm", "go ahead", "ok", "sure", "apply", "update it"}
	editRejectSignals = []string{"no", "don't", "cancel", "keep current", "skip", "remove"}
)

// Gateway edit fields in deterministic application order.
var gatewayEditFields = []string{
	"gateway_location", "gateway_location_add",
	"gateway_start_date", "gateway_end_date", "gateway_budget_range",
}

// Question pipeline topics in ask order.
var questionTopics = []string{"ad_category", "brand_objective", "target_audience"}

// Orchestrator drives one chat turn: rate limit, gateway collection, the
// three-call pipeline, deterministic filter application, and exactly one
// session save.
type Orchestrator struct {
	store    *session.Store
	db       *database.DB
	engine   *Engine
	menu     *FilterMenu
	pipeline *Pipeline
	cfg      config.ChatConfig
}

// NewOrchestrator wires the chat turn handler.
func NewOrchestrator(store *session.Store, db *database.DB, engine *Engine, menu *FilterMenu, pipeline *Pipeline, cfg config.ChatConfig) *Orchestrator {
	return &Orchestrator{
		store:    store,
		db:       db,
		engine:   engine,
		menu:     menu,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// Session loads a stored session for the history endpoint.
func (o *Orchestrator) Session(sessionID string) (*models.ChatSession, error) {
	return o.store.Get(sessionID)
}

// HandleTurn processes one user message end to end. Session state is
// mutated under the per-session lock and saved exactly once.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userID, message string) (resp *models.ChatResponse, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrRateLimited) {
			metrics.RecordChatRateLimited("chat")
			return
		}
		metrics.RecordChatTurn("chat", time.Since(start), err)
	}()

	unlock := o.store.Lock(sessionID)
	defer unlock()

	sess, err := o.store.GetOrCreate(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !o.allowMessage(sess) {
		return nil, ErrRateLimited
	}

	// Gateway collection phase: until location, dates and budget are known
	// the conversation stays in the dedicated collection call.
	if !sess.Campaign.GatewayFieldsComplete() {
		return o.gatewayTurn(ctx, sess, message)
	}

	u := o.pipeline.Understand(ctx, sess, o.menu.Render(ctx), o.nextQuestionTopic(sess), message)
	scrubUnderstanding(u)
	metrics.RecordChatIntent(u.Intent)

	// A start-over wipes everything, including the gateway.
	if u.Intent == IntentStartOver {
		sess.Reset()
		return o.finishTurn(ctx, sess, u, message, nil)
	}

	o.resolvePendingEdit(sess, u, message)
	o.interceptSpecCity(sess, u)
	o.interceptBudget(u, message)
	o.captureGatewayEdits(sess, u)
	o.applyFilterMutations(sess, u)
	o.accumulateCampaign(sess, u)

	var result *models.DiscoverResult
	if !skipRankingIntents[u.Intent] {
		result, err = o.discover(ctx, sess)
		if err != nil {
			logging.Error().Err(err).Str("session", sess.SessionID).Msg("Discover failed during turn")
			result = nil
		}
	}
	return o.finishTurn(ctx, sess, u, message, result)
}

// finishTurn runs the response call, appends history, saves the session and
// builds the API payload.
func (o *Orchestrator) finishTurn(ctx context.Context, sess *models.ChatSession, u *Understanding, message string, result *models.DiscoverResult) (*models.ChatResponse, error) {
	o.trackQuestion(sess, u)

	var (
		ranked  []models.RankedScreen
		total   int
		avail   int
		unavail map[string]int
	)
	if result != nil {
		ranked = o.pipeline.Rank(ctx, u, message, result.Screens)
		total = result.TotalMatched
		avail = result.TotalAvailable
		unavail = result.UnavailabilityInfo
	}

	var editTexts []string
	if sess.PendingEdit != nil {
		editTexts = append(editTexts, fmt.Sprintf("%s: %s", sess.PendingEdit.Field, sess.PendingEdit.NewValue))
	}

	suppress := suppressScreenIntents[u.Intent]
	reply := o.pipeline.Respond(ctx, sess, call3Input{
		Intent:            u.Intent,
		UserMessage:       message,
		QuestionToAsk:     u.QuestionToAsk,
		GatewayEditTexts:  editTexts,
		PendingEdit:       sess.PendingEdit != nil,
		SuppressScreens:   suppress,
		DiscoveryComplete: sess.DiscoveryComplete,
		Screens:           ranked,
		TotalScreens:      total,
		AvailableScreens:  avail,
		Unavailability:    unavail,
	})

	now := time.Now().UTC()
	sess.History = append(sess.History,
		models.ChatMessage{Role: "user", Content: message, Timestamp: now},
		models.ChatMessage{Role: "assistant", Content: reply.Reply, Timestamp: now},
	)
	if len(ranked) > 0 {
		ids := make([]string, len(ranked))
		for i, r := range ranked {
			ids[i] = r.ScreenID
		}
		sess.LastRanking = ids
	}
	if err := o.store.Save(sess); err != nil {
		return nil, err
	}

	resp := &models.ChatResponse{
		SessionID:         sess.SessionID,
		Reply:             reply.Reply,
		QuickReplies:      reply.QuickReplies,
		Filters:           sess.Filters,
		DiscoveryComplete: sess.DiscoveryComplete,
		Persona:           sess.Persona,
		Intent:            u.Intent,
		PendingEdit:       sess.PendingEdit,
	}
	if !suppress {
		resp.Screens = ranked
		resp.UnavailabilityInfo = unavail
	}
	return resp, nil
}

// gatewayTurn handles one message of the gateway collection phase.
func (o *Orchestrator) gatewayTurn(ctx context.Context, sess *models.ChatSession, message string) (*models.ChatResponse, error) {
	result := o.pipeline.CollectGateway(ctx, sess, message)

	if cleaned := cleanLocations(result.Extracted.Location); len(cleaned) > 0 {
		sess.Campaign.Location = cleaned
	}
	if v := result.Extracted.StartDate; v != nil && !placeholderValues[strings.ToLower(*v)] {
		sess.Campaign.StartDate = *v
	}
	if v := result.Extracted.EndDate; v != nil && !placeholderValues[strings.ToLower(*v)] {
		sess.Campaign.EndDate = *v
	}
	if v := result.Extracted.BudgetRange; v != nil && !placeholderValues[strings.ToLower(*v)] {
		sess.Campaign.BudgetRange = *v
	}

	now := time.Now().UTC()
	sess.History = append(sess.History,
		models.ChatMessage{Role: "user", Content: message, Timestamp: now},
		models.ChatMessage{Role: "assistant", Content: result.Reply, Timestamp: now},
	)
	if err := o.store.Save(sess); err != nil {
		return nil, err
	}
	return &models.ChatResponse{
		SessionID:    sess.SessionID,
		Reply:        result.Reply,
		QuickReplies: result.QuickReplies,
		Intent:       IntentGatewayCollection,
	}, nil
}

// HandleLiveTurn handles a live-mode message with page context. Live mode
// never runs discovery; it only explains what the user is looking at.
func (o *Orchestrator) HandleLiveTurn(ctx context.Context, sessionID, userID, message string, pc PageContext) (resp *models.ChatResponse, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrRateLimited) {
			metrics.RecordChatRateLimited("live")
			return
		}
		metrics.RecordChatTurn("live", time.Since(start), err)
	}()

	unlock := o.store.Lock(sessionID)
	defer unlock()

	sess, err := o.store.GetOrCreate(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !o.allowMessage(sess) {
		return nil, ErrRateLimited
	}

	isInit := strings.TrimSpace(message) == LiveModeInit
	reply := o.pipeline.LiveHelp(ctx, pc, sess.History, message, isInit)

	now := time.Now().UTC()
	if !isInit {
		sess.History = append(sess.History, models.ChatMessage{Role: "user", Content: message, Timestamp: now})
	}
	sess.History = append(sess.History, models.ChatMessage{Role: "assistant", Content: reply.Reply, Timestamp: now})
	if err := o.store.Save(sess); err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		SessionID:    sess.SessionID,
		Reply:        reply.Reply,
		QuickReplies: reply.QuickReplies,
		Redirect:     reply.Redirect,
	}, nil
}

// CreativeBrief generates a creative brief for one screen against the
// session's campaign context.
func (o *Orchestrator) CreativeBrief(ctx context.Context, sessionID, screenID string) (*models.CreativeBrief, error) {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	screen, err := o.db.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	return o.pipeline.CreativeSuggest(ctx, sess, screen)
}

// allowMessage enforces the sliding-window per-session rate limit.
func (o *Orchestrator) allowMessage(sess *models.ChatSession) bool {
	limit := o.cfg.RateLimitMessages
	window := o.cfg.RateLimitWindow
	if limit <= 0 || window <= 0 {
		return true
	}

	now := time.Now().UTC()
	cutoff := now.Add(-window)
	kept := sess.UserMessageTimes[:0]
	for _, t := range sess.UserMessageTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	sess.UserMessageTimes = kept

	if len(kept) >= limit {
		logging.Warn().Str("session", sess.SessionID).Int("messages", len(kept)).Msg("Session rate limited")
		return false
	}
	sess.UserMessageTimes = append(sess.UserMessageTimes, now)
	return true
}

// discover runs the discover engine with the session's accumulated state.
func (o *Orchestrator) discover(ctx context.Context, sess *models.ChatSession) (*models.DiscoverResult, error) {
	c := sess.Campaign
	return o.engine.Discover(ctx, models.DiscoverParams{
		Location:    c.Location,
		Filters:     sess.Filters,
		Excludes:    sess.Excludes,
		TextSearch:  sess.TextSearch,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		BudgetRange: c.BudgetRange,
		Limit:       o.cfg.ScreenResultLimit,
	})
}

// scrubUnderstanding drops placeholder values the LLM uses for unknowns so
// they never become filters or campaign facts.
func scrubUnderstanding(u *Understanding) {
	scrubMap := func(m map[string]interface{}) {
		for k, v := range m {
			if s, ok := v.(string); ok && placeholderValues[strings.ToLower(strings.TrimSpace(s))] {
				delete(m, k)
			}
		}
	}
	scrubMap(u.Filters)
	scrubMap(u.Exclude)
	scrubMap(u.GatewayEdits)

	scrub := func(s *string) {
		if placeholderValues[strings.ToLower(strings.TrimSpace(*s))] {
			*s = ""
		}
	}
	scrub(&u.AdCategory)
	scrub(&u.ProductCategory)
	scrub(&u.BrandObjective)
	scrub(&u.TargetAudience)
	scrub(&u.TextSearch)
}

// resolvePendingEdit applies or discards a pending gateway edit based on the
// user's confirmation. With no clear signal the edit stays pending.
func (o *Orchestrator) resolvePendingEdit(sess *models.ChatSession, u *Understanding, message string) {
	if sess.PendingEdit == nil {
		return
	}

	switch {
	case messageHasSignal(message, editRejectSignals):
		logging.Debug().Str("field", sess.PendingEdit.Field).Msg("Gateway edit rejected")
		sess.PendingEdit = nil
		if u.Intent == IntentGatewayEditPending {
			u.Intent = IntentRefinement
		}
	case messageHasSignal(message, editAcceptSignals):
		applyGatewayEdit(&sess.Campaign, sess.PendingEdit)
		logging.Info().Str("field", sess.PendingEdit.Field).Str("value", sess.PendingEdit.NewValue).Msg("Gateway edit applied")
		sess.PendingEdit = nil
		if u.Intent == IntentGatewayEditPending {
			u.Intent = IntentRefinement
		}
	default:
		u.Intent = IntentGatewayEditPending
	}
}

// interceptSpecCity reroutes city filters into the gateway flow. Location
// filtering is gateway-owned; spec_city never lands in session filters.
func (o *Orchestrator) interceptSpecCity(sess *models.ChatSession, u *Understanding) {
	raw, ok := u.Filters["spec_city"]
	if !ok {
		return
	}
	delete(u.Filters, "spec_city")

	city, ok := raw.(string)
	if !ok || city == "" {
		return
	}
	for _, existing := range sess.Campaign.Location {
		if strings.EqualFold(existing, city) {
			return
		}
	}
	u.GatewayEdits["gateway_location_add"] = city
	u.GatewayEditPending = true
}

// interceptBudget disambiguates money talk: campaign budgets are gateway
// edits, per-slot prices are filters. Ambiguity becomes a question.
func (o *Orchestrator) interceptBudget(u *Understanding, message string) {
	raw, ok := u.Filters["price_per_slot"]
	if !ok {
		return
	}

	lower := strings.ToLower(message)
	budgetTalk := strings.Contains(lower, "my budget") ||
		strings.Contains(lower, "i have") ||
		strings.Contains(lower, "can spend")
	priceTalk := strings.Contains(lower, "per slot") ||
		strings.Contains(lower, "slot price")

	switch {
	case priceTalk:
		// Genuine price filter, leave it alone.
	case budgetTalk:
		delete(u.Filters, "price_per_slot")
		if amount := numericConditionValue(raw); amount != "" {
			u.GatewayEdits["gateway_budget_range"] = amount
			u.GatewayEditPending = true
		}
	default:
		delete(u.Filters, "price_per_slot")
		u.Intent = IntentNeedsMoreInfo
		if u.QuestionToAsk == "" {
			u.QuestionToAsk = "Is that your overall campaign budget, or a per-slot price limit?"
		}
	}
}

// numericConditionValue extracts the numeric value from a raw filter entry.
func numericConditionValue(raw interface{}) string {
	switch v := raw.(type) {
	case float64:
		return fmt.Sprintf("%.0f", v)
	case map[string]interface{}:
		for _, inner := range v {
			if n, ok := toFloat(inner); ok {
				return fmt.Sprintf("%.0f", n)
			}
		}
	}
	return ""
}

// captureGatewayEdits turns proposed gateway edits into a pending edit
// awaiting confirmation. Only one edit is pending at a time.
func (o *Orchestrator) captureGatewayEdits(sess *models.ChatSession, u *Understanding) {
	if len(u.GatewayEdits) == 0 || sess.PendingEdit != nil {
		return
	}
	for _, field := range gatewayEditFields {
		raw, ok := u.GatewayEdits[field]
		if !ok {
			continue
		}
		value := fmt.Sprintf("%v", raw)
		if value == "" {
			continue
		}
		sess.PendingEdit = &models.PendingGatewayEdit{
			Field:    field,
			OldValue: currentGatewayValue(&sess.Campaign, field),
			NewValue: value,
		}
		u.Intent = IntentGatewayEditPending
		return
	}
}

func currentGatewayValue(c *models.CampaignContext, field string) string {
	switch field {
	case "gateway_location", "gateway_location_add":
		return strings.Join(c.Location, ", ")
	case "gateway_start_date":
		return c.StartDate
	case "gateway_end_date":
		return c.EndDate
	case "gateway_budget_range":
		return c.BudgetRange
	}
	return ""
}

func applyGatewayEdit(c *models.CampaignContext, edit *models.PendingGatewayEdit) {
	switch edit.Field {
	case "gateway_location":
		c.Location = []string{edit.NewValue}
	case "gateway_location_add":
		for _, existing := range c.Location {
			if strings.EqualFold(existing, edit.NewValue) {
				return
			}
		}
		c.Location = append(c.Location, edit.NewValue)
	case "gateway_start_date":
		c.StartDate = edit.NewValue
	case "gateway_end_date":
		c.EndDate = edit.NewValue
	case "gateway_budget_range":
		c.BudgetRange = edit.NewValue
	}
}

// applyFilterMutations applies revert, removal and stacking in order, with a
// snapshot taken before any mutation so revert always has a target.
func (o *Orchestrator) applyFilterMutations(sess *models.ChatSession, u *Understanding) {
	if u.Intent == IntentRevert {
		if !sess.RevertFilters() {
			u.Intent = IntentClarification
		}
		return
	}

	mutates := len(u.Filters) > 0 || len(u.Exclude) > 0 || len(u.RemoveFilters) > 0 ||
		u.Intent == IntentShowAll || u.TextSearch != ""
	if !mutates {
		return
	}
	sess.SnapshotFilters()

	if u.Intent == IntentShowAll || containsString(u.RemoveFilters, removeAllFilters) {
		sess.Filters = map[string]interface{}{}
		sess.Excludes = map[string]interface{}{}
		sess.TextSearch = ""
	} else {
		for _, field := range u.RemoveFilters {
			delete(sess.Filters, field)
			delete(sess.Excludes, field)
		}
	}

	// Filters stack across turns.
	for k, v := range u.Filters {
		sess.Filters[k] = v
	}
	for k, v := range u.Exclude {
		sess.Excludes[k] = v
	}
	if u.TextSearch != "" {
		sess.TextSearch = u.TextSearch
	}
}

// accumulateCampaign folds newly extracted campaign facts into the session,
// with persona anti-flicker: the persona sticks unless the new detection is
// clearly stronger.
func (o *Orchestrator) accumulateCampaign(sess *models.ChatSession, u *Understanding) {
	if u.AdCategory != "" {
		sess.Campaign.AdCategory = u.AdCategory
	}
	if u.ProductCategory != "" {
		sess.Campaign.ProductCategory = u.ProductCategory
	}
	if u.BrandObjective != "" {
		sess.Campaign.BrandObjective = u.BrandObjective
	}
	if u.TargetAudience != "" {
		sess.Campaign.TargetAudience = u.TargetAudience
	}

	if u.DetectedPersona != "" {
		switch {
		case sess.Persona == "":
			sess.Persona = u.DetectedPersona
			sess.PersonaConfidence = u.PersonaConfidence
		case u.DetectedPersona == sess.Persona:
			boosted := sess.PersonaConfidence + 0.05
			if u.PersonaConfidence > boosted {
				boosted = u.PersonaConfidence
			}
			if boosted > 1 {
				boosted = 1
			}
			sess.PersonaConfidence = boosted
		case u.PersonaConfidence >= 0.80 || u.PersonaConfidence-sess.PersonaConfidence >= 0.20:
			sess.Persona = u.DetectedPersona
			sess.PersonaConfidence = u.PersonaConfidence
		}
	}

	c := sess.Campaign
	sess.DiscoveryComplete = c.AdCategory != "" && c.BrandObjective != "" && c.TargetAudience != ""
}

// nextQuestionTopic picks the next unanswered core question, honoring the
// per-topic attempt cap so the assistant never nags.
func (o *Orchestrator) nextQuestionTopic(sess *models.ChatSession) string {
	c := sess.Campaign
	answered := map[string]bool{
		"ad_category":     c.AdCategory != "",
		"brand_objective": c.BrandObjective != "",
		"target_audience": c.TargetAudience != "",
	}
	for _, topic := range questionTopics {
		if answered[topic] {
			continue
		}
		if sess.QuestionAttempts[topic] < o.cfg.MaxQuestionAttempts {
			return topic
		}
	}
	return ""
}

// trackQuestion records that the turn asked about the current topic.
func (o *Orchestrator) trackQuestion(sess *models.ChatSession, u *Understanding) {
	if u.QuestionToAsk == "" {
		return
	}
	topic := o.nextQuestionTopic(sess)
	if topic == "" {
		return
	}
	if sess.QuestionAttempts == nil {
		sess.QuestionAttempts = make(map[string]int)
	}
	sess.QuestionAttempts[topic]++
}

func messageHasSignal(message string, signals []string) bool {
	lower := strings.ToLower(message)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}
	for _, signal := range signals {
		if strings.Contains(signal, " ") {
			if strings.Contains(lower, signal) {
				return true
			}
		} else if wordSet[signal] {
			return true
		}
	}
	return false
}

// cleanLocations drops empty and placeholder location entries.
func cleanLocations(locations []string) []string {
	var out []string
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" || placeholderValues[strings.ToLower(loc)] {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
