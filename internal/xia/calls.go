// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// Intents the understanding call may produce.
const (
	IntentBrandAwareness     = "brand_awareness"
	IntentScreenSearch       = "screen_search"
	IntentRefinement         = "refinement"
	IntentNeedsMoreInfo      = "needs_more_info"
	IntentGatewayEditPending = "gateway_edit_pending"
	IntentGreeting           = "greeting"
	IntentClarification      = "clarification"
	IntentShowAll            = "show_all"
	IntentRevert             = "revert"
	IntentStartOver          = "start_over"
)

// removeAllFilters is the sentinel in remove_filters meaning "clear
// everything".
const removeAllFilters = "__all__"

// Understanding is the structured output of the understanding call.
type Understanding struct {
	Intent             string                 `json:"intent"`
	DetectedPersona    string                 `json:"detected_persona"`
	PersonaConfidence  float64                `json:"persona_confidence"`
	AdCategory         string                 `json:"ad_category"`
	ProductCategory    string                 `json:"product_category"`
	BrandObjective     string                 `json:"brand_objective"`
	TargetAudience     string                 `json:"target_audience"`
	Filters            map[string]interface{} `json:"filters"`
	Exclude            map[string]interface{} `json:"exclude"`
	TextSearch         string                 `json:"text_search"`
	GatewayEdits       map[string]interface{} `json:"gateway_edits"`
	GatewayEditPending bool                   `json:"gateway_edit_pending"`
	RemoveFilters      []string               `json:"remove_filters"`
	QuestionToAsk      string                 `json:"question_to_ask"`
	PendingQuestions   []string               `json:"pending_questions"`

	// Fallback is set when the LLM call failed and this is a typed default.
	Fallback bool `json:"-"`
}

// screenScore is one ranking rubric entry.
type screenScore struct {
	Total         float64 `json:"total"`
	AreaMatch     float64 `json:"area_match"`
	AudienceFit   float64 `json:"audience_fit"`
	ScreenQuality float64 `json:"screen_quality"`
	ContextBonus  float64 `json:"context_bonus"`
	Eligibility   float64 `json:"eligibility"`
	Summary       string  `json:"summary"`
}

type rankOutput struct {
	Ranking []string               `json:"ranking"`
	Scores  map[string]screenScore `json:"scores"`
}

// Reply is the user-facing output of the response, gateway and live calls.
type Reply struct {
	Reply        string           `json:"reply"`
	QuickReplies []string         `json:"quick_replies"`
	Redirect     *models.Redirect `json:"redirect"`
	Fallback     bool             `json:"-"`
}

// GatewayExtraction holds fields the gateway call pulled from one message.
// Nil pointers mean the field was not mentioned.
type GatewayExtraction struct {
	Location    []string `json:"location"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	BudgetRange *string  `json:"budget_range"`
}

// GatewayResult is the full gateway collection output.
type GatewayResult struct {
	Extracted    GatewayExtraction `json:"extracted"`
	Reply        string            `json:"reply"`
	QuickReplies []string          `json:"quick_replies"`
	Fallback     bool              `json:"-"`
}

// Pipeline runs the LLM calls of a chat turn. All screen filtering and state
// mutation stays outside, in the orchestrator and discover engine.
type Pipeline struct {
	llm Completer
}

// NewPipeline wraps an LLM client.
func NewPipeline(llm Completer) *Pipeline {
	return &Pipeline{llm: llm}
}

// complete runs one LLM call with per-operation latency metrics.
func (p *Pipeline) complete(ctx context.Context, operation string, messages []Message, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	raw, err := p.llm.Complete(ctx, messages, temperature, maxTokens)
	metrics.RecordLLMCall("chat", operation, time.Since(start), err)
	return raw, err
}

// historyMessages converts the session tail into chat messages.
func historyMessages(history []models.ChatMessage, max int) []Message {
	if len(history) > max {
		history = history[len(history)-max:]
	}
	msgs := make([]Message, len(history))
	for i, m := range history {
		msgs[i] = Message{Role: m.Role, Content: m.Content}
	}
	return msgs
}

// Understand runs the understanding call: extract intent, persona, campaign
// context and filter mutations from the user's message. Never fails; a dead
// LLM yields a typed fallback so the turn still completes.
func (p *Pipeline) Understand(ctx context.Context, session *models.ChatSession, filterMenu, nextQuestionTopic, userMessage string) *Understanding {
	messages := []Message{{Role: "system", Content: buildCall1Prompt(filterMenu, session, nextQuestionTopic)}}
	messages = append(messages, historyMessages(session.History, 20)...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	raw, err := p.complete(ctx, "understand", messages, 0.1, 1024)
	if err != nil {
		logging.Error().Err(err).Msg("Understanding call failed, using fallback")
		return understandingFallback()
	}

	var u Understanding
	if err := parseJSONObject(raw, &u); err != nil {
		logging.Error().Err(err).Str("raw", truncate(raw, 300)).Msg("Understanding call returned invalid JSON")
		metrics.RecordLLMParseFailure("understand")
		return understandingFallback()
	}
	if u.Filters == nil {
		u.Filters = map[string]interface{}{}
	}
	if u.Exclude == nil {
		u.Exclude = map[string]interface{}{}
	}
	return &u
}

func understandingFallback() *Understanding {
	return &Understanding{
		Intent:          IntentGreeting,
		DetectedPersona: models.PersonaBusinessOwner,
		Filters:         map[string]interface{}{},
		Exclude:         map[string]interface{}{},
		GatewayEdits:    map[string]interface{}{},
		Fallback:        true,
	}
}

// Rank runs the ranking call over the discovered screens. Result sets larger
// than one batch are split and ranked concurrently, then merged by score. A
// failed batch keeps its screens at score zero rather than dropping them.
func (p *Pipeline) Rank(ctx context.Context, u *Understanding, userMessage string, screens []models.DiscoveredScreen) []models.RankedScreen {
	if len(screens) == 0 {
		return nil
	}
	if len(screens) == 1 {
		ranked := toRankedScreen(screens[0], screenScore{Total: 100, Summary: "Only matching screen for this search."})
		return []models.RankedScreen{ranked}
	}

	byID := make(map[string]models.DiscoveredScreen, len(screens))
	for _, s := range screens {
		byID[s.Screen.ScreenID] = s
	}

	var batches [][]models.DiscoveredScreen
	for i := 0; i < len(screens); i += rankingBatchSize {
		end := i + rankingBatchSize
		if end > len(screens) {
			end = len(screens)
		}
		batches = append(batches, screens[i:end])
	}
	logging.Debug().Int("screens", len(screens)).Int("batches", len(batches)).Msg("Ranking call starting")

	var (
		mu     sync.Mutex
		scores = make(map[string]screenScore, len(screens))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		g.Go(func() error {
			batchScores := p.rankBatch(gctx, u, userMessage, batch)
			mu.Lock()
			for id, sc := range batchScores {
				scores[id] = sc
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // batch failures degrade to zero scores, never abort

	ranked := make([]models.RankedScreen, 0, len(screens))
	for _, s := range screens {
		ranked = append(ranked, toRankedScreen(s, scores[s.Screen.ScreenID]))
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	metrics.RecordScreensRanked(len(ranked))
	return ranked
}

// rankBatch ranks one batch and returns per-screen scores. Screens the LLM
// skipped, and whole failed batches, come back with zero scores.
func (p *Pipeline) rankBatch(ctx context.Context, u *Understanding, userMessage string, batch []models.DiscoveredScreen) map[string]screenScore {
	start := time.Now()
	scores := make(map[string]screenScore, len(batch))
	for _, s := range batch {
		scores[s.Screen.ScreenID] = screenScore{Summary: "Ranking unavailable for this screen."}
	}

	messages := []Message{
		{Role: "system", Content: buildCall2Prompt(formatScreensForPrompt(batch), u, userMessage)},
		{Role: "user", Content: "Rank these screens for my campaign."},
	}
	raw, err := p.complete(ctx, "rank", messages, 0.2, 2048)
	if err != nil {
		logging.Error().Err(err).Int("screens", len(batch)).Msg("Ranking batch failed")
		return scores
	}

	var out rankOutput
	if err := parseJSONObject(raw, &out); err != nil {
		logging.Error().Err(err).Str("raw", truncate(raw, 300)).Msg("Ranking batch returned invalid JSON")
		metrics.RecordLLMParseFailure("rank")
		return scores
	}

	for id, sc := range out.Scores {
		if _, ok := scores[id]; ok {
			scores[id] = sc
		}
	}
	logging.Debug().
		Dur("latency", time.Since(start)).
		Int("screens", len(batch)).
		Int("scored", len(out.Scores)).
		Msg("Ranking batch completed")
	return scores
}

func toRankedScreen(ds models.DiscoveredScreen, sc screenScore) models.RankedScreen {
	return models.RankedScreen{
		ScreenID:      ds.Screen.ScreenID,
		Name:          ds.Screen.Name,
		City:          ds.Screen.SpecCity,
		Score:         sc.Total,
		AreaMatch:     sc.AreaMatch,
		AudienceFit:   sc.AudienceFit,
		ScreenQuality: sc.ScreenQuality,
		ContextBonus:  sc.ContextBonus,
		Eligibility:   sc.Eligibility,
		Summary:       sc.Summary,
		Available:     ds.Availability.Available,
	}
}

// Respond runs the response call: craft the user-facing reply and quick
// replies. Never fails; a dead LLM yields a canned reply per intent.
func (p *Pipeline) Respond(ctx context.Context, session *models.ChatSession, in call3Input) *Reply {
	messages := []Message{{Role: "system", Content: buildCall3Prompt(session, in)}}
	messages = append(messages, historyMessages(session.History, 10)...)
	messages = append(messages, Message{Role: "user", Content: in.UserMessage})

	raw, err := p.complete(ctx, "respond", messages, 0.6, 512)
	if err != nil {
		logging.Error().Err(err).Msg("Response call failed, using fallback")
		return respondFallback(in)
	}

	var reply Reply
	if err := parseJSONObject(raw, &reply); err != nil {
		logging.Error().Err(err).Str("raw", truncate(raw, 300)).Msg("Response call returned invalid JSON")
		metrics.RecordLLMParseFailure("respond")
		return respondFallback(in)
	}
	if reply.Reply == "" {
		return respondFallback(in)
	}
	if len(reply.QuickReplies) > 3 {
		reply.QuickReplies = reply.QuickReplies[:3]
	}
	return &reply
}

func respondFallback(in call3Input) *Reply {
	reply := "I'm having trouble getting results right now. Please try again in a moment."
	switch in.Intent {
	case IntentGreeting:
		reply = "Hi! I'm XIA, your screen planning assistant. Tell me about your campaign!"
	case IntentGatewayEditPending:
		reply = "You're proposing a change to your campaign setup. Want me to apply it?"
	default:
		if in.TotalScreens > 0 {
			reply = fmt.Sprintf("I found %d screens for your campaign (%d available). Want to refine the list?",
				in.TotalScreens, in.AvailableScreens)
		}
	}
	return &Reply{
		Reply:        reply,
		QuickReplies: []string{"Show me screens", "Change filters", "Start over"},
		Fallback:     true,
	}
}

// CollectGateway runs the gateway collection call for sessions that are
// still missing location, dates or budget.
func (p *Pipeline) CollectGateway(ctx context.Context, session *models.ChatSession, userMessage string) *GatewayResult {
	today := time.Now().UTC().Format(dateLayout)
	messages := []Message{{Role: "system", Content: buildGatewayPrompt(session.Campaign, today)}}
	messages = append(messages, historyMessages(session.History, 10)...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	raw, err := p.complete(ctx, "gateway", messages, 0.3, 1024)
	if err != nil {
		logging.Error().Err(err).Msg("Gateway call failed, using fallback")
		return gatewayFallback(session)
	}

	var result GatewayResult
	if err := parseJSONObject(raw, &result); err != nil || result.Reply == "" {
		logging.Error().Err(err).Str("raw", truncate(raw, 300)).Msg("Gateway call returned invalid JSON")
		metrics.RecordLLMParseFailure("gateway")
		return gatewayFallback(session)
	}
	if len(result.QuickReplies) > 3 {
		result.QuickReplies = result.QuickReplies[:3]
	}
	return &result
}

func gatewayFallback(session *models.ChatSession) *GatewayResult {
	missing := missingGatewayFields(session.Campaign)
	reply := "Let's get your campaign set up. Which city would you like to advertise in?"
	if len(missing) > 0 {
		switch missing[0] {
		case "start_date":
			reply = "When would you like your campaign to start?"
		case "end_date":
			reply = "And when should the campaign end?"
		case "budget_range":
			reply = "What kind of budget are you working with?"
		}
	}
	return &GatewayResult{
		Reply:        reply,
		QuickReplies: []string{"Chennai", "Mumbai", "Multiple cities"},
		Fallback:     true,
	}
}

// LiveHelp runs the live-mode call: contextual help for the console page the
// user is currently viewing.
func (p *Pipeline) LiveHelp(ctx context.Context, pc PageContext, history []models.ChatMessage, userMessage string, isInit bool) *Reply {
	messages := []Message{{Role: "system", Content: buildLivePrompt(pc, isInit)}}
	messages = append(messages, historyMessages(history, 10)...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	raw, err := p.complete(ctx, "live_help", messages, 0.5, 1024)
	if err != nil {
		logging.Error().Err(err).Str("page", pc.Page).Msg("Live mode call failed, using fallback")
		return liveFallback(pc.Page)
	}

	var reply Reply
	if err := parseJSONObject(raw, &reply); err != nil || reply.Reply == "" {
		logging.Error().Err(err).Str("raw", truncate(raw, 300)).Msg("Live mode call returned invalid JSON")
		metrics.RecordLLMParseFailure("live_help")
		return liveFallback(pc.Page)
	}
	if len(reply.QuickReplies) > 3 {
		reply.QuickReplies = reply.QuickReplies[:3]
	}
	return &reply
}

func liveFallback(page string) *Reply {
	return &Reply{
		Reply:        "I'm having a small hiccup. What would you like help with on this page?",
		QuickReplies: liveQuickReplies(page),
		Fallback:     true,
	}
}

// CreativeSuggest generates a creative brief for one screen. Unlike the chat
// calls this returns an error: a half-made brief is worse than none.
func (p *Pipeline) CreativeSuggest(ctx context.Context, session *models.ChatSession, screen *models.Screen) (*models.CreativeBrief, error) {
	messages := []Message{
		{Role: "system", Content: buildCreativePrompt(session, screen)},
		{Role: "user", Content: fmt.Sprintf(
			"Generate a creative brief for a %s campaign with the goal of %s, designed specifically for the screen: %s.",
			orNotSpecified(session.Campaign.ProductCategory),
			orNotSpecified(session.Campaign.BrandObjective), screen.Name)},
	}

	raw, err := p.complete(ctx, "creative", messages, 0.7, 4096)
	if err != nil {
		return nil, fmt.Errorf("creative brief: %w", err)
	}
	var brief models.CreativeBrief
	if err := parseJSONObject(raw, &brief); err != nil {
		metrics.RecordLLMParseFailure("creative")
		return nil, fmt.Errorf("creative brief parse: %w", err)
	}
	return &brief, nil
}

// parseJSONObject unmarshals an LLM response, tolerating markdown fences and
// surrounding prose by extracting the outermost JSON object.
func parseJSONObject(raw string, v interface{}) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}
