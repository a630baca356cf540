// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/genai"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/cache"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

// LLMInput is the evidence bundle sent to the model.
type LLMInput struct {
	Latitude    float64
	Longitude   float64
	Address     string
	City        string
	PlaceGroups map[string]int
	Dominant    string
	Ratio       float64
	Second      string
	SecondRatio float64
	Places      []places.Place
}

// llmInputFrom packages pass evidence for the model.
func llmInputFrom(s *passState, list []places.Place) LLMInput {
	return LLMInput{
		Latitude:    s.lat,
		Longitude:   s.lng,
		Address:     s.geo.FormattedAddress,
		City:        s.geo.City,
		PlaceGroups: s.counts,
		Dominant:    s.dom.Dominant,
		Ratio:       s.dom.DominantRatio,
		Second:      s.dom.Second,
		SecondRatio: s.dom.SecondRatio,
		Places:      list,
	}
}

// LLMDecision is a parsed model verdict.
type LLMDecision struct {
	AreaType     string `json:"areaType"`
	Context      string `json:"context"`
	Confidence   string `json:"confidence"`
	Reasoning    string `json:"reasoning"`
	Verification string `json:"verification,omitempty"`
	Cached       bool   `json:"-"`
}

// GeminiLLM classifies ambiguous areas with Gemini. Decisions are cached per
// coordinate and mode so repeated profiling of the same screen is free.
type GeminiLLM struct {
	client *genai.Client
	cfg    config.GeminiConfig
	cache  *cache.Cache
}

// NewGeminiLLM connects to the Gemini API.
func NewGeminiLLM(ctx context.Context, cfg config.GeminiConfig) (*GeminiLLM, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiLLM{
		client: client,
		cfg:    cfg,
		cache:  cache.New("llm_decision", 24*time.Hour),
	}, nil
}

// ResolveAmbiguity asks the model to break a tie the rules engine could not.
func (g *GeminiLLM) ResolveAmbiguity(ctx context.Context, input LLMInput) (*LLMDecision, error) {
	key := decisionKey(input.Latitude, input.Longitude, "resolve_ambiguity")
	if d, ok := g.cachedDecision(key); ok {
		return d, nil
	}

	prompt := resolveAmbiguityPrompt(input)
	d, err := g.generateDecision(ctx, "resolve_ambiguity", prompt, false)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, d)
	return d, nil
}

// ClassifyArea asks the model for a full classification from enriched place
// evidence.
func (g *GeminiLLM) ClassifyArea(ctx context.Context, input LLMInput) (*LLMDecision, error) {
	key := decisionKey(input.Latitude, input.Longitude, "classify_area")
	if d, ok := g.cachedDecision(key); ok {
		return d, nil
	}

	prompt := classifyAreaPrompt(input)
	d, err := g.generateDecision(ctx, "classify_area", prompt, false)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, d)
	return d, nil
}

// Research runs the agentic flow: the model plans what to look up, searches
// with grounding, classifies, and verifies its own answer.
func (g *GeminiLLM) Research(ctx context.Context, lat, lng float64, geo maps.GeoContext) (*LLMDecision, error) {
	key := fmt.Sprintf("research_agent:%.5f:%.5f", lat, lng)
	key = fmt.Sprintf("%x", md5.Sum([]byte(key)))
	if d, ok := g.cachedDecision(key); ok {
		return d, nil
	}

	d, err := g.research(ctx, lat, lng, geo)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, d)
	return d, nil
}

func (g *GeminiLLM) cachedDecision(key string) (*LLMDecision, bool) {
	cached, ok := g.cache.Get(key)
	if !ok {
		return nil, false
	}
	d, ok := cached.(*LLMDecision)
	if !ok {
		return nil, false
	}
	copied := *d
	copied.Cached = true
	return &copied, true
}

// decisionKey hashes coordinates and mode into a cache key.
func decisionKey(lat, lng float64, mode string) string {
	raw := fmt.Sprintf("%.5f:%.5f:%s", lat, lng, mode)
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}

// generateDecision calls the model and parses its JSON verdict. Transport
// errors retry with the fallback model; parse failures degrade to a MIXED
// low-confidence decision rather than failing the profile.
func (g *GeminiLLM) generateDecision(ctx context.Context, operation, prompt string, grounded bool) (*LLMDecision, error) {
	text, err := g.generate(ctx, g.cfg.Model, operation, prompt, grounded)
	if err != nil && g.cfg.FallbackModel != "" {
		logging.Warn().Err(err).Str("model", g.cfg.Model).Msg("Primary model failed, trying fallback")
		text, err = g.generate(ctx, g.cfg.FallbackModel, operation, prompt, grounded)
	}
	if err != nil {
		return nil, err
	}
	d := parseDecision(text)
	if d.Reasoning == detailParseError {
		metrics.RecordLLMParseFailure(operation)
	}
	return d, nil
}

func (g *GeminiLLM) generate(ctx context.Context, model, operation, prompt string, grounded bool) (text string, err error) {
	start := time.Now()
	defer func() { metrics.RecordLLMCall("gemini", operation, time.Since(start), err) }()

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.cfg.Temperature)),
		MaxOutputTokens: int32(g.cfg.MaxOutputTokens),
	}
	if grounded && g.cfg.EnableGrounding {
		genCfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else {
		genCfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		resp, err := g.client.Models.GenerateContent(callCtx, model, contents, genCfg)
		cancel()
		if err == nil {
			return resp.Text(), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

// parseDecision extracts a decision from model output. Broken JSON never
// aborts the profile.
func parseDecision(text string) *LLMDecision {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if start := strings.Index(cleaned, "{"); start > 0 {
		cleaned = cleaned[start:]
	}
	if end := strings.LastIndex(cleaned, "}"); end >= 0 && end < len(cleaned)-1 {
		cleaned = cleaned[:end+1]
	}

	var d LLMDecision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil || d.AreaType == "" {
		logging.Warn().Str("raw", truncate(text, 200)).Msg("Unparseable model verdict")
		return &LLMDecision{
			AreaType:   "MIXED",
			Confidence: ConfidenceLow,
			Reasoning:  detailParseError,
		}
	}

	d.AreaType = strings.ToUpper(strings.TrimSpace(d.AreaType))
	if _, ok := contextMap[d.AreaType]; !ok {
		d.AreaType = "MIXED"
		d.Confidence = ConfidenceLow
	}
	switch d.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		d.Confidence = ConfidenceMedium
	}
	return &d
}

// resolveAmbiguityPrompt frames a tie-break question over the rules output.
func resolveAmbiguityPrompt(input LLMInput) string {
	var b strings.Builder
	b.WriteString("You classify the area around a digital advertising screen in India.\n")
	b.WriteString("The rules engine could not decide between place groups. Break the tie.\n\n")
	fmt.Fprintf(&b, "Location: %s (%s)\n", input.Address, input.City)
	fmt.Fprintf(&b, "Leading group: %s at %.2f of classified places\n", input.Dominant, input.Ratio)
	if input.Second != "" {
		fmt.Fprintf(&b, "Second group: %s at %.2f\n", input.Second, input.SecondRatio)
	}
	b.WriteString("Group counts:\n")
	for g, n := range input.PlaceGroups {
		fmt.Fprintf(&b, "  %s: %d\n", g, n)
	}
	writePlaceEvidence(&b, input.Places, 15)
	b.WriteString("\nAnswer with JSON only: ")
	b.WriteString(`{"areaType": "<one of `)
	b.WriteString(strings.Join(areaTypeChoices(), "|"))
	b.WriteString(`>", "context": "<short audience label>", "confidence": "<high|medium|low>", "reasoning": "<one sentence>"}`)
	return b.String()
}

// classifyAreaPrompt asks for a classification from raw place evidence.
func classifyAreaPrompt(input LLMInput) string {
	var b strings.Builder
	b.WriteString("You classify the area around a digital advertising screen in India.\n")
	b.WriteString("Classify the area from the places listed below.\n\n")
	fmt.Fprintf(&b, "Location: %s (%s)\n", input.Address, input.City)
	writePlaceEvidence(&b, input.Places, 15)
	b.WriteString("\nAnswer with JSON only: ")
	b.WriteString(`{"areaType": "<one of `)
	b.WriteString(strings.Join(areaTypeChoices(), "|"))
	b.WriteString(`>", "context": "<short audience label>", "confidence": "<high|medium|low>", "reasoning": "<one sentence>"}`)
	return b.String()
}

func writePlaceEvidence(b *strings.Builder, list []places.Place, limit int) {
	if len(list) == 0 {
		return
	}
	if len(list) > limit {
		list = list[:limit]
	}
	b.WriteString("Nearby places:\n")
	for _, p := range list {
		fmt.Fprintf(b, "  - %s [%s]", p.Name, strings.Join(p.Types, ", "))
		if p.UserRatingsTotal > 0 {
			fmt.Fprintf(b, " (%d ratings)", p.UserRatingsTotal)
		}
		if p.EditorialSummary != "" {
			fmt.Fprintf(b, ": %s", p.EditorialSummary)
		}
		b.WriteString("\n")
	}
}

func areaTypeChoices() []string {
	choices := make([]string, 0, len(contextMap))
	for _, g := range places.GroupPriority {
		choices = append(choices, g)
	}
	return append(choices, "MIXED", "MIXED_BIASED")
}
