// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
)

// research runs the four-phase agent: plan what to look up, research it with
// search grounding, classify, then verify the classification against the
// research notes. Each phase is one model turn; verification failures
// downgrade confidence instead of discarding the answer.
func (g *GeminiLLM) research(ctx context.Context, lat, lng float64, geo maps.GeoContext) (*LLMDecision, error) {
	plan, err := g.generate(ctx, g.cfg.Model, "research_plan", researchPlanPrompt(lat, lng, geo), false)
	if err != nil {
		return nil, fmt.Errorf("research plan: %w", err)
	}

	notes, err := g.generate(ctx, g.cfg.Model, "research_lookup", researchNotesPrompt(lat, lng, geo, plan), true)
	if err != nil {
		return nil, fmt.Errorf("research lookup: %w", err)
	}

	decision, err := g.generateDecision(ctx, "research_classify", researchClassifyPrompt(lat, lng, geo, notes), false)
	if err != nil {
		return nil, fmt.Errorf("research classify: %w", err)
	}

	verdict, err := g.generate(ctx, g.cfg.Model, "research_verify", researchVerifyPrompt(decision, notes), false)
	if err != nil {
		logging.Warn().Err(err).Msg("Research verification failed, keeping unverified classification")
		decision.Verification = "UNVERIFIED"
		return decision, nil
	}

	verdict = strings.ToUpper(strings.TrimSpace(verdict))
	switch {
	case strings.Contains(verdict, "CONFIRMED"):
		decision.Verification = "CONFIRMED"
	case strings.Contains(verdict, "CONTRADICTED"):
		decision.Verification = "CONTRADICTED"
		decision.Confidence = ConfidenceLow
	default:
		decision.Verification = "INCONCLUSIVE"
		if decision.Confidence == ConfidenceHigh {
			decision.Confidence = ConfidenceMedium
		}
	}
	return decision, nil
}

func researchPlanPrompt(lat, lng float64, geo maps.GeoContext) string {
	return fmt.Sprintf(
		"You research the area around a digital advertising screen at %.5f, %.5f (%s, %s, India).\n"+
			"List 3-5 short search queries that would establish what kind of area this is: "+
			"major institutions, transit hubs, markets, or landmarks nearby.\n"+
			"One query per line, nothing else.",
		lat, lng, geo.City, geo.State)
}

func researchNotesPrompt(lat, lng float64, geo maps.GeoContext, plan string) string {
	return fmt.Sprintf(
		"Research the area around %.5f, %.5f near %s, %s, India.\n"+
			"Work through these queries and summarize what you find in short bullet points, "+
			"naming specific institutions and landmarks:\n%s",
		lat, lng, geo.City, geo.State, plan)
}

func researchClassifyPrompt(lat, lng float64, geo maps.GeoContext, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the area around a digital advertising screen at %.5f, %.5f (%s).\n\n", lat, lng, geo.FormattedAddress)
	b.WriteString("Research notes:\n")
	b.WriteString(notes)
	b.WriteString("\n\nAnswer with JSON only: ")
	b.WriteString(`{"areaType": "<one of `)
	b.WriteString(strings.Join(areaTypeChoices(), "|"))
	b.WriteString(`>", "context": "<short audience label>", "confidence": "<high|medium|low>", "reasoning": "<one sentence>"}`)
	return b.String()
}

func researchVerifyPrompt(decision *LLMDecision, notes string) string {
	return fmt.Sprintf(
		"A location was classified as %s (%s) with this reasoning: %s\n\n"+
			"Research notes:\n%s\n\n"+
			"Does the research support the classification? Answer with exactly one word: "+
			"CONFIRMED, CONTRADICTED, or INCONCLUSIVE.",
		decision.AreaType, decision.Context, decision.Reasoning, notes)
}
