// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

// Options tune the profiling pipeline.
type Options struct {
	// MaxRing2Results caps the classification ring fetch (1-60).
	MaxRing2Results int

	// EnrichLimit caps Place Details lookups in full_llm mode.
	EnrichLimit int

	// DefaultMode is used when a request does not name a pipeline mode.
	DefaultMode string
}

// Pipeline profiles the area around screen coordinates.
type Pipeline struct {
	maps mapsSource
	llm  areaLLM
	opts Options
}

// areaLLM is the LLM surface the pipeline consumes. Nil means rules only.
type areaLLM interface {
	ResolveAmbiguity(ctx context.Context, input LLMInput) (*LLMDecision, error)
	ClassifyArea(ctx context.Context, input LLMInput) (*LLMDecision, error)
	Research(ctx context.Context, lat, lng float64, geo maps.GeoContext) (*LLMDecision, error)
}

// New builds a pipeline. llm may be nil, which forces rules mode.
func New(src mapsSource, llm areaLLM, opts Options) *Pipeline {
	if opts.MaxRing2Results < 1 || opts.MaxRing2Results > 60 {
		opts.MaxRing2Results = 60
	}
	if opts.EnrichLimit < 1 {
		opts.EnrichLimit = 20
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = models.PipelineModeHybrid
	}
	return &Pipeline{maps: src, llm: llm, opts: opts}
}

// Profile runs the pipeline in the given mode ("" uses the default). The
// rules machinery always runs first; LLM modes refine or replace its result.
func (p *Pipeline) Profile(ctx context.Context, lat, lng float64, mode string) (profile *models.AreaProfile, err error) {
	if mode == "" {
		mode = p.opts.DefaultMode
	}
	if p.llm == nil {
		mode = models.PipelineModeRules
	}
	start := time.Now()
	defer func() { metrics.RecordProfile(mode, time.Since(start), err) }()

	switch mode {
	case models.PipelineModeRules:
		profile, _, err = p.rulesProfile(ctx, lat, lng)
		return profile, err
	case models.PipelineModeHybrid:
		return p.hybridProfile(ctx, lat, lng)
	case models.PipelineModeFullLLM:
		return p.fullLLMProfile(ctx, lat, lng)
	case models.PipelineModeResearchAgent:
		return p.researchProfile(ctx, lat, lng)
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", mode)
	}
}

// passState threads shared fetch results and the reasoning trail through the
// pipeline stages. Each mode composes the same stages in its own order.
type passState struct {
	lat, lng float64
	start    time.Time
	profile  *models.AreaProfile
	geo      maps.GeoContext
	ring1    []places.Place
	ring2    ring2Search
	counts   map[string]int
	unique   int
	dom      dominance
}

// step appends one line to the profile's reasoning trail.
func (s *passState) step(format string, args ...any) {
	s.profile.Reasoning = append(s.profile.Reasoning, fmt.Sprintf(format, args...))
}

// track folds one fetch's accounting into the profile metadata. The profile
// counts as cached only if every fetch was served from cache.
func (s *passState) track(meta maps.Meta) {
	s.profile.Metadata.APICallsMade += meta.NetworkCalls
	s.profile.Metadata.Cached = s.profile.Metadata.Cached && meta.Cached
}

// beginPass initializes the profile and fetches geographic context.
func (p *Pipeline) beginPass(ctx context.Context, lat, lng float64) (*passState, error) {
	s := &passState{
		lat:   lat,
		lng:   lng,
		start: time.Now(),
		profile: &models.AreaProfile{
			Coordinates: models.Coordinates{Latitude: lat, Longitude: lng},
			Reasoning:   []string{},
			PlaceGroups: map[string]int{},
			Metadata: models.ProfileMetadata{
				ComputedAt:       time.Now().UTC(),
				Cached:           true,
				APIKeyConfigured: p.maps.Configured(),
				Warnings:         []string{},
				Version:          models.ProfileContractVersion,
			},
		},
	}
	if !s.profile.Metadata.APIKeyConfigured {
		s.profile.Metadata.Warnings = append(s.profile.Metadata.Warnings,
			"google maps api key not configured, profiling on neutral defaults")
	}

	s.step("Step 1: Fetching geographic context.")
	geo, meta, err := p.maps.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	s.track(meta)
	s.geo = geo
	s.profile.GeoContext = toModelGeo(geo)
	s.step("Geo context: %s, %s (%s)", geo.City, geo.State, geo.CityTier)
	return s, nil
}

// fetchAuthorityRing pulls ring 1 and records its block. The label names what
// the mode uses the ring for; listTop controls the top-places line.
func (p *Pipeline) fetchAuthorityRing(ctx context.Context, s *passState, label string, listTop bool) error {
	s.step("Step 2: Analyzing Ring 1 (75m - %s).", label)
	ring1, found, meta, err := fetchRing1(ctx, p.maps, s.lat, s.lng)
	if err != nil {
		return fmt.Errorf("ring 1 search: %w", err)
	}
	s.track(meta)
	s.ring1 = ring1
	s.profile.RingAnalysis.Ring1 = models.RingResult{
		RadiusM:      ring1RadiusM,
		PlacesFound:  found,
		UniquePlaces: len(ring1),
		KeyVenues:    []string{},
	}
	s.step("Ring 1: Found %d places (%d unique)", found, len(ring1))
	if listTop && len(ring1) > 0 {
		s.step("Top places: %s", joinNames(ring1, 3))
	}
	return nil
}

// extendedAuthority runs the ring 1.5 tiered search and records its block
// when a major anchor turns up.
func (p *Pipeline) extendedAuthority(ctx context.Context, s *passState) *models.AuthorityResult {
	s.step("Step 2.5: Analyzing Ring 1.5 (tiered search: %s - extended DOOH authority search).",
		formatRadii(ring15SearchRadii))

	found, meta := fetchRing15(ctx, p.maps, s.lat, s.lng, s.step)
	s.track(meta)
	if found.Anchor == nil {
		return nil
	}

	s.step("Ring 1.5: Major anchor detected - %s (%s, %d reviews)",
		found.Anchor.AnchorName, found.Anchor.DetectedFrom, found.Anchor.Significance)
	s.profile.RingAnalysis.Ring15 = &models.Ring15Result{
		RadiusM:     ring15SearchRadii[len(ring15SearchRadii)-1],
		PlacesFound: found.LastBatch,
		MajorAnchor: &models.MajorAnchor{
			Name:    found.Anchor.AnchorName,
			Type:    found.Anchor.DetectedFrom,
			Ratings: found.Anchor.Significance,
		},
	}
	return found.Anchor
}

// classifyRing2 runs the adaptive classification ring, computes dominance and
// records the ring block. The area itself is classified by the caller.
func (p *Pipeline) classifyRing2(ctx context.Context, s *passState) error {
	s.step("Step 3: Analyzing Ring 2 (area classification).")
	ring2, meta, err := fetchRing2(ctx, p.maps, s.lat, s.lng, s.geo.CityTier, p.opts.MaxRing2Results, s.step)
	if err != nil {
		return fmt.Errorf("ring 2 search: %w", err)
	}
	s.track(meta)
	s.ring2 = ring2

	s.counts, s.unique = places.CountByGroup(ring2.Places)
	s.dom = computeDominance(s.counts)
	s.profile.PlaceGroups = s.counts
	s.profile.DominanceRatio = round3(s.dom.DominantRatio)

	second := s.dom.Second
	if second == "" {
		second = "none"
	}
	s.step("Dominant groups: %s", formatGroupCounts(s.counts, 3, ": "))
	s.step("Dominance ratio: %.2f (%s vs %s)", s.dom.DominantRatio, s.dom.Dominant, second)

	s.profile.RingAnalysis.Ring2 = models.Ring2Result{
		RadiusM:        ring2.RadiusM,
		BaseRadiusM:    ring2BaseRadiusM,
		Expanded:       ring2.RadiusM > ring2BaseRadiusM,
		PlacesFound:    ring2.PlacesFound,
		UniquePlaces:   s.unique,
		PlaceGroups:    s.counts,
		DominantGroup:  s.dom.Dominant,
		DominanceRatio: round3(s.dom.DominantRatio),
		SecondGroup:    s.dom.Second,
		SecondRatio:    round3(s.dom.SecondRatio),
	}
	return nil
}

// applyRulesArea classifies the area from the dominance profile.
func (s *passState) applyRulesArea() {
	areaType, detail := resolvePrimaryType(s.dom)
	s.profile.Area = models.AreaResult{
		Type:                 areaType,
		Context:              deriveContext(areaType, detail, s.dom, nil),
		Confidence:           computeConfidence(s.unique, s.ring2.RadiusM, s.dom.Groups),
		ClassificationDetail: detail,
		DominantGroup:        s.dom.Dominant,
	}
}

// analyzeMovement pulls the movement ring and derives the movement type. The
// step number varies by mode since LLM stages may run first.
func (p *Pipeline) analyzeMovement(ctx context.Context, s *passState, stepNum int) {
	s.step("Step %d: Analyzing Ring 3 (200m - movement context).", stepNum)
	mc, meta, err := p.maps.MovementContext(ctx, s.lat, s.lng, &s.geo)
	if err != nil {
		logging.Warn().Err(err).Msg("Movement context unavailable, defaulting to slow flow")
		s.profile.Metadata.Warnings = append(s.profile.Metadata.Warnings, "movement context unavailable")
		mc = maps.MovementContext{RoadType: "local"}
	}
	s.track(meta)

	s.profile.Movement = deriveMovement(mc)
	s.step("Movement Type: %s", s.profile.Movement.Type)
	s.step("Context: %s", s.profile.Movement.Context)
	s.profile.RingAnalysis.Ring3 = models.Ring3Result{
		RadiusM:            ring3RadiusM,
		RoadType:           mc.RoadType,
		NearJunction:       mc.NearJunction,
		PedestrianFriendly: mc.PedestrianFriendly,
	}
}

// applyDwell derives the dwell verdict. authority is the ring 1 anchor when
// one settled the classification; ring 1.5 anchors do not pin dwell.
func (s *passState) applyDwell(authority *models.AuthorityResult) {
	dwell := deriveDwell(s.profile.Area.Type, s.profile.Movement.Type, s.counts, authority)
	s.profile.DwellCategory = dwell.Category
	s.profile.DwellConfidence = dwell.Confidence
	s.profile.DwellScore = dwell.Score
}

// finish stamps processing time and returns the profile.
func (s *passState) finish() *models.AreaProfile {
	s.profile.Metadata.ProcessingTimeMS = time.Since(s.start).Milliseconds()
	return s.profile
}

// rulesProfile is the deterministic pass: authority detection, extended
// authority search, adaptive classification, movement and dwell. The pass
// state is returned so LLM modes can reuse its fetches without refetching.
func (p *Pipeline) rulesProfile(ctx context.Context, lat, lng float64) (*models.AreaProfile, *passState, error) {
	s, err := p.beginPass(ctx, lat, lng)
	if err != nil {
		return nil, nil, err
	}
	s.profile.Metadata.PipelineMode = models.PipelineModeRules

	if err := p.fetchAuthorityRing(ctx, s, "authority detection", true); err != nil {
		return nil, nil, err
	}

	authority, rejected := detectAuthority(lat, lng, s.ring1)
	if authority != nil {
		s.profile.RingAnalysis.Ring1.KeyVenues = []string{authority.DetectedFrom}
	} else {
		s.step("Ring 1: No high-priority authority anchor detected (hospital, train station, etc.)")
	}
	if rejected != nil {
		s.profile.RingAnalysis.Ring1.RejectedAuthority = rejected
		s.step("Ring 1: Potential authority '%s' (%s) rejected - %s",
			rejected.PlaceName, rejected.Type, rejected.Reason)
	}

	if authority != nil {
		s.step("Authority detected: %s (%s) within 75m - %d reviews",
			authority.DetectedFrom, authority.AnchorName, authority.Significance)
		s.step("Ring 2 skipped due to authority override")

		s.profile.Authority = *authority
		s.profile.DominanceRatio = 1.0
		s.profile.Area = models.AreaResult{
			Type:                 authority.AuthorityType,
			Context:              authority.AuthorityContext,
			Confidence:           ConfidenceHigh,
			ClassificationDetail: detailAuthorityOverride,
			DominantGroup:        authority.AuthorityType,
		}
		s.profile.RingAnalysis.Ring2 = models.Ring2Result{
			RadiusM:     ring2BaseRadiusM,
			BaseRadiusM: ring2BaseRadiusM,
			PlaceGroups: map[string]int{},
			Skipped:     true,
			SkipReason:  detailAuthorityOverride,
		}
	} else {
		ext := p.extendedAuthority(ctx, s)

		if err := p.classifyRing2(ctx, s); err != nil {
			return nil, nil, err
		}
		s.applyRulesArea()
		s.step("Ring 2: Groups - %s", formatGroupCounts(s.counts, 0, ":"))
		s.step("Area classification: %s (%s, ratio: %.2f)",
			s.profile.Area.Type, s.profile.Area.ClassificationDetail, s.dom.DominantRatio)

		// A major anchor within walking distance outranks the local mix,
		// but the local context stays visible in the label.
		if ext != nil {
			s.profile.Authority = *ext
			s.profile.Area.Type = ext.AuthorityType
			local := s.profile.Area.Context
			if local == "" {
				local = "Mixed Use Area"
			}
			s.profile.Area.Context = fmt.Sprintf("%s (Local: %s)", ext.AuthorityContext, local)
			s.profile.Area.ClassificationDetail = detailExtendedAuthority
			s.profile.Area.Confidence = ConfidenceHigh
			s.step("Final type overridden by Ring 1.5 major anchor: %s", ext.AnchorName)
		}
	}

	p.analyzeMovement(ctx, s, 4)
	s.applyDwell(authority)

	logging.Info().
		Float64("lat", lat).
		Float64("lng", lng).
		Str("area_type", s.profile.Area.Type).
		Str("detail", s.profile.Area.ClassificationDetail).
		Str("confidence", s.profile.Area.Confidence).
		Int("api_calls", s.profile.Metadata.APICallsMade).
		Msg("Area profile computed")

	return s.finish(), s, nil
}

// hybridProfile runs the rules pass, then consults the LLM only when the
// deterministic result is ambiguous.
func (p *Pipeline) hybridProfile(ctx context.Context, lat, lng float64) (*models.AreaProfile, error) {
	profile, s, err := p.rulesProfile(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	profile.Metadata.PipelineMode = models.PipelineModeHybrid

	reason := shouldUseLLM(profile)
	profile.Metadata.LLM = &models.LLMTrace{Mode: "resolve_ambiguity", Reason: reason}
	if reason == llmReasonRulesSufficient {
		return profile, nil
	}
	metrics.RecordProfileEscalation(reason)

	s.step("Step 6: LLM enhancement triggered (%s)", reason)
	llmStart := time.Now()
	decision, err := p.llm.ResolveAmbiguity(ctx, llmInputFrom(s, s.ring2.Places))
	profile.Metadata.LLM.LatencyMS = time.Since(llmStart).Milliseconds()
	if err != nil {
		logging.Warn().Err(err).Msg("LLM ambiguity resolution failed, keeping rules result")
		s.step("LLM enhancement failed: %v", err)
		return s.finish(), nil
	}

	profile.Metadata.LLM.Used = true
	profile.Metadata.LLM.Cached = decision.Cached
	if applyLLMDecision(profile, decision) {
		s.step("LLM override: %s", decision.Reasoning)
	}
	return s.finish(), nil
}

// fullLLMProfile hands classification to the LLM, feeding it place details
// enriched with editorial summaries. Ring data, movement and dwell still come
// from the rules machinery; on LLM failure the rules classification stands.
func (p *Pipeline) fullLLMProfile(ctx context.Context, lat, lng float64) (*models.AreaProfile, error) {
	s, err := p.beginPass(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	s.profile.Metadata.PipelineMode = models.PipelineModeFullLLM
	s.profile.Metadata.Version = models.ProfileContractVersionLLM

	if err := p.fetchAuthorityRing(ctx, s, "authority context", true); err != nil {
		return nil, err
	}
	if err := p.classifyRing2(ctx, s); err != nil {
		return nil, err
	}

	s.step("Step 4: Enriching places with editorial summaries.")
	combined := combineRings(s.ring1, s.ring2.Places)
	enriched, enrichMeta := p.maps.EnrichPlaces(ctx, combined, p.opts.EnrichLimit, len(s.ring1))
	s.track(enrichMeta)

	withEditorial := 0
	for _, pl := range enriched {
		if pl.EditorialSummary != "" {
			withEditorial++
		}
	}
	s.step("Enriched %d places, %d have editorial summaries", len(enriched), withEditorial)

	s.step("Step 5: Full LLM classification with enriched context.")
	llmStart := time.Now()
	decision, err := p.llm.ClassifyArea(ctx, llmInputFrom(s, enriched))
	s.profile.Metadata.LLM = &models.LLMTrace{
		Mode:      "classify_area",
		LatencyMS: time.Since(llmStart).Milliseconds(),
	}
	if err != nil {
		logging.Warn().Err(err).Msg("LLM classification failed, falling back to rules")
		s.step("LLM failed, falling back to rules: %v", err)
		s.applyRulesArea()
	} else {
		s.profile.Metadata.LLM.Used = true
		s.profile.Metadata.LLM.Cached = decision.Cached
		s.profile.Area = models.AreaResult{
			Type:                 decision.AreaType,
			Context:              decision.Context,
			Confidence:           decision.Confidence,
			ClassificationDetail: detailLLMClassified,
			DominantGroup:        s.dom.Dominant,
			Reasoning:            decision.Reasoning,
		}
		s.step("LLM classification: %s (%s)", decision.AreaType, detailLLMClassified)
		if decision.Reasoning != "" {
			s.step("LLM reasoning: %s", truncate(decision.Reasoning, 150))
		}
	}

	p.analyzeMovement(ctx, s, 6)
	s.applyDwell(nil)
	return s.finish(), nil
}

// researchProfile classifies through the research agent: plan, grounded
// research, classify, verify. Ring data still frames the profile and serves
// as the fallback classification.
func (p *Pipeline) researchProfile(ctx context.Context, lat, lng float64) (*models.AreaProfile, error) {
	s, err := p.beginPass(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	s.profile.Metadata.PipelineMode = models.PipelineModeResearchAgent
	s.profile.Metadata.Version = models.ProfileContractVersionResearch

	if err := p.fetchAuthorityRing(ctx, s, "authority context", false); err != nil {
		return nil, err
	}
	if err := p.classifyRing2(ctx, s); err != nil {
		return nil, err
	}

	s.step("Step 4: Running research agent (PLAN -> RESEARCH -> CLASSIFY -> VERIFY).")
	llmStart := time.Now()
	decision, err := p.llm.Research(ctx, lat, lng, s.geo)
	s.profile.Metadata.LLM = &models.LLMTrace{
		Mode:      "research_agent",
		LatencyMS: time.Since(llmStart).Milliseconds(),
	}
	if err != nil {
		logging.Warn().Err(err).Msg("Research agent failed, falling back to rules")
		s.step("Research agent error: %v", err)
		s.applyRulesArea()
	} else {
		s.profile.Metadata.LLM.Used = true
		s.profile.Metadata.LLM.Cached = decision.Cached
		s.profile.Metadata.LLM.Verification = decision.Verification
		s.profile.Area = models.AreaResult{
			Type:                 decision.AreaType,
			Context:              decision.Context,
			Confidence:           decision.Confidence,
			ClassificationDetail: detailResearchAgent,
			DominantGroup:        s.dom.Dominant,
			Reasoning:            decision.Reasoning,
		}
		s.step("Research Agent: %s (%s)", decision.AreaType, detailResearchAgent)
		s.step("Verification: %s", decision.Verification)
		if decision.Reasoning != "" {
			s.step("Agent reasoning: %s", decision.Reasoning)
		}
	}

	p.analyzeMovement(ctx, s, 5)
	s.applyDwell(nil)
	return s.finish(), nil
}

// LLM trigger reasons.
const (
	llmReasonLowConfidence      = "LOW_CONFIDENCE"
	llmReasonCloseDominance     = "CLOSE_DOMINANCE_RATIOS"
	llmReasonInsufficientPlaces = "INSUFFICIENT_PLACES_DATA"
	llmReasonBorderline         = "BORDERLINE_CLASSIFICATION"
	llmReasonRulesSufficient    = "RULES_SUFFICIENT"
)

// shouldUseLLM decides whether the rules result is ambiguous enough to pay
// for an LLM call. Thresholds are tuned so clear classifications never
// trigger it.
func shouldUseLLM(profile *models.AreaProfile) string {
	ring2 := profile.RingAnalysis.Ring2
	ratio := profile.DominanceRatio

	switch {
	case profile.Area.Confidence == ConfidenceLow:
		return llmReasonLowConfidence
	case ratio < thresholdModerateBias && math.Abs(ratio-ring2.SecondRatio) < coDominanceGap:
		return llmReasonCloseDominance
	case ring2.UniquePlaces < 5 && ratio < thresholdStrongBias:
		return llmReasonInsufficientPlaces
	case profile.Area.Confidence == ConfidenceMedium && ratio < 0.25 && ring2.UniquePlaces < 8:
		return llmReasonBorderline
	default:
		return llmReasonRulesSufficient
	}
}

// applyLLMDecision folds an accepted LLM decision into the profile. Reports
// whether the decision overrode the rules classification.
func applyLLMDecision(profile *models.AreaProfile, decision *LLMDecision) bool {
	if decision.AreaType == "" || decision.AreaType == profile.Area.Type {
		if decision.Reasoning != "" {
			profile.Area.Reasoning = decision.Reasoning
		}
		return false
	}

	profile.Area.Type = decision.AreaType
	if decision.Context != "" {
		profile.Area.Context = decision.Context
	} else if label, ok := contextMap[decision.AreaType]; ok {
		profile.Area.Context = label
	}
	if decision.Confidence != "" {
		profile.Area.Confidence = decision.Confidence
	}
	profile.Area.ClassificationDetail = detailLLMOverride
	profile.Area.Reasoning = decision.Reasoning
	return true
}

// combineRings merges ring 1 and ring 2 places for enrichment, ring 1 first,
// unique by place id.
func combineRings(ring1, ring2 []places.Place) []places.Place {
	seen := make(map[string]bool, len(ring1)+len(ring2))
	out := make([]places.Place, 0, len(ring1)+len(ring2))
	for _, list := range [][]places.Place{ring1, ring2} {
		for _, p := range list {
			if p.PlaceID == "" || seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true
			out = append(out, p)
		}
	}
	return out
}

// joinNames lists the first n place names.
func joinNames(list []places.Place, n int) string {
	if len(list) > n {
		list = list[:n]
	}
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// formatGroupCounts renders group tallies sorted by count, largest first,
// ties by name. top limits the output; 0 keeps every group.
func formatGroupCounts(counts map[string]int, top int, sep string) string {
	type entry struct {
		group string
		count int
	}
	ranked := make([]entry, 0, len(counts))
	for g, n := range counts {
		ranked = append(ranked, entry{g, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].group < ranked[j].group
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	parts := make([]string, len(ranked))
	for i, e := range ranked {
		parts[i] = e.group + sep + strconv.Itoa(e.count)
	}
	return strings.Join(parts, ", ")
}

func formatRadii(radii []int) string {
	parts := make([]string, len(radii))
	for i, r := range radii {
		parts[i] = strconv.Itoa(r)
	}
	return "[" + strings.Join(parts, ", ") + "]m"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func toModelGeo(geo maps.GeoContext) models.GeoContext {
	return models.GeoContext{
		City:             geo.City,
		State:            geo.State,
		Country:          geo.Country,
		CityTier:         geo.CityTier,
		FormattedAddress: geo.FormattedAddress,
		Street:           geo.Street,
		Sublocality:      geo.Sublocality,
		PostalCode:       geo.PostalCode,
		PlusCode:         geo.PlusCode,
		LocationType:     geo.LocationType,
		ViewportAreaKm2:  geo.ViewportAreaKm2,
	}
}
