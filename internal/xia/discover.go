// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

const dateLayout = "2006-01-02"

// Unavailability reasons surfaced to the response call.
const (
	ReasonNoSlots       = "No slots available for the selected dates"
	ReasonExceedsBudget = "Exceeds budget"
)

// Indian state and union-territory names stripped from location tokens.
// Screens are matched by city and address, never by state.
var locationNoiseTerms = map[string]bool{
	"india": true, "tamil nadu": true, "karnataka": true, "kerala": true,
	"andhra pradesh": true, "telangana": true, "maharashtra": true,
	"rajasthan": true, "uttar pradesh": true, "madhya pradesh": true,
	"west bengal": true, "gujarat": true, "bihar": true, "odisha": true,
	"punjab": true, "haryana": true, "jharkhand": true, "chhattisgarh": true,
	"uttarakhand": true, "himachal pradesh": true, "goa": true,
	"tripura": true, "meghalaya": true, "manipur": true, "nagaland": true,
	"mizoram": true, "arunachal pradesh": true, "sikkim": true, "assam": true,
	"jammu and kashmir": true, "ladakh": true, "puducherry": true,
	"chandigarh": true, "delhi": true, "lakshadweep": true,
	"andaman and nicobar islands": true, "dadra and nagar haveli": true,
	"daman and diu": true,
}

// Pin codes and other pure digit runs inside address fragments.
var digitRunPattern = regexp.MustCompile(`\b\d{3,}\b`)

// Engine is the deterministic screen discovery engine. Every LLM decision
// is re-validated here before touching the database.
type Engine struct {
	db  *database.DB
	cfg config.ChatConfig
}

// NewEngine returns a discover engine over the inventory store.
func NewEngine(db *database.DB, cfg config.ChatConfig) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// extractLocationTokens splits a location entry into search tokens: split on
// commas, strip digit runs, drop state noise terms. Returns nil when nothing
// meaningful survives.
func extractLocationTokens(location string) []string {
	var tokens []string
	for _, part := range strings.Split(location, ",") {
		cleaned := strings.TrimSpace(digitRunPattern.ReplaceAllString(part, ""))
		if cleaned == "" || locationNoiseTerms[strings.ToLower(cleaned)] {
			continue
		}
		tokens = append(tokens, cleaned)
	}
	return tokens
}

// parseBudget parses a budget string like "50000" or "50000-100000". Ranges
// resolve to their upper bound.
func parseBudget(budget string) (float64, error) {
	budget = strings.TrimSpace(budget)
	if i := strings.LastIndex(budget, "-"); i > 0 {
		budget = strings.TrimSpace(budget[i+1:])
	}
	v, err := strconv.ParseFloat(budget, 64)
	if err != nil {
		return 0, fmt.Errorf("parse budget %q: %w", budget, err)
	}
	return v, nil
}

// Discover runs the full discovery pass: filter inventory, match locations,
// compute per-screen slot availability and budget fit for the campaign
// window.
func (e *Engine) Discover(ctx context.Context, params models.DiscoverParams) (*models.DiscoverResult, error) {
	result := &models.DiscoverResult{
		AppliedFilters:  params.Filters,
		AppliedExcludes: params.Excludes,
		TextSearch:      params.TextSearch,
	}

	start, err := time.Parse(dateLayout, params.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(dateLayout, params.EndDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return result, nil
	}

	budget, err := parseBudget(params.BudgetRange)
	if err != nil {
		return nil, err
	}
	dailyBudget := budget / float64(days)

	// Stale assistant holds release their slots before availability math.
	if _, err := e.db.ExpireStaleHolds(ctx, e.cfg.HoldExpiry); err != nil {
		logging.Warn().Err(err).Msg("Hold expiry sweep failed during discover")
	}

	query, dropped := buildScreenQuery(params)
	result.DroppedFilters = dropped

	screens, err := e.db.QueryScreens(ctx, query)
	if err != nil {
		return nil, err
	}

	// Location matching happens here rather than in SQL: a screen matches
	// when any token of any requested location appears in its address
	// fields.
	tokensByLocation := make(map[string][]string, len(params.Location))
	for _, loc := range params.Location {
		tokens := extractLocationTokens(loc)
		if len(tokens) == 0 {
			tokens = []string{loc}
		}
		tokensByLocation[loc] = tokens
	}

	var matched []models.Screen
	matchedLocations := make(map[string]bool, len(params.Location))
	for _, s := range screens {
		if len(params.Location) == 0 {
			matched = append(matched, s)
			continue
		}
		hit := false
		for loc, tokens := range tokensByLocation {
			if screenMatchesTokens(&s, tokens) {
				matchedLocations[loc] = true
				hit = true
			}
		}
		if hit {
			matched = append(matched, s)
		}
	}

	for _, loc := range params.Location {
		if !matchedLocations[loc] {
			result.NotAvailableLocations = append(result.NotAvailableLocations, loc)
		}
	}

	ids := make([]string, len(matched))
	for i, s := range matched {
		ids[i] = s.ScreenID
	}
	bookings, err := e.db.BookingsForScreens(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = e.cfg.ScreenResultLimit
	}

	result.TotalMatched = len(matched)
	result.UnavailabilityInfo = make(map[string]int)
	for _, s := range matched {
		avail := e.availability(&s, bookings[s.ScreenID], dailyBudget, days, end)
		if avail.Available {
			result.TotalAvailable++
		} else if avail.Reason != "" {
			result.UnavailabilityInfo[avail.Reason]++
		}
		if len(result.Screens) < limit {
			result.Screens = append(result.Screens, models.DiscoveredScreen{
				Screen:       s,
				Availability: avail,
			})
		}
	}
	if len(result.UnavailabilityInfo) == 0 {
		result.UnavailabilityInfo = nil
	}

	logging.Info().
		Int("matched", result.TotalMatched).
		Int("available", result.TotalAvailable).
		Strs("locations", params.Location).
		Msg("Discover completed")
	return result, nil
}

// availability computes slot availability and budget fit for one screen.
func (e *Engine) availability(s *models.Screen, bookings []models.SlotBooking, dailyBudget float64, days int, end time.Time) models.ScreenAvailability {
	booked := 0
	for _, b := range bookings {
		if b.ConsumesSlots() {
			booked += b.BookedNumSlots
		}
	}

	avail := models.ScreenAvailability{
		TotalSlots:     s.TotalSlots,
		AvailableSlots: s.TotalSlots - s.ReservedSlots - booked,
		EstimatedCost:  s.PricePerSlot * float64(days),
	}
	if avail.AvailableSlots < 0 {
		avail.AvailableSlots = 0
	}

	switch {
	case avail.AvailableSlots <= 0:
		avail.Reason = ReasonNoSlots
	case dailyBudget < s.PricePerSlot:
		avail.Reason = ReasonExceedsBudget
	default:
		avail.Available = true
	}

	if s.Status == models.ScreenStatusScheduledBlock && s.BlockedUntil != nil && end.After(*s.BlockedUntil) {
		avail.BlockWarning = fmt.Sprintf(
			"This screen is available only until %s. You may schedule your campaign within this date range.",
			s.BlockedUntil.Format(dateLayout))
	}
	return avail
}

// screenMatchesTokens reports whether any token appears in the screen's
// address fields.
func screenMatchesTokens(s *models.Screen, tokens []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		s.SpecCity, s.SpecState, s.SpecFullAddress, s.SpecNearestLandmark, s.AreaContext,
	}, " "))
	for _, token := range tokens {
		if strings.Contains(haystack, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// buildScreenQuery translates understanding-call filter maps into a typed
// inventory query. Unknown fields and malformed values are dropped and
// reported, never passed through.
func buildScreenQuery(params models.DiscoverParams) (database.ScreenQuery, []string) {
	var dropped []string

	query := database.ScreenQuery{
		Filters:      make(map[string]interface{}),
		Excludes:     make(map[string]interface{}),
		EligibleOnly: true,
	}

	translate := func(dst map[string]interface{}, src map[string]interface{}) {
		for field, value := range src {
			typed, ok := translateFilterValue(field, value)
			if !ok {
				dropped = append(dropped, field)
				logging.Warn().Str("field", field).Msg("Unknown discover filter dropped")
				continue
			}
			dst[field] = typed
		}
	}
	translate(query.Filters, params.Filters)
	translate(query.Excludes, params.Excludes)

	if term := strings.TrimSpace(params.TextSearch); term != "" {
		query.TextTokens = append(query.TextTokens, term)
	}
	return query, dropped
}

// translateFilterValue converts one raw filter value into the typed form
// the database layer accepts.
func translateFilterValue(field string, value interface{}) (interface{}, bool) {
	switch {
	case isEnumFilter(field):
		switch v := value.(type) {
		case string:
			if field == "audio_supported" {
				return strings.EqualFold(v, "true"), true
			}
			return v, true
		case bool:
			return v, true
		case []interface{}:
			values := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					values = append(values, s)
				}
			}
			if len(values) == 0 {
				return nil, false
			}
			return values, true
		case []string:
			return v, true
		}
		return nil, false

	case isNumericFilter(field):
		switch v := value.(type) {
		case float64:
			return database.NumericCondition{Op: "=", Value: v}, true
		case int:
			return database.NumericCondition{Op: "=", Value: float64(v)}, true
		case map[string]interface{}:
			for op, raw := range v {
				sqlOp, ok := filterOperators[op]
				if !ok {
					continue
				}
				num, ok := toFloat(raw)
				if !ok {
					continue
				}
				return database.NumericCondition{Op: sqlOp, Value: num}, true
			}
			return nil, false
		}
		return nil, false
	}
	return nil, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
