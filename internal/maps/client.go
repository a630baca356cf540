// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package maps is the Google Maps Web Services client used by the area
// profiler: reverse geocoding, paginated nearby search, place details
// enrichment, and the movement-context scan.
//
// All calls go through a circuit breaker and a shared rate limiter, and are
// cached at two levels: an in-memory TTL cache for the hot path and a
// badger-backed persistent cache so the 30-day geocode and 7-day places
// entries survive restarts.
package maps

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/cache"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

const (
	// maxPages caps nearby-search pagination. Each page holds up to 20
	// results, so 3 pages covers the 60-result maximum.
	maxPages = 3

	// overQueryRetries is how many times an OVER_QUERY_LIMIT response is
	// retried before giving up.
	overQueryRetries = 2
)

// Client is the Google Maps API client.
type Client struct {
	cfg     config.MapsConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	mem     *cache.Cache
	persist *cache.PersistentCache

	// sleep is swapped out in tests to avoid real page-token waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a maps client. persist may be nil, in which case only the
// in-memory cache is used.
func New(cfg config.MapsConfig, persist *cache.PersistentCache) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "google-maps",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.RecordBreakerStateChange(name, from.String(), to.String())
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		mem:     cache.New("maps", time.Hour),
		persist: persist,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Configured reports whether an API key is present. An unconfigured client
// serves neutral defaults instead of calling out, so profiling degrades
// rather than failing.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// ReverseGeocode resolves coordinates to an address context. Results are
// cached for the configured geocode TTL (default 30 days).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (GeoContext, Meta, error) {
	if !c.Configured() {
		return UnknownGeoContext(), Meta{Cached: true}, nil
	}

	key := fmt.Sprintf("geocode_full_%.5f_%.5f", lat, lng)

	var geo GeoContext
	if c.cacheGet(key, &geo) {
		return geo, Meta{Cached: true}, nil
	}

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))

	body, err := c.get(ctx, "/geocode/json", params)
	if err != nil {
		return UnknownGeoContext(), Meta{NetworkCalls: 1}, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return UnknownGeoContext(), Meta{NetworkCalls: 1}, fmt.Errorf("decode geocode response: %w", err)
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		geo = UnknownGeoContext()
		c.cacheSet(key, geo, c.cfg.GeocodeTTL)
		return geo, Meta{NetworkCalls: 1}, nil
	default:
		return UnknownGeoContext(), Meta{NetworkCalls: 1}, fmt.Errorf("%w: geocode returned %s", ErrBadStatus, resp.Status)
	}

	geo = parseGeocode(&resp)
	c.cacheSet(key, geo, c.cfg.GeocodeTTL)
	return geo, Meta{NetworkCalls: 1}, nil
}

// parseGeocode extracts the address context from the first geocode result.
func parseGeocode(resp *geocodeResponse) GeoContext {
	if len(resp.Results) == 0 {
		return UnknownGeoContext()
	}

	first := resp.Results[0]
	geo := UnknownGeoContext()
	geo.FormattedAddress = first.FormattedAddress
	geo.PlusCode = first.PlusCode.GlobalCode
	geo.LocationType = first.Geometry.LocationType

	for _, comp := range first.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "route":
				geo.Street = comp.LongName
			case "sublocality", "sublocality_level_1":
				geo.Sublocality = comp.LongName
			case "locality", "administrative_area_level_2":
				geo.City = comp.LongName
			case "administrative_area_level_1":
				geo.State = comp.LongName
			case "country":
				geo.Country = comp.LongName
			case "postal_code":
				geo.PostalCode = comp.LongName
			}
		}
	}

	geo.CityTier = CityTier(geo.City)
	geo.ViewportAreaKm2 = viewportAreaKm2(
		first.Geometry.Viewport.Northeast,
		first.Geometry.Viewport.Southwest,
	)
	return geo
}

// viewportAreaKm2 approximates the viewport area from its corners.
func viewportAreaKm2(ne, sw latLng) float64 {
	latKm := math.Abs(ne.Lat-sw.Lat) * 110.574
	midLat := (ne.Lat + sw.Lat) / 2
	lngKm := math.Abs(ne.Lng-sw.Lng) * 111.320 * math.Cos(midLat*math.Pi/180)
	return latKm * lngKm
}

// NearbyPlaces runs a paginated nearby search. Up to three pages are
// fetched, with the configured delay between pages so the next_page_token
// has time to activate. Results are cached for the places TTL (7 days).
func (c *Client) NearbyPlaces(ctx context.Context, lat, lng float64, radius, maxResults int) ([]places.Place, Meta, error) {
	if !c.Configured() {
		return nil, Meta{Cached: true}, nil
	}

	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 60 {
		maxResults = 60
	}

	key := fmt.Sprintf("places_%.5f_%.5f_%d_%d", lat, lng, radius, maxResults)

	var cached []places.Place
	if c.cacheGet(key, &cached) {
		return cached, Meta{Cached: true}, nil
	}

	pagesNeeded := (maxResults + 19) / 20
	if pagesNeeded > maxPages {
		pagesNeeded = maxPages
	}

	var (
		result []places.Place
		token  string
		meta   Meta
	)

	for page := 0; page < pagesNeeded; page++ {
		params := url.Values{}
		params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
		params.Set("radius", fmt.Sprintf("%d", radius))
		if token != "" {
			if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
				return result, meta, err
			}
			params.Set("pagetoken", token)
		}

		body, err := c.get(ctx, "/place/nearbysearch/json", params)
		meta.NetworkCalls++
		if err != nil {
			return result, meta, err
		}

		var resp nearbyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return result, meta, fmt.Errorf("decode nearby response: %w", err)
		}

		switch resp.Status {
		case "OK":
		case "ZERO_RESULTS":
			// Valid empty page.
		default:
			return result, meta, fmt.Errorf("%w: nearby search returned %s", ErrBadStatus, resp.Status)
		}

		result = append(result, resp.toPlaces()...)
		if len(result) >= maxResults {
			result = result[:maxResults]
			break
		}

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	c.cacheSet(key, result, c.cfg.PlacesTTL)
	return result, meta, nil
}

// EnrichPlaces fetches Place Details (editorial summary, rating, business
// status) for the limit highest-priority places and returns them, best
// first. The first ring1Count entries of in are ring 1 members, which the
// scorer ranks ahead of ring 2. Enrichment failures for individual places
// are logged and skipped, never fatal.
func (c *Client) EnrichPlaces(ctx context.Context, in []places.Place, limit, ring1Count int) ([]places.Place, Meta) {
	out := places.RankForEnrichment(in, limit, ring1Count)
	if !c.Configured() {
		return out, Meta{Cached: true}
	}

	meta := Meta{Cached: true}
	for i := range out {
		if out[i].PlaceID == "" {
			continue
		}

		key := "place_details_" + out[i].PlaceID
		var detail places.Place
		if c.cacheGet(key, &detail) {
			applyDetail(&out[i], detail)
			continue
		}

		params := url.Values{}
		params.Set("place_id", out[i].PlaceID)
		params.Set("fields", "place_id,name,rating,user_ratings_total,business_status,editorial_summary")

		body, err := c.get(ctx, "/place/details/json", params)
		meta.NetworkCalls++
		meta.Cached = false
		if err != nil {
			logging.Warn().Err(err).Str("place_id", out[i].PlaceID).Msg("Place details fetch failed")
			continue
		}

		var resp detailsResponse
		if err := json.Unmarshal(body, &resp); err != nil || resp.Status != "OK" {
			continue
		}

		detail = places.Place{
			PlaceID:          resp.Result.PlaceID,
			Rating:           resp.Result.Rating,
			UserRatingsTotal: resp.Result.UserRatingsTotal,
			BusinessStatus:   resp.Result.BusinessStatus,
			EditorialSummary: resp.Result.EditorialSummary.Overview,
		}
		c.cacheSet(key, detail, c.cfg.PlacesTTL)
		applyDetail(&out[i], detail)
	}

	return out, meta
}

func applyDetail(p *places.Place, detail places.Place) {
	if detail.EditorialSummary != "" {
		p.EditorialSummary = detail.EditorialSummary
	}
	if detail.Rating > 0 {
		p.Rating = detail.Rating
	}
	if detail.UserRatingsTotal > 0 {
		p.UserRatingsTotal = detail.UserRatingsTotal
	}
	if detail.BusinessStatus != "" {
		p.BusinessStatus = detail.BusinessStatus
	}
}

// MovementContext derives road and foot-traffic signals for the point. The
// formatted address is scanned for road-class and junction keywords, and a
// 200m nearby search supplies traffic-signal and pedestrian-magnet types.
func (c *Client) MovementContext(ctx context.Context, lat, lng float64, geo *GeoContext) (MovementContext, Meta, error) {
	meta := Meta{Cached: true}

	if geo == nil {
		fetched, geoMeta, err := c.ReverseGeocode(ctx, lat, lng)
		meta.merge(geoMeta)
		if err != nil {
			return MovementContext{RoadType: "local"}, meta, err
		}
		geo = &fetched
	}

	formatted := strings.ToLower(geo.FormattedAddress)

	roadType := "local"
	if containsAny(formatted, "expressway", "national highway", "nh", "highway") {
		roadType = "highway"
	} else if containsAny(formatted, "main road", "ring road", "bypass", "arterial", "boulevard", "avenue") {
		roadType = "arterial"
	}

	nearby, nearbyMeta, err := c.NearbyPlaces(ctx, lat, lng, 200, 20)
	meta.merge(nearbyMeta)
	if err != nil {
		// Road-type signal alone is still useful.
		logging.Warn().Err(err).Msg("Movement context nearby search failed")
	}

	nearJunction := containsAny(formatted, "junction", "intersection", "signal", "cross", "circle", "roundabout")
	if !nearJunction {
		for _, p := range nearby {
			if hasType(p.Types, "traffic_signal") {
				nearJunction = true
				break
			}
		}
	}

	pedestrianFriendly := false
	for _, p := range nearby {
		if hasAnyType(p.Types,
			"park", "shopping_mall", "tourist_attraction",
			"school", "university",
			"transit_station", "bus_station", "train_station", "subway_station",
			"movie_theater",
		) {
			pedestrianFriendly = true
			break
		}
	}

	return MovementContext{
		RoadType:           roadType,
		NearJunction:       nearJunction,
		PedestrianFriendly: pedestrianFriendly,
	}, meta, nil
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func hasAnyType(types []string, wants ...string) bool {
	for _, w := range wants {
		if hasType(types, w) {
			return true
		}
	}
	return false
}

// get performs a rate-limited GET behind the circuit breaker, retrying
// OVER_QUERY_LIMIT responses with a short backoff.
func (c *Client) get(ctx context.Context, path string, params url.Values) (body []byte, err error) {
	start := time.Now()
	defer func() { metrics.RecordMapsCall(path, time.Since(start), err) }()

	params.Set("key", c.cfg.APIKey)
	fullURL := c.cfg.BaseURL + path + "?" + params.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, err
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("http status %d", resp.StatusCode)
			}
			return io.ReadAll(resp.Body)
		})
		metrics.RecordBreakerRequest("google-maps", err)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		if attempt < overQueryRetries && isOverQueryLimit(body) {
			if err := c.sleep(ctx, time.Second*time.Duration(attempt+1)); err != nil {
				return nil, err
			}
			continue
		}
		return body, nil
	}
}

// isOverQueryLimit peeks at the response status without a full decode.
func isOverQueryLimit(body []byte) bool {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Status == "OVER_QUERY_LIMIT"
}

// cacheGet checks the memory cache, then the persistent cache.
func (c *Client) cacheGet(key string, out interface{}) bool {
	if data, ok := c.mem.Get(key); ok {
		raw, err := json.Marshal(data)
		if err == nil && json.Unmarshal(raw, out) == nil {
			return true
		}
	}
	if c.persist != nil {
		if err := c.persist.Get(key, out); err == nil {
			c.mem.Set(key, out)
			return true
		}
	}
	return false
}

// cacheSet writes to both cache levels.
func (c *Client) cacheSet(key string, value interface{}, ttl time.Duration) {
	c.mem.SetWithTTL(key, value, ttl)
	if c.persist != nil {
		if err := c.persist.Set(key, value, ttl); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Persistent cache write failed")
		}
	}
}
