// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// maxErrorBodySize limits the maximum amount of response body read for
// error reporting. This prevents unbounded memory allocation when the
// console returns a large HTML error page.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxProfileBodySize caps a single profile document. Stored profiles
// are a few kilobytes; anything near this limit is malformed.
const maxProfileBodySize = 1 << 20 // 1MB

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// ConsoleScreen is one inventory record as served by the console screens
// endpoint. Decimal fields (coordinates, prices, physical dimensions)
// arrive as JSON strings from the console's serializer, so they decode
// through json.Number, which accepts both quoted and bare numbers.
type ConsoleScreen struct {
	ID            int64  `json:"id"`
	ScreenName    string `json:"screen_name"`
	Role          string `json:"role"`
	ProfileStatus string `json:"profile_status"`

	// Location
	City            string      `json:"city"`
	Latitude        json.Number `json:"latitude"`
	Longitude       json.Number `json:"longitude"`
	FullAddress     string      `json:"full_address"`
	NearestLandmark string      `json:"nearest_landmark"`

	// Display
	ScreenType       string      `json:"screen_type"`
	Environment      string      `json:"environment"`
	Orientation      string      `json:"orientation"`
	ScreenWidth      json.Number `json:"screen_width"`
	ScreenHeight     json.Number `json:"screen_height"`
	ResolutionWidth  *int        `json:"resolution_width"`
	ResolutionHeight *int        `json:"resolution_height"`
	BrightnessNits   *int        `json:"brightness_nits"`
	MountingHeightFt json.Number `json:"mounting_height_ft"`
	AudioSupported   bool        `json:"audio_supported"`

	// Slots and pricing
	StandardAdDurationSec int         `json:"standard_ad_duration_sec"`
	TotalSlotsPerLoop     int         `json:"total_slots_per_loop"`
	LoopLengthSec         string      `json:"loop_length_sec"` // "0:30" notation
	ReservedSlots         int         `json:"reserved_slots"`
	BasePricePerSlotINR   json.Number `json:"base_price_per_slot_inr"`

	// Content restrictions
	RestrictedCategories []string `json:"restricted_categories_json"`

	// Review state
	Status             string  `json:"status"`
	ScheduledBlockDate *string `json:"scheduled_block_date"` // Nullable - set when status is SCHEDULED_BLOCK

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ConsoleBooking is one slot booking as served by the console
// slot-bookings endpoint.
type ConsoleBooking struct {
	ID         int64  `json:"id"`
	Screen     *int64 `json:"screen"` // Nullable - references the console screen id
	NumSlots   int    `json:"num_slots"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	Payment    string `json:"payment"`
	CreatedAt  string `json:"created_at"`
}

// ConsoleAPI defines the console operations the sync manager depends on.
// Implemented by ConsoleClient for production use and by stubs in tests.
type ConsoleAPI interface {
	FetchScreens(ctx context.Context) ([]ConsoleScreen, error)
	FetchProfile(ctx context.Context, screenID string) (*models.AreaProfile, string, error)
	FetchBookings(ctx context.Context) ([]ConsoleBooking, error)
}

// ConsoleClient handles communication with the console HTTP API.
//
// The client is configured with:
//   - 30-second HTTP timeout
//   - 5 maximum retries for rate limiting
//   - 1-second base delay for exponential backoff (1s, 2s, 4s, 8s, 16s)
//
// Thread Safety: safe for concurrent use. Each request creates its own
// HTTP request.
type ConsoleClient struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewConsoleClient creates a console API client. The base URL is the API
// root, e.g. http://console:8000/api/console.
func NewConsoleClient(cfg *config.SyncConfig) *ConsoleClient {
	return &ConsoleClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// doRequestWithRateLimit performs a GET request with automatic rate
// limit handling. HTTP 429 responses are retried with exponential
// backoff, honoring the Retry-After header when the console sends one.
// The context is used for cancellation during backoff waits.
func (c *ConsoleClient) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited - close body and retry with backoff
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// getJSON fetches a console endpoint and decodes the JSON response into
// result. Non-200 statuses become errors carrying the response body.
func (c *ConsoleClient) getJSON(ctx context.Context, reqURL string, result interface{}) error {
	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("console request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode console response: %w", err)
	}
	return nil
}

// FetchScreens pulls the full screen inventory.
func (c *ConsoleClient) FetchScreens(ctx context.Context) ([]ConsoleScreen, error) {
	var screens []ConsoleScreen
	if err := c.getJSON(ctx, c.baseURL+"/screens/", &screens); err != nil {
		return nil, fmt.Errorf("fetch screens: %w", err)
	}
	return screens, nil
}

// FetchProfile pulls the computed area profile for one screen. The raw
// response body is returned alongside the decoded profile so the stored
// copy matches the console byte for byte. An empty object means the
// console has not profiled the screen yet; callers get a nil profile
// and no error.
func (c *ConsoleClient) FetchProfile(ctx context.Context, screenID string) (*models.AreaProfile, string, error) {
	reqURL := fmt.Sprintf("%s/screens/%s/profile/", c.baseURL, url.PathEscape(screenID))

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch profile for screen %s: %w", screenID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, "", fmt.Errorf("profile request for screen %s failed with status %d: %s",
			screenID, resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read profile for screen %s: %w", screenID, err)
	}

	var profile models.AreaProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, "", fmt.Errorf("decode profile for screen %s: %w", screenID, err)
	}
	if profile.Metadata.Version == "" {
		return nil, "", nil
	}
	return &profile, string(raw), nil
}

// FetchBookings pulls all slot bookings. The console has served both a
// bare array and an object wrapping it under "bookings"; both decode.
func (c *ConsoleClient) FetchBookings(ctx context.Context) ([]ConsoleBooking, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/slot-bookings/", &raw); err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Bookings []ConsoleBooking `json:"bookings"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode bookings envelope: %w", err)
		}
		return envelope.Bookings, nil
	}

	var bookings []ConsoleBooking
	if err := json.Unmarshal(trimmed, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}
