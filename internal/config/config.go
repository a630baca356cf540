// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package config provides layered configuration loading: struct defaults,
// then an optional YAML file, then environment variables. Every field has a
// sane default so the service starts with nothing but the upstream API keys
// set.
package config

import (
	"fmt"
	"time"
)

// AppVersion is the service version reported by health and metrics.
const AppVersion = "1.0.0"

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Maps     MapsConfig     `koanf:"maps"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	ChatLLM  ChatLLMConfig  `koanf:"chat_llm"`
	Profiler ProfilerConfig `koanf:"profiler"`
	Chat     ChatConfig     `koanf:"chat"`
	Sync     SyncConfig     `koanf:"sync"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
	File   string `koanf:"file"`
}

// DatabaseConfig controls the DuckDB inventory store.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// SessionConfig controls the badger-backed session store.
type SessionConfig struct {
	Dir         string `koanf:"dir"`
	ExpiryHours int    `koanf:"expiry_hours"`
}

// MapsConfig controls the Google Maps client.
type MapsConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxResults    int           `koanf:"max_results"`
	EnrichLimit   int           `koanf:"enrich_limit"`
	PageDelay     time.Duration `koanf:"page_delay"`
	GeocodeTTL    time.Duration `koanf:"geocode_ttl"`
	PlacesTTL     time.Duration `koanf:"places_ttl"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	CacheDir      string        `koanf:"cache_dir"`
}

// GeminiConfig controls the profiler LLM.
type GeminiConfig struct {
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	FallbackModel   string        `koanf:"fallback_model"`
	MaxRetries      int           `koanf:"max_retries"`
	Timeout         time.Duration `koanf:"timeout"`
	Temperature     float64       `koanf:"temperature"`
	MaxOutputTokens int           `koanf:"max_output_tokens"`
	EnableGrounding bool          `koanf:"enable_grounding"`
}

// ChatLLMConfig controls the OpenAI-compatible conversational backend.
type ChatLLMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// ProfilerConfig controls the area profiling pipeline.
type ProfilerConfig struct {
	DefaultMode string `koanf:"default_mode"`
}

// ChatConfig controls the conversational orchestrator.
type ChatConfig struct {
	RateLimitMessages   int           `koanf:"rate_limit_messages"`
	RateLimitWindow     time.Duration `koanf:"rate_limit_window"`
	MaxQuestionAttempts int           `koanf:"max_question_attempts"`
	HoldExpiry          time.Duration `koanf:"hold_expiry"`
	SweepInterval       time.Duration `koanf:"sweep_interval"`
	ScreenResultLimit   int           `koanf:"screen_result_limit"`
}

// SyncConfig controls the console inventory sync loop.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Interval time.Duration `koanf:"interval"`
}

// defaultConfig returns the full default configuration. Layered providers
// override these values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:         "data/screens.db",
			MaxOpenConns: 8,
		},
		Session: SessionConfig{
			Dir:         "data/sessions",
			ExpiryHours: 24,
		},
		Maps: MapsConfig{
			BaseURL:       "https://maps.googleapis.com/maps/api",
			Timeout:       15 * time.Second,
			MaxResults:    60,
			EnrichLimit:   20,
			PageDelay:     2 * time.Second,
			GeocodeTTL:    30 * 24 * time.Hour,
			PlacesTTL:     7 * 24 * time.Hour,
			RatePerSecond: 10,
			CacheDir:      "data/geocache",
		},
		Gemini: GeminiConfig{
			Model:           "gemini-3-flash-preview",
			FallbackModel:   "gemini-2.0-flash-001",
			MaxRetries:      3,
			Timeout:         30 * time.Second,
			Temperature:     0.0,
			MaxOutputTokens: 2000,
			EnableGrounding: true,
		},
		ChatLLM: ChatLLMConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 45 * time.Second,
		},
		Profiler: ProfilerConfig{
			DefaultMode: "hybrid",
		},
		Chat: ChatConfig{
			RateLimitMessages:   50,
			RateLimitWindow:     15 * time.Minute,
			MaxQuestionAttempts: 2,
			HoldExpiry:          10 * time.Minute,
			SweepInterval:       5 * time.Minute,
			ScreenResultLimit:   30,
		},
		Sync: SyncConfig{
			Enabled:  false,
			Interval: 30 * time.Minute,
		},
	}
}

// Validate checks configuration ranges. Called after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Session.ExpiryHours < 1 {
		return fmt.Errorf("session.expiry_hours must be positive, got %d", c.Session.ExpiryHours)
	}
	if c.Maps.MaxResults < 1 || c.Maps.MaxResults > 60 {
		return fmt.Errorf("maps.max_results must be 1-60, got %d", c.Maps.MaxResults)
	}
	if c.Maps.RatePerSecond <= 0 {
		return fmt.Errorf("maps.rate_per_second must be positive, got %f", c.Maps.RatePerSecond)
	}
	switch c.Profiler.DefaultMode {
	case "rules", "hybrid", "full_llm", "research_agent":
	default:
		return fmt.Errorf("profiler.default_mode must be one of rules, hybrid, full_llm, research_agent, got %q", c.Profiler.DefaultMode)
	}
	if c.Chat.RateLimitMessages < 1 {
		return fmt.Errorf("chat.rate_limit_messages must be positive, got %d", c.Chat.RateLimitMessages)
	}
	if c.Chat.MaxQuestionAttempts < 1 {
		return fmt.Errorf("chat.max_question_attempts must be positive, got %d", c.Chat.MaxQuestionAttempts)
	}
	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("gemini.max_retries must be non-negative, got %d", c.Gemini.MaxRetries)
	}
	if c.Sync.Enabled && c.Sync.BaseURL == "" {
		return fmt.Errorf("sync.base_url is required when sync is enabled")
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
