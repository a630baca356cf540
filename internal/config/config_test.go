// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsLoadAndValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "hybrid", cfg.Profiler.DefaultMode)
	assert.Equal(t, 50, cfg.Chat.RateLimitMessages)
	assert.Equal(t, 15*time.Minute, cfg.Chat.RateLimitWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Maps.GeocodeTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Maps.PlacesTTL)
	assert.Equal(t, 2, cfg.Chat.MaxQuestionAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Chat.HoldExpiry)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Gemini.Model)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.Gemini.FallbackModel)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PROFILER_DEFAULT_MODE", "rules")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "rules", cfg.Profiler.DefaultMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestUnmappedEnvIgnored(t *testing.T) {
	t.Setenv("SOME_RANDOM_VAR", "value")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfigFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\nprofiler:\n  default_mode: full_llm\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "full_llm", cfg.Profiler.DefaultMode)
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad pipeline mode", func(c *Config) { c.Profiler.DefaultMode = "psychic" }},
		{"bad max results", func(c *Config) { c.Maps.MaxResults = 100 }},
		{"zero rate limit", func(c *Config) { c.Chat.RateLimitMessages = 0 }},
		{"sync enabled without url", func(c *Config) { c.Sync.Enabled = true; c.Sync.BaseURL = "" }},
		{"zero expiry", func(c *Config) { c.Session.ExpiryHours = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}
