// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
)

// DefaultConfigPaths are checked in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/screen-studio/config.yaml",
}

// envKeyMap translates environment variable names onto koanf paths.
// Only the keys listed here are read; anything else in the environment is
// ignored rather than guessed at.
var envKeyMap = map[string]string{
	"SERVER_HOST":             "server.host",
	"SERVER_PORT":             "server.port",
	"SERVER_CORS_ORIGINS":     "server.cors_origins",
	"LOG_LEVEL":               "logging.level",
	"LOG_FORMAT":              "logging.format",
	"LOG_FILE":                "logging.file",
	"DATABASE_PATH":           "database.path",
	"SESSION_DIR":             "session.dir",
	"SESSION_EXPIRY_HOURS":    "session.expiry_hours",
	"GOOGLE_MAPS_API_KEY":     "maps.api_key",
	"MAPS_BASE_URL":           "maps.base_url",
	"MAPS_CACHE_DIR":          "maps.cache_dir",
	"MAPS_MAX_RESULTS":        "maps.max_results",
	"GEMINI_API_KEY":          "gemini.api_key",
	"GEMINI_MODEL":            "gemini.model",
	"GEMINI_FALLBACK_MODEL":   "gemini.fallback_model",
	"GEMINI_ENABLE_GROUNDING": "gemini.enable_grounding",
	"CHAT_LLM_BASE_URL":       "chat_llm.base_url",
	"CHAT_LLM_API_KEY":        "chat_llm.api_key",
	"CHAT_LLM_MODEL":          "chat_llm.model",
	"PROFILER_DEFAULT_MODE":   "profiler.default_mode",
	"CHAT_RATE_LIMIT":         "chat.rate_limit_messages",
	"CHAT_SCREEN_LIMIT":       "chat.screen_result_limit",
	"SYNC_ENABLED":            "sync.enabled",
	"SYNC_BASE_URL":           "sync.base_url",
	"SYNC_API_KEY":            "sync.api_key",
	"SYNC_INTERVAL":           "sync.interval",
}

// sliceConfigPaths lists koanf paths whose env values are comma-separated.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// Load builds the configuration from three layers: struct defaults, an
// optional YAML file, then environment variables. The merged result is
// validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional YAML file.
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		logging.Info().Str("path", path).Msg("Loaded config file")
	}

	// Layer 3: environment variables via the explicit key map.
	envProvider := env.Provider("", ".", func(key string) string {
		if mapped, ok := envKeyMap[key]; ok {
			return mapped
		}
		// Unmapped keys are skipped.
		return ""
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	processSliceFields(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// findConfigFile returns the first existing config file path, checking
// CONFIG_PATH before the default locations.
func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		logging.Warn().Str("path", path).Msg("CONFIG_PATH set but file not found")
		return ""
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields splits comma-separated string values into slices for
// the paths listed in sliceConfigPaths. Env providers deliver slices as a
// single string.
func processSliceFields(k *koanf.Koanf) {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}

		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if err := k.Set(path, values); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Failed to set slice config value")
		}
	}
}
