// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package main wires the Studio Screen service together: configuration,
// logging, the DuckDB inventory store, the area profiler, the XIA
// conversational engine, the console sync manager, and the HTTP API, all
// running under a suture supervision tree.
//
// Everything is constructed before the supervisor starts; construction
// never blocks on the network. Missing upstream credentials degrade
// features instead of failing startup: without a Gemini key the profiler
// is restricted to rules mode, without a console URL the sync manager
// stays dormant and the service serves whatever inventory is already in
// the database.
//
// Shutdown is signal driven. SIGINT or SIGTERM cancels the root context,
// the supervisor drains the HTTP server and the workers, and any service
// that outlives its deadline is reported before exit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/api"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/cache"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/profiler"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/session"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/supervisor"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/sync"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/xia"
)

// janitorInterval paces badger value-log GC for the session store and the
// persistent geo cache.
const janitorInterval = 10 * time.Minute

func main() {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logCfg.File = cfg.Logging.File
	logging.Init(logCfg)
	metrics.SetAppInfo(config.AppVersion)

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("version", config.AppVersion).
		Str("database", cfg.Database.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Msg("Starting Studio Screen")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sessions, err := session.Open(cfg.Session.Dir, time.Duration(cfg.Session.ExpiryHours)*time.Hour)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	// The geo cache is an optimization; run without it rather than refuse
	// to start on a bad cache directory.
	geoCache, err := cache.OpenPersistent(cfg.Maps.CacheDir)
	if err != nil {
		logging.Warn().Err(err).Str("dir", cfg.Maps.CacheDir).
			Msg("Persistent geo cache unavailable, using in-memory cache only")
		geoCache = nil
	} else {
		defer func() {
			if err := geoCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Failed to close geo cache")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mapsClient := maps.New(cfg.Maps, geoCache)
	if cfg.Maps.APIKey == "" {
		logging.Warn().Msg("Maps API key not set, profiling requests will fail upstream")
	}

	pipeline := buildProfiler(ctx, cfg, mapsClient)

	chatClient := xia.NewChatClient(cfg.ChatLLM)
	if cfg.ChatLLM.APIKey == "" {
		logging.Warn().Msg("Chat LLM API key not set, assistant replies will fail upstream")
	}
	engine := xia.NewEngine(db, cfg.Chat)
	menu := xia.NewFilterMenu(db)
	orchestrator := xia.NewOrchestrator(sessions, db, engine, menu, xia.NewPipeline(chatClient), cfg.Chat)

	// A configured base URL makes manual sync possible even when the
	// periodic loop is disabled.
	var console sync.ConsoleAPI
	if cfg.Sync.BaseURL != "" {
		console = sync.NewConsoleClient(&cfg.Sync)
	}
	syncManager := sync.NewManager(db, console, cfg)

	handler := api.NewHandler(db, syncManager, orchestrator, engine, menu, pipeline, cfg)
	syncManager.SetOnSyncCompleted(handler.OnSyncCompleted)

	router := api.NewRouter(handler, cfg.Server.CORSOrigins)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddWorker(supervisor.NewSyncService(syncManager))
	tree.AddWorker(supervisor.NewJanitorService(janitorInterval, janitorStores(cfg, sessions, geoCache)...))
	tree.AddAPI(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervision tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervision tree failed")
		}
		cancel()
	}

	// ServeBackground closes the channel once the tree has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop before timeout")
		}
	}

	logging.Info().Msg("Studio Screen stopped gracefully")
}

// buildProfiler assembles the area profiling pipeline. Without a working
// Gemini client the pipeline still runs, restricted to rules mode.
func buildProfiler(ctx context.Context, cfg *config.Config, mapsClient *maps.Client) *profiler.Pipeline {
	opts := profiler.Options{
		MaxRing2Results: cfg.Maps.MaxResults,
		EnrichLimit:     cfg.Maps.EnrichLimit,
		DefaultMode:     cfg.Profiler.DefaultMode,
	}

	if cfg.Gemini.APIKey == "" {
		logging.Warn().Msg("Gemini API key not set, profiler restricted to rules mode")
		return profiler.New(mapsClient, nil, opts)
	}

	llm, err := profiler.NewGeminiLLM(ctx, cfg.Gemini)
	if err != nil {
		logging.Error().Err(err).Msg("Gemini client init failed, profiler restricted to rules mode")
		return profiler.New(mapsClient, nil, opts)
	}

	logging.Info().Str("model", cfg.Gemini.Model).Msg("Gemini profiler enabled")
	return profiler.New(mapsClient, llm, opts)
}

// janitorStores lists the disk-backed stores that need periodic badger GC.
// An in-memory session store has no value log to compact.
func janitorStores(cfg *config.Config, sessions *session.Store, geoCache *cache.PersistentCache) []supervisor.GCRunner {
	var stores []supervisor.GCRunner
	if cfg.Session.Dir != "" {
		stores = append(stores, sessions)
	}
	if geoCache != nil {
		stores = append(stores, geoCache)
	}
	return stores
}
