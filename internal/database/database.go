// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package database is the DuckDB-backed inventory store: screens synced from
// the console, their computed area profiles, and slot bookings. DuckDB keeps
// the whole inventory queryable with analytical SQL while running in-process.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
)

// DB wraps the DuckDB connection and provides inventory access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New opens the database and initializes the schema. An empty path opens an
// in-memory database, used by tests.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301.
	if dbDir := filepath.Dir(cfg.Path); cfg.Path != "" && dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

// Conn returns the underlying SQL connection for packages that need direct
// access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive. Health probes call this
// periodically, which keeps the pool gauge fresh.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := db.conn.PingContext(ctx); err != nil {
		return err
	}
	metrics.SetDBConnectionsInUse(db.conn.Stats().InUse)
	return nil
}

// Close closes the connection and all prepared statements.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close prepared statement")
			}
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// getStmt returns a cached prepared statement, preparing it on first use.
func (db *DB) getStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// createTables creates the inventory schema.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS screens (
			screenid VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL DEFAULT '',
			screen_type VARCHAR NOT NULL DEFAULT '',
			orientation VARCHAR NOT NULL DEFAULT '',
			environment VARCHAR NOT NULL DEFAULT '',
			spec_city VARCHAR NOT NULL DEFAULT '',
			spec_state VARCHAR NOT NULL DEFAULT '',
			spec_pincode VARCHAR NOT NULL DEFAULT '',
			spec_full_address VARCHAR NOT NULL DEFAULT '',
			spec_latitude DOUBLE NOT NULL DEFAULT 0,
			spec_longitude DOUBLE NOT NULL DEFAULT 0,
			spec_nearest_landmark VARCHAR NOT NULL DEFAULT '',
			status VARCHAR NOT NULL DEFAULT 'PENDING',
			profile_status VARCHAR NOT NULL DEFAULT 'UNPROFILED',
			screen_owner VARCHAR NOT NULL DEFAULT '',
			price_per_slot DOUBLE NOT NULL DEFAULT 0,
			total_slots INTEGER NOT NULL DEFAULT 0,
			reserved_slots INTEGER NOT NULL DEFAULT 0,
			slot_duration_sec INTEGER NOT NULL DEFAULT 0,
			loop_duration_sec INTEGER NOT NULL DEFAULT 0,
			resolution_width INTEGER NOT NULL DEFAULT 0,
			resolution_height INTEGER NOT NULL DEFAULT 0,
			screen_size_width DOUBLE NOT NULL DEFAULT 0,
			screen_size_height DOUBLE NOT NULL DEFAULT 0,
			total_screen_area DOUBLE NOT NULL DEFAULT 0,
			brightness_nits INTEGER NOT NULL DEFAULT 0,
			mounting_height_ft DOUBLE NOT NULL DEFAULT 0,
			audio_supported BOOLEAN NOT NULL DEFAULT false,
			daily_impressions INTEGER NOT NULL DEFAULT 0,
			daily_footfall INTEGER NOT NULL DEFAULT 0,
			restricted_categories VARCHAR NOT NULL DEFAULT '',
			blocked_from TIMESTAMP,
			blocked_until TIMESTAMP,
			primary_type VARCHAR NOT NULL DEFAULT '',
			area_context VARCHAR NOT NULL DEFAULT '',
			confidence VARCHAR NOT NULL DEFAULT '',
			classification_detail VARCHAR NOT NULL DEFAULT '',
			movement_type VARCHAR NOT NULL DEFAULT '',
			dwell_time VARCHAR NOT NULL DEFAULT '',
			city_tier VARCHAR NOT NULL DEFAULT '',
			dominance_ratio DOUBLE NOT NULL DEFAULT 0,
			ring2_place_groups VARCHAR NOT NULL DEFAULT '',
			profile_json VARCHAR NOT NULL DEFAULT '',
			profile_computed_at TIMESTAMP,
			llm_used BOOLEAN NOT NULL DEFAULT false,
			llm_mode VARCHAR NOT NULL DEFAULT '',
			llm_reason VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS slot_bookings (
			id VARCHAR PRIMARY KEY,
			screenid VARCHAR NOT NULL,
			campaign_id VARCHAR NOT NULL DEFAULT '',
			booked_num_slots INTEGER NOT NULL DEFAULT 0,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'HOLD',
			payment_status VARCHAR NOT NULL DEFAULT 'UNPAID',
			source VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_city ON screens(spec_city)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_status ON screens(status, profile_status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_screen ON slot_bookings(screenid, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON slot_bookings(status, source)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
