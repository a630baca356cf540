// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
)

// ErrNotFound is returned when a key is absent from the persistent cache.
var ErrNotFound = errors.New("cache: key not found")

// PersistentCache stores JSON-serialized entries in badger with per-entry
// TTL. It backs the geocode and places caches so that long-lived entries
// (30 and 7 day TTLs) survive process restarts.
type PersistentCache struct {
	db *badger.DB
}

// badgerLogger adapts badger's logger interface onto zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Trace().Msgf("badger: "+format, args...)
}

// OpenPersistent opens (or creates) a badger-backed cache at dir.
// An empty dir opens an in-memory store, used by tests.
func OpenPersistent(dir string) (*PersistentCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	return &PersistentCache{db: db}, nil
}

// Get unmarshals the value stored under key into out.
func (p *PersistentCache) Get(key string, out interface{}) error {
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.RecordCacheMiss("geo_persistent")
		return ErrNotFound
	}
	if err == nil {
		metrics.RecordCacheHit("geo_persistent")
	}
	return err
}

// Set stores value under key with the given TTL. Badger evicts the entry
// after expiry.
func (p *PersistentCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes key. No-op for absent keys.
func (p *PersistentCache) Delete(key string) error {
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// RunGC triggers badger value-log garbage collection. Intended to be called
// periodically by the cache janitor.
func (p *PersistentCache) RunGC() {
	for {
		if err := p.db.RunValueLogGC(0.5); err != nil {
			return
		}
	}
}

// Close flushes and closes the underlying store.
func (p *PersistentCache) Close() error {
	return p.db.Close()
}
