// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package session persists chat sessions in badger with a TTL. Each session
// carries a keyed mutex so a conversation processes one turn at a time:
// load, mutate, save exactly once per turn.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// ErrNotFound is returned when a session id has no stored state.
var ErrNotFound = errors.New("session: not found")

const keyPrefix = "session:"

// Store is the badger-backed session store.
type Store struct {
	db     *badger.DB
	expiry time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// badgerLogger adapts badger's logger onto zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { logging.Error().Msgf(f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { logging.Warn().Msgf(f, v...) }
func (badgerLogger) Infof(f string, v ...interface{})    { logging.Debug().Msgf(f, v...) }
func (badgerLogger) Debugf(f string, v ...interface{})   { logging.Debug().Msgf(f, v...) }

// Open opens the session store. An empty dir opens an in-memory store, used
// by tests.
func Open(dir string, expiry time.Duration) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Store{
		db:     db,
		expiry: expiry,
		locks:  make(map[string]*sessionLock),
	}, nil
}

// Lock acquires the per-session mutex. The returned function releases it.
func (s *Store) Lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// Get loads a session by id.
func (s *Store) Get(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreate loads a session, creating a fresh one if none exists.
func (s *Store) GetOrCreate(sessionID, userID string) (*models.ChatSession, error) {
	session, err := s.Get(sessionID)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordSessionCreated()
		return models.NewChatSession(sessionID, userID), nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Save persists a session, refreshing its TTL.
func (s *Store) Save(session *models.ChatSession) error {
	session.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+session.SessionID), data).WithTTL(s.expiry)
		return txn.SetEntry(entry)
	})
}

// Delete removes a session.
func (s *Store) Delete(sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + sessionID))
	})
}

// RunGC runs one badger value-log GC cycle. Called periodically by the
// janitor service.
func (s *Store) RunGC() {
	if err := s.db.RunValueLogGC(0.5); err != nil &&
		!errors.Is(err, badger.ErrNoRewrite) &&
		!errors.Is(err, badger.ErrRejected) {
		logging.Warn().Err(err).Msg("Session store GC failed")
	}
}

// Close closes the underlying badger database.
func (s *Store) Close() error {
	return s.db.Close()
}
