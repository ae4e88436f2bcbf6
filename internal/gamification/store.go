// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package gamification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/logging"
)

const badgeKeyPrefix = "badge:"

// DefaultGCInterval is used when no interval is configured.
const DefaultGCInterval = 10 * time.Minute

// Record is the persisted state of one badge for one user.
type Record struct {
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BadgeStore persists badge counts in BadgerDB.
type BadgeStore struct {
	db         *badger.DB
	gcInterval time.Duration
	gcRatio    float64
	owned      bool
}

// Open opens (or creates) a badge database at path.
func Open(path string, gcInterval time.Duration) (*BadgeStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badge db: %w", err)
	}
	s := NewBadgeStore(db, gcInterval)
	s.owned = true

	logging.Info().Str("path", path).Msg("Badge store opened")
	return s, nil
}

// NewBadgeStore wraps an already opened database. Close does not close db.
func NewBadgeStore(db *badger.DB, gcInterval time.Duration) *BadgeStore {
	if gcInterval <= 0 {
		gcInterval = DefaultGCInterval
	}
	return &BadgeStore{db: db, gcInterval: gcInterval, gcRatio: 0.5}
}

func badgeKey(username, badge string) []byte {
	return []byte(badgeKeyPrefix + username + ":" + badge)
}

// Count returns how many times badge was awarded to username.
func (s *BadgeStore) Count(ctx context.Context, username, badge string) (int, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, badgeKey(username, badge))
		return err
	})
	return rec.Count, err
}

// Counts returns every badge count stored for username.
func (s *BadgeStore) Counts(ctx context.Context, username string) (map[string]int, error) {
	prefix := []byte(badgeKeyPrefix + username + ":")
	out := make(map[string]int)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			out[strings.TrimPrefix(string(item.Key()), string(prefix))] = rec.Count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Raise stores expected as the new count when it exceeds the stored one and
// returns the difference. It never lowers a count.
func (s *BadgeStore) Raise(ctx context.Context, username, badge string, expected int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := badgeKey(username, badge)
	var delta int

	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, key)
		if err != nil {
			return err
		}
		if expected <= rec.Count {
			return nil
		}
		delta = expected - rec.Count

		data, err := json.Marshal(Record{Count: expected, UpdatedAt: time.Now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal badge: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return 0, fmt.Errorf("raise %s for %s: %w", badge, username, err)
	}
	return delta, nil
}

func getRecord(txn *badger.Txn, key []byte) (Record, error) {
	var rec Record
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

// RunGC runs value-log garbage collection until nothing is left to rewrite.
func (s *BadgeStore) RunGC() error {
	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		switch {
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		case err != nil:
			return fmt.Errorf("run badge GC: %w", err)
		}
	}
}

// Serve runs RunGC every gcInterval until ctx is canceled.
func (s *BadgeStore) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badge store GC failed")
			}
		}
	}
}

// String names the service in the supervisor tree.
func (s *BadgeStore) String() string {
	return "badge-store-gc"
}

// Close closes the database when the store opened it.
func (s *BadgeStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
