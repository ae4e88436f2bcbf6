// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package store persists RPO documents as JSON files.
//
// Layout under the RPO directory:
//
//	<username>_rpo.json        canonical document
//	<username>_rpo.json.tmp    staging file of an in-flight save
//	<username>_rpo.json.lock   lock sentinel (see package filelock)
//
// All direction users share direction_rpo.json. Saves are atomic: the
// document is written and synced to the staging file and renamed over the
// canonical one. The store does not lock; callers wrap load-modify-save in
// filelock.Manager.WithLock using LockTarget.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/filelock"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
)

// DirectionKey is the document key shared by all direction users.
const DirectionKey = "direction"

var (
	// ErrIO is returned when a document cannot be read or written.
	ErrIO = errors.New("document storage failure")

	// ErrParse marks a document that is not valid JSON. Load masks it by
	// falling back to the staging file or a default document.
	ErrParse = errors.New("document parse failure")

	// ErrInvalidName is returned for usernames that cannot name a file.
	ErrInvalidName = errors.New("invalid username")
)

// RoleLookup resolves a user's role.
type RoleLookup interface {
	RoleOf(ctx context.Context, username string) (models.Role, error)
}

// Options configures a Store.
type Options struct {
	Dir          string
	Calendar     *fiscal.Calendar
	Roles        RoleLookup
	SaveRetries  int
	RetryBackoff time.Duration
}

// Store reads and writes RPO documents.
type Store struct {
	dir          string
	cal          *fiscal.Calendar
	roles        RoleLookup
	saveRetries  int
	retryBackoff time.Duration
}

// New creates a Store.
func New(opts Options) *Store {
	if opts.SaveRetries < 1 {
		opts.SaveRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	return &Store{
		dir:          opts.Dir,
		cal:          opts.Calendar,
		roles:        opts.Roles,
		saveRetries:  opts.SaveRetries,
		retryBackoff: opts.RetryBackoff,
	}
}

// Dir returns the RPO directory.
func (s *Store) Dir() string {
	return s.dir
}

// Calendar returns the fiscal calendar used for default documents.
func (s *Store) Calendar() *fiscal.Calendar {
	return s.cal
}

// ValidateName rejects names that could escape the RPO directory.
func ValidateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Key resolves the document key and role of username. A failed role lookup
// is logged and treated as entrepreneur.
func (s *Store) Key(ctx context.Context, username string) (string, models.Role, error) {
	if err := ValidateName(username); err != nil {
		return "", "", err
	}
	role := models.RoleEntrepreneur
	if username == DirectionKey {
		role = models.RoleDirection
	} else if s.roles != nil {
		r, err := s.roles.RoleOf(ctx, username)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("role lookup failed, assuming entrepreneur")
		} else if r != "" {
			role = r
		}
	}
	if role == models.RoleDirection {
		return DirectionKey, role, nil
	}
	return username, role, nil
}

// Path returns the canonical file of a document key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+"_rpo.json")
}

// LockTarget returns the lock protecting a document key.
func (s *Store) LockTarget(key string, role models.Role) filelock.Target {
	scope := string(role)
	if !role.Aggregate() {
		scope = string(models.RoleEntrepreneur)
	}
	return filelock.Target{Key: key, Path: s.Path(key) + ".lock", Scope: scope}
}

// Default returns the document a user of role starts with.
func (s *Store) Default(role models.Role) *models.Document {
	if role.Aggregate() {
		return models.NewAggregateDocument()
	}
	return models.NewEntrepreneurDocument(s.cal)
}

// Load resolves username and loads its document.
func (s *Store) Load(ctx context.Context, username string) (*models.Document, error) {
	key, role, err := s.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.LoadKey(ctx, key, role)
}

// LoadKey loads a document by key. A missing file yields the default
// document. An unparseable file is replaced by its staging file when that
// parses, else by the default document.
func (s *Store) LoadKey(ctx context.Context, key string, role models.Role) (*models.Document, error) {
	path := s.Path(key)
	doc, err := readDocument(path)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, os.ErrNotExist):
		return s.Default(role), nil
	case !errors.Is(err, ErrParse):
		return nil, err
	}

	log := logging.Ctx(ctx)
	if tmp, tmpErr := readDocument(path + ".tmp"); tmpErr == nil {
		log.Warn().Err(err).Str("path", path).Msg("document corrupted, recovered from staging file")
		metrics.RecordRecovery("tmp")
		return tmp, nil
	}
	log.Error().Err(err).Str("path", path).Msg("document corrupted and no staging copy, using defaults")
	metrics.RecordRecovery("default")
	return s.Default(role), nil
}

func readDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrParse, path)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return &doc, nil
}

// Save resolves username and saves its document.
func (s *Store) Save(ctx context.Context, username string, doc *models.Document) error {
	key, _, err := s.Key(ctx, username)
	if err != nil {
		return err
	}
	return s.SaveKey(ctx, key, doc)
}

// SaveKey stamps last_updated and writes the document atomically.
func (s *Store) SaveKey(ctx context.Context, key string, doc *models.Document) error {
	doc.LastUpdated = fiscal.Now().Format(time.RFC3339)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrIO, key, err)
	}
	data := buf.Bytes()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, s.dir, err)
	}

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %w", ErrIO, tmp, err)
	}

	var renameErr error
	for attempt := 0; attempt < s.saveRetries; attempt++ {
		if renameErr = rename(tmp, path); renameErr == nil {
			return nil
		}
		metrics.StoreSaveRetries.Inc()
		select {
		case <-time.After(s.retryBackoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			_ = os.Remove(tmp)
			return fmt.Errorf("%w: save %s: %w", ErrIO, key, ctx.Err())
		}
	}

	logging.Ctx(ctx).Warn().Err(renameErr).Str("path", path).Msg("rename failed, writing document in place")
	metrics.StoreSaveFallbacks.Inc()
	err := writeSynced(path, data)
	_ = os.Remove(tmp)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return nil
}

// rename is replaced in tests to simulate a locked target file.
var rename = os.Rename

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
