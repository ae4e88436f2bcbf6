// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package filelock serializes read-modify-write cycles on RPO documents.
//
// Two layers are held while a critical section runs:
//
//  1. an in-process lock per document key, created on first use and never freed
//  2. an exclusive advisory lock on a sentinel file (<document>.lock) that
//     excludes other processes sharing the storage root
//
// The file lock is polled without blocking so a waiting goroutine never pins
// an OS thread, and the wait is bounded by Options.Timeout.
//
// Lock order across documents is entrepreneur, then coach, then direction.
// Callers never hold two entrepreneur locks at once.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
)

// ErrLockTimeout is returned when the file lock stays held past the timeout.
// No state has been changed when it is returned.
var ErrLockTimeout = errors.New("document lock timeout")

// errWouldBlock is returned by tryLock when another holder owns the lock.
var errWouldBlock = errors.New("lock held elsewhere")

// maxPollInterval caps the backoff between file lock attempts.
const maxPollInterval = 500 * time.Millisecond

// Options configures a Manager.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultOptions returns a 30s timeout polled from 50ms.
func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second, PollInterval: 50 * time.Millisecond}
}

// Target names a lockable document.
type Target struct {
	// Key identifies the document inside the process.
	Key string
	// Path is the sentinel file.
	Path string
	// Scope labels metrics: entrepreneur, coach or direction.
	Scope string
}

// Manager hands out document locks.
type Manager struct {
	opts  Options
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	return &Manager{opts: opts, locks: make(map[string]chan struct{})}
}

func (m *Manager) local(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	return ch
}

// WithLock runs fn while holding both lock layers for t. Locks are released
// in reverse order of acquisition whether fn fails or not.
func (m *Manager) WithLock(ctx context.Context, t Target, fn func() error) error {
	start := time.Now()

	local := m.local(t.Key)
	select {
	case local <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s: %w", t.Key, ctx.Err())
	}
	defer func() { <-local }()

	f, err := m.acquireFile(ctx, t)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlockFile(f); err != nil {
			logging.Warn().Err(err).Str("path", t.Path).Msg("failed to release file lock")
		}
		_ = f.Close()
	}()

	metrics.RecordLockWait(t.Scope, time.Since(start))
	return fn()
}

func (m *Manager) acquireFile(ctx context.Context, t Target) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(t.Path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(m.opts.Timeout)
	wait := m.opts.PollInterval
	for {
		err := tryLock(f)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, errWouldBlock) {
			_ = f.Close()
			return nil, fmt.Errorf("lock %s: %w", t.Path, err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = f.Close()
			metrics.RecordLockTimeout(t.Scope)
			return nil, fmt.Errorf("%s after %s: %w", t.Path, m.opts.Timeout, ErrLockTimeout)
		}
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return nil, fmt.Errorf("waiting for %s: %w", t.Path, ctx.Err())
		}
		wait *= 2
		if wait > maxPollInterval {
			wait = maxPollInterval
		}
	}
}
