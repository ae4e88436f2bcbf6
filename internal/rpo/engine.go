// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tomtom215/rpoengine/internal/events"
	"github.com/tomtom215/rpoengine/internal/filelock"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/previsions"
	"github.com/tomtom215/rpoengine/internal/registry"
	"github.com/tomtom215/rpoengine/internal/store"
)

var (
	// ErrInvalidSlot is returned for a week outside months -2, 0..11 and weeks 1..5.
	ErrInvalidSlot = errors.New("invalid week slot")

	// ErrUnknownMonth is returned for a monthly bucket label the document does not have.
	ErrUnknownMonth = errors.New("unknown month")

	// ErrInvalidValue is returned when an update carries a value that cannot be encoded.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrRoleMismatch is returned when an operation does not apply to the user's role.
	ErrRoleMismatch = errors.New("operation does not apply to role")
)

// Cascader propagates a committed sync to the next level.
type Cascader interface {
	EntrepreneurSynced(ctx context.Context, username string) error
	CoachSynced(ctx context.Context, coach string) error
}

// BadgeHook evaluates achievements after an entrepreneur document changes.
type BadgeHook interface {
	Evaluate(ctx context.Context, username string) error
}

// Options wires an Engine.
type Options struct {
	Store      *store.Store
	Locks      *filelock.Manager
	Events     *events.Reader
	Registry   registry.Resolver
	Previsions *previsions.Store
	Calendar   *fiscal.Calendar

	// SyncLimiter paces SyncAll. Nil means unpaced.
	SyncLimiter *rate.Limiter
}

// Engine derives and serves RPO documents.
type Engine struct {
	store      *store.Store
	locks      *filelock.Manager
	events     *events.Reader
	registry   registry.Resolver
	previsions *previsions.Store
	cal        *fiscal.Calendar
	limiter    *rate.Limiter

	mu       sync.RWMutex
	cascader Cascader
	badges   BadgeHook
}

// New creates an Engine. Cascade and badge hooks are attached later with
// SetCascader and SetBadgeHook because they usually call back into the Engine.
func New(opts Options) *Engine {
	return &Engine{
		store:      opts.Store,
		locks:      opts.Locks,
		events:     opts.Events,
		registry:   opts.Registry,
		previsions: opts.Previsions,
		cal:        opts.Calendar,
		limiter:    opts.SyncLimiter,
	}
}

// SetCascader attaches the cascade orchestrator.
func (e *Engine) SetCascader(c Cascader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cascader = c
}

// SetBadgeHook attaches the gamification hook.
func (e *Engine) SetBadgeHook(h BadgeHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.badges = h
}

// Calendar returns the fiscal calendar.
func (e *Engine) Calendar() *fiscal.Calendar {
	return e.cal
}

func (e *Engine) hooks() (Cascader, BadgeHook) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cascader, e.badges
}

// mutate runs load, fn, save under the lock of key.
func (e *Engine) mutate(ctx context.Context, key string, role models.Role, fn func(doc *models.Document) error) error {
	return e.locks.WithLock(ctx, e.store.LockTarget(key, role), func() error {
		doc, err := e.store.LoadKey(ctx, key, role)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return e.store.SaveKey(ctx, key, doc)
	})
}

// withCorrelation makes sure log lines of one operation share an ID.
func withCorrelation(ctx context.Context) context.Context {
	if logging.CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithNewCorrelationID(ctx)
}

func syncResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, filelock.ErrLockTimeout):
		return metrics.ResultLockTimeout
	default:
		return metrics.ResultError
	}
}

// afterCommit runs the post-release hooks of an entrepreneur write. Hook
// failures are logged and never reported to the caller.
func (e *Engine) afterCommit(ctx context.Context, username string, cascade bool) {
	cascader, badges := e.hooks()
	log := logging.Ctx(ctx)
	if badges != nil {
		if err := badges.Evaluate(ctx, username); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("badge evaluation failed")
		}
	}
	if cascade && cascader != nil {
		if err := cascader.EntrepreneurSynced(ctx, username); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("coach cascade failed")
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
