// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package cascade

import (
	"context"
	"fmt"

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/registry"
)

// Cascade kinds, also used as metric labels.
const (
	KindEntrepreneurSynced = "entrepreneur_synced"
	KindCoachSynced        = "coach_synced"
)

// Target is the aggregation side of the engine.
type Target interface {
	SyncCoach(ctx context.Context, coach string) error
	SyncDirection(ctx context.Context) error
}

// Direct runs cascade steps synchronously in the caller's goroutine.
type Direct struct {
	roles  registry.Resolver
	target Target
}

// NewDirect creates a synchronous cascader.
func NewDirect(roles registry.Resolver, target Target) *Direct {
	return &Direct{roles: roles, target: target}
}

// EntrepreneurSynced synchronizes the coach of username, if any.
func (d *Direct) EntrepreneurSynced(ctx context.Context, username string) error {
	coach, ok, err := d.roles.CoachOf(ctx, username)
	if err != nil {
		err = fmt.Errorf("coach of %s: %w", username, err)
		metrics.RecordCascade(KindEntrepreneurSynced, err)
		return err
	}
	if !ok {
		logging.Ctx(ctx).Debug().Str("username", username).Msg("no coach assigned, cascade stops")
		return nil
	}
	err = d.target.SyncCoach(ctx, coach)
	metrics.RecordCascade(KindEntrepreneurSynced, err)
	return err
}

// CoachSynced synchronizes the direction document.
func (d *Direct) CoachSynced(ctx context.Context, _ string) error {
	err := d.target.SyncDirection(ctx)
	metrics.RecordCascade(KindCoachSynced, err)
	return err
}

// apply executes one queued step.
func (d *Direct) apply(ctx context.Context, s Step) error {
	switch s.Kind {
	case KindEntrepreneurSynced:
		return d.EntrepreneurSynced(ctx, s.Target)
	case KindCoachSynced:
		return d.CoachSynced(ctx, s.Target)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}
