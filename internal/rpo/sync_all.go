// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/rpoengine/internal/logging"
)

// SyncFailure names a document that could not be synchronized.
type SyncFailure struct {
	Level    string `json:"level"`
	Username string `json:"username"`
	Error    string `json:"error"`
}

// SyncReport summarizes a SyncAll run.
type SyncReport struct {
	Entrepreneurs int           `json:"entrepreneurs"`
	Coaches       int           `json:"coaches"`
	Direction     bool          `json:"direction"`
	Failures      []SyncFailure `json:"failures,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// SyncAll synchronizes every active entrepreneur, then every active coach,
// then the direction. Levels are walked bottom-up once, so per-user
// cascades are not triggered. Individual failures are collected in the
// report; only context cancellation or a registry failure aborts the run.
func (e *Engine) SyncAll(ctx context.Context) (*SyncReport, error) {
	ctx = withCorrelation(ctx)
	start := time.Now()
	log := logging.Ctx(ctx)
	report := &SyncReport{}

	entrepreneurs, err := e.registry.ActiveEntrepreneurs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entrepreneurs: %w", err)
	}
	for _, u := range entrepreneurs {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}
		if err := e.syncEntrepreneur(ctx, u, false); err != nil {
			report.Failures = append(report.Failures, SyncFailure{Level: "entrepreneur", Username: u, Error: err.Error()})
			continue
		}
		report.Entrepreneurs++
	}

	coaches, err := e.registry.ActiveCoaches(ctx)
	if err != nil {
		return report, fmt.Errorf("list coaches: %w", err)
	}
	for _, c := range coaches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.syncCoach(ctx, c, false); err != nil {
			report.Failures = append(report.Failures, SyncFailure{Level: "coach", Username: c, Error: err.Error()})
			continue
		}
		report.Coaches++
	}

	if err := e.SyncDirection(ctx); err != nil {
		report.Failures = append(report.Failures, SyncFailure{Level: "direction", Error: err.Error()})
	} else {
		report.Direction = true
	}

	report.Duration = time.Since(start)
	log.Info().
		Int("entrepreneurs", report.Entrepreneurs).
		Int("coaches", report.Coaches).
		Bool("direction", report.Direction).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("full synchronization finished")
	return report, nil
}
