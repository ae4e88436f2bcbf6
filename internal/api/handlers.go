// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"context"
	"time"

	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/rpo"
)

// Engine is the part of rpo.Engine served over HTTP.
type Engine interface {
	SyncEntrepreneur(ctx context.Context, username string) error
	SyncCoach(ctx context.Context, coach string) error
	SyncDirection(ctx context.Context) error
	SyncAll(ctx context.Context) (*rpo.SyncReport, error)

	GetAnnual(ctx context.Context, username string) (models.Fields, error)
	GetMonthly(ctx context.Context, username, month string) (models.Fields, error)
	GetWeekly(ctx context.Context, username string, month, week int) (*models.WeekCell, error)
	GetAllMonthly(ctx context.Context, username string) (map[string]models.Fields, error)
	GetMonth(ctx context.Context, username string, month int) (map[int]*models.WeekCell, error)
	UpdateAnnual(ctx context.Context, username string, partial map[string]any) ([]string, error)
	UpdateMonthly(ctx context.Context, username, month string, partial map[string]any) ([]string, error)
	UpdateWeekly(ctx context.Context, username string, month, week int, partial map[string]any) ([]string, error)

	GetEtatsResultatsBudget(ctx context.Context, username string) (map[string]float64, error)
	GetEtatsResultatsActuel(ctx context.Context, username string) (map[string]float64, error)
	UpdateEtatsResultatsBudget(ctx context.Context, username string, budget map[string]float64) error
	UpdateEtatsResultatsCiblePercent(ctx context.Context, username string, cible map[string]float64) error
}

var _ Engine = (*rpo.Engine)(nil)

// BadgeReader lists awarded badges.
type BadgeReader interface {
	Counts(ctx context.Context, username string) (map[string]int, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler serves the HTTP endpoints.
type Handler struct {
	engine    Engine
	badges    BadgeReader
	checks    map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a Handler. badges may be nil when gamification is off.
func NewHandler(engine Engine, badges BadgeReader, checks map[string]ReadinessCheck) *Handler {
	if checks == nil {
		checks = map[string]ReadinessCheck{}
	}
	return &Handler{
		engine:    engine,
		badges:    badges,
		checks:    checks,
		startTime: time.Now(),
	}
}
