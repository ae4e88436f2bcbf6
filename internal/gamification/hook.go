// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package gamification

import (
	"context"
	"math"

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
)

// Hook is called after an entrepreneur document is committed.
type Hook interface {
	Evaluate(ctx context.Context, username string) error
}

var (
	_ Hook = Noop{}
	_ Hook = (*CapEvaluator)(nil)
)

// Noop awards nothing.
type Noop struct{}

// Evaluate implements Hook.
func (Noop) Evaluate(context.Context, string) error { return nil }

// Threshold is one sales milestone.
type Threshold struct {
	Badge  string
	Amount float64
}

// DefaultThresholds are the annual sales milestones, in dollars.
var DefaultThresholds = []Threshold{
	{Badge: "cap_six_chiffres", Amount: 100000},
	{Badge: "ascension", Amount: 125000},
	{Badge: "palier_titans", Amount: 300000},
	{Badge: "demi_millionnaire", Amount: 500000},
	{Badge: "club_million", Amount: 1000000},
}

// AnnualReader reads an entrepreneur's annual section.
type AnnualReader interface {
	GetAnnual(ctx context.Context, username string) (models.Fields, error)
}

// CapEvaluator awards sales milestone badges.
type CapEvaluator struct {
	annual     AnnualReader
	store      *BadgeStore
	thresholds []Threshold
}

// NewCapEvaluator uses DefaultThresholds when thresholds is empty.
func NewCapEvaluator(annual AnnualReader, store *BadgeStore, thresholds ...Threshold) *CapEvaluator {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	return &CapEvaluator{annual: annual, store: store, thresholds: thresholds}
}

// Expected returns how many times t is earned for dollars.
func (t Threshold) Expected(dollars float64) int {
	if t.Amount <= 0 || dollars <= 0 {
		return 0
	}
	return int(math.Floor(dollars / t.Amount))
}

// Evaluate implements Hook.
func (c *CapEvaluator) Evaluate(ctx context.Context, username string) error {
	annual, err := c.annual.GetAnnual(ctx, username)
	if err != nil {
		return err
	}
	dollars := annual.Float("dollar_reel")

	for _, t := range c.thresholds {
		delta, err := c.store.Raise(ctx, username, t.Badge, t.Expected(dollars))
		if err != nil {
			return err
		}
		if delta == 0 {
			continue
		}
		metrics.RecordBadge(t.Badge, delta)
		logging.Ctx(ctx).Info().
			Str("username", username).
			Str("badge", t.Badge).
			Int("awarded", delta).
			Float64("dollar_reel", dollars).
			Msg("Badge awarded")
	}
	return nil
}
