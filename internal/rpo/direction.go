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
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/previsions"
	"github.com/tomtom215/rpoengine/internal/store"
)

// SyncDirection rebuilds the shared direction document as the sum of all
// active coaches. Coach documents are read without their locks.
func (e *Engine) SyncDirection(ctx context.Context) error {
	ctx = withCorrelation(ctx)
	start := time.Now()

	var coaches int
	err := e.mutate(ctx, store.DirectionKey, models.RoleDirection, func(doc *models.Document) error {
		n, err := e.aggregateDirection(ctx, doc)
		coaches = n
		return err
	})
	metrics.RecordSync(metrics.LevelDirection, time.Since(start), syncResult(err))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("direction sync failed")
		return err
	}
	logging.Ctx(ctx).Info().Int("coaches", coaches).Dur("duration", time.Since(start)).Msg("direction synced")
	return nil
}

func (e *Engine) aggregateDirection(ctx context.Context, doc *models.Document) (int, error) {
	coaches, err := e.registry.ActiveCoaches(ctx)
	if err != nil {
		return 0, fmt.Errorf("active coaches: %w", err)
	}

	prepareAggregate(doc)
	doc.CoachPrevisions = nil
	doc.DirectionPrevisions = e.loadForecast(ctx, previsions.DirectionName).Previsions(doc.DirectionPrevisions)

	var (
		splits          gradeSplits
		nbEntrepreneurs float64
	)
	for _, coach := range coaches {
		child, err := e.store.LoadKey(ctx, coach, models.RoleCoach)
		if err != nil {
			return 0, fmt.Errorf("load %s: %w", coach, err)
		}
		addWeeks(doc, child)
		splits.addAggregate(child.Annual)
		nbEntrepreneurs += child.Annual.Float(models.FieldNbEntrepreneurs)
	}

	aggregateTotals(doc)
	doc.Annual[models.FieldNbCoaches] = float64(len(coaches))
	doc.Annual[models.FieldNbEntrepreneurs] = nbEntrepreneurs
	splits.write(doc.Annual)
	return len(coaches), nil
}
