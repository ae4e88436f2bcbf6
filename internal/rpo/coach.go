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
)

// SyncCoach rebuilds coach's document as the sum of its active
// entrepreneurs, then cascades to the direction. Entrepreneur documents are
// read without their locks.
func (e *Engine) SyncCoach(ctx context.Context, coach string) error {
	return e.syncCoach(withCorrelation(ctx), coach, true)
}

func (e *Engine) syncCoach(ctx context.Context, coach string, cascade bool) error {
	start := time.Now()
	key, role, err := e.store.Key(ctx, coach)
	if err != nil {
		return err
	}
	if role != models.RoleCoach {
		return fmt.Errorf("%w: %s is a %s", ErrRoleMismatch, coach, role)
	}

	var members int
	err = e.mutate(ctx, key, role, func(doc *models.Document) error {
		n, err := e.aggregateCoach(ctx, coach, doc)
		members = n
		return err
	})
	metrics.RecordSync(metrics.LevelCoach, time.Since(start), syncResult(err))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("coach", coach).Msg("coach sync failed")
		return err
	}
	logging.Ctx(ctx).Info().Str("coach", coach).Int("entrepreneurs", members).Dur("duration", time.Since(start)).Msg("coach synced")

	if !cascade {
		return nil
	}
	if cascader, _ := e.hooks(); cascader != nil {
		if err := cascader.CoachSynced(ctx, coach); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("coach", coach).Msg("direction cascade failed")
		}
	}
	return nil
}

func (e *Engine) aggregateCoach(ctx context.Context, coach string, doc *models.Document) (int, error) {
	team, err := e.registry.EntrepreneursOf(ctx, coach)
	if err != nil {
		return 0, fmt.Errorf("entrepreneurs of %s: %w", coach, err)
	}

	prepareAggregate(doc)
	forecast := e.loadForecast(ctx, coach)
	doc.CoachPrevisions = forecast.Previsions(doc.CoachPrevisions)
	doc.DirectionPrevisions = nil
	doc.EntrepreneursMetrics = make(map[string]models.EntrepreneurMetrics, len(team))

	var splits gradeSplits
	for _, member := range team {
		child, err := e.store.LoadKey(ctx, member.Username, models.RoleEntrepreneur)
		if err != nil {
			return 0, fmt.Errorf("load %s: %w", member.Username, err)
		}
		addWeeks(doc, child)
		splits.addMember(e.gradeOf(ctx, member), child.Annual)

		objectif, ok := forecast.EntrepreneurObjectif(member.Username)
		if !ok {
			objectif = child.Annual.Float(models.FieldObjectifCA)
		}
		doc.EntrepreneursMetrics[member.Username] = models.EntrepreneurMetrics{
			ObjectifCA: objectif,
			CM:         child.Annual.Float(models.FieldCMPrevision),
			RatioMktg:  child.Annual.Float(models.FieldRatioMktg),
			TauxVente:  child.Annual.Float(models.FieldTauxVente),
		}
	}

	aggregateTotals(doc)
	doc.Annual[models.FieldNbEntrepreneurs] = float64(len(team))
	delete(doc.Annual, models.FieldNbCoaches)
	splits.write(doc.Annual)
	return len(team), nil
}
