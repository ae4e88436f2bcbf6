// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"strings"

	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/previsions"
)

// Grades used for the per-grade splits.
const (
	GradeRecrue = "recrue"
	GradeSenior = "senior"
)

// legacySections are removed from every aggregate document.
var legacySections = []string{models.SectionTeamMetrics, models.SectionTeamPrevisions}

// GradeBucket returns GradeSenior for grades starting with "senior" in any
// case and GradeRecrue otherwise.
func GradeBucket(grade string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(grade)), GradeSenior) {
		return GradeSenior
	}
	return GradeRecrue
}

// gradeSplits are the per-grade annual figures of an aggregate.
type gradeSplits struct {
	nbRecrue, nbSenior                 float64
	estimationRecrue, estimationSenior float64
	hoursRecrue, hoursSenior           float64
}

func (g *gradeSplits) addMember(grade string, annual models.Fields) {
	est := annual.Float(models.FieldEstimationReel)
	hours := annual.Float(models.FieldHrPapReelSansWeek1)
	if grade == GradeSenior {
		g.nbSenior++
		g.estimationSenior += est
		g.hoursSenior += hours
		return
	}
	g.nbRecrue++
	g.estimationRecrue += est
	g.hoursRecrue += hours
}

// addAggregate adds the splits already computed on a child aggregate.
func (g *gradeSplits) addAggregate(annual models.Fields) {
	g.nbRecrue += annual.Float(models.FieldNbRecrue)
	g.nbSenior += annual.Float(models.FieldNbSenior)
	g.estimationRecrue += annual.Float(models.FieldEstimationReelRecrue)
	g.estimationSenior += annual.Float(models.FieldEstimationReelSenior)
	g.hoursRecrue += annual.Float(models.FieldHrPapReelRecrue)
	g.hoursSenior += annual.Float(models.FieldHrPapReelSenior)
}

func (g gradeSplits) write(annual models.Fields) {
	annual[models.FieldNbRecrue] = g.nbRecrue
	annual[models.FieldNbSenior] = g.nbSenior
	annual[models.FieldEstimationReelRecrue] = g.estimationRecrue
	annual[models.FieldEstimationReelSenior] = g.estimationSenior
	annual[models.FieldHrPapReelRecrue] = g.hoursRecrue
	annual[models.FieldHrPapReelSenior] = g.hoursSenior
}

// prepareAggregate strips sections an aggregate document does not keep and
// zeroes its weekly cells for months 0..11.
func prepareAggregate(doc *models.Document) {
	doc.EtatsResultats = nil
	doc.Monthly = nil
	doc.EntrepreneursMetrics = nil
	doc.DropExtra(legacySections...)

	if doc.Weekly == nil {
		doc.Weekly = models.Weekly{}
	}
	for m := range doc.Weekly {
		if m < 0 {
			delete(doc.Weekly, m)
		}
	}
	for _, s := range fiscal.AggregateSlots() {
		doc.Weekly.Ensure(s.Month, s.Week, models.NewAggregateCell).ResetAggregate()
	}
}

// addWeeks adds the aggregated fields of every month 0..11 cell of child
// into doc. Missing hours count as 0.
func addWeeks(doc, child *models.Document) {
	for _, s := range fiscal.AggregateSlots() {
		src := child.Weekly.Cell(s.Month, s.Week)
		if src == nil {
			continue
		}
		dst := doc.Weekly.Ensure(s.Month, s.Week, models.NewAggregateCell)
		dst.HMarketing = models.Numeric(dst.HMarketing.Number() + src.HMarketing.Number())
		dst.Estimation += src.Estimation
		dst.Contract += src.Contract
		dst.Dollar += src.Dollar
		dst.Produit += src.Produit
	}
}

// aggregateTotals writes annual sums and ratios from the aggregated cells.
func aggregateTotals(doc *models.Document) {
	var t weekTotals
	for _, s := range fiscal.AggregateSlots() {
		if c := doc.Weekly.Cell(s.Month, s.Week); c != nil {
			t.add(s, c)
		}
	}
	if doc.Annual == nil {
		doc.Annual = models.Fields{}
	}
	t.write(doc.Annual, 2)
}

func (e *Engine) loadForecast(ctx context.Context, name string) previsions.Forecast {
	if e.previsions == nil {
		return previsions.Forecast{}
	}
	f, err := e.previsions.Load(name)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sidecar", name).Msg("forecast unavailable, keeping stored forecast")
		return previsions.Forecast{}
	}
	return f
}

// gradeOf reads the grade kept with the user's signatures, falling back to
// the registry grade.
func (e *Engine) gradeOf(ctx context.Context, u models.User) string {
	grade := u.Grade
	info, err := e.events.UserInfo(ctx, u.Username)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("username", u.Username).Msg("user info unreadable, using registry grade")
	} else if info.Grade != "" {
		grade = info.Grade
	}
	return GradeBucket(grade)
}
