// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/rpoengine/internal/events"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
)

// prodHoraireMonths are the months (May to September) averaged into the
// annual prod_horaire.
var prodHoraireMonths = map[int]bool{4: true, 5: true, 6: true, 7: true, 8: true}

// SyncEntrepreneur rebuilds the derived weekly counters and annual reals of
// username from the event streams, then runs the badge hook and the coach
// cascade. A nil error means the new document is durable.
func (e *Engine) SyncEntrepreneur(ctx context.Context, username string) error {
	return e.syncEntrepreneur(withCorrelation(ctx), username, true)
}

func (e *Engine) syncEntrepreneur(ctx context.Context, username string, cascade bool) error {
	start := time.Now()
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return err
	}
	if role.Aggregate() {
		return fmt.Errorf("%w: %s is a %s", ErrRoleMismatch, username, role)
	}

	err = e.mutate(ctx, key, role, func(doc *models.Document) error {
		return e.deriveEntrepreneur(ctx, username, doc)
	})
	metrics.RecordSync(metrics.LevelEntrepreneur, time.Since(start), syncResult(err))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("username", username).Msg("entrepreneur sync failed")
		return err
	}
	logging.Ctx(ctx).Debug().Str("username", username).Dur("duration", time.Since(start)).Msg("entrepreneur synced")

	e.afterCommit(ctx, username, cascade)
	return nil
}

// deriveEntrepreneur recomputes every derived value of doc in place.
func (e *Engine) deriveEntrepreneur(ctx context.Context, username string, doc *models.Document) error {
	e.resetEntrepreneurWeeks(doc)

	if err := e.countQuotes(ctx, username, doc); err != nil {
		return err
	}
	if err := e.countContracts(ctx, username, doc); err != nil {
		return err
	}
	if err := e.countProduced(ctx, username, doc); err != nil {
		return err
	}

	e.entrepreneurTotals(doc)
	accumulateRevenue(doc)

	reviews, err := readStream(ctx, username, events.StreamReviews, func() ([]events.Review, error) {
		return e.events.Reviews(ctx, username)
	})
	if err != nil {
		return err
	}
	e.accumulateSatisfaction(ctx, doc, reviews)
	return nil
}

// readStream reads one event stream. A schema error is logged and the stream
// counts as empty; other errors abort the sync.
func readStream[T any](ctx context.Context, username, stream string, read func() (T, error)) (T, error) {
	v, err := read()
	if err == nil {
		return v, nil
	}
	var zero T
	if errors.Is(err, events.ErrSchema) {
		logging.Ctx(ctx).Error().Err(err).Str("username", username).Str("stream", stream).Msg("event file ignored")
		return zero, nil
	}
	return zero, fmt.Errorf("read %s: %w", stream, err)
}

// resetEntrepreneurWeeks zeroes the derived counters of every canonical
// slot and fills missing entry fields.
func (e *Engine) resetEntrepreneurWeeks(doc *models.Document) {
	if doc.Weekly == nil {
		doc.Weekly = models.Weekly{}
	}
	for _, s := range fiscal.Slots() {
		label := e.cal.WeekLabel(s)
		cell := doc.Weekly.Ensure(s.Month, s.Week, func() *models.WeekCell {
			return models.NewEntrepreneurCell(label)
		})
		cell.Estimation = 0
		cell.Contract = 0
		cell.Dollar = 0
		cell.Produit = 0
		cell.CACumul = ptr(0.0)

		if cell.WeekLabel == nil {
			cell.WeekLabel = ptr(label)
		}
		if cell.Rating == nil {
			cell.Rating = ptr(0.0)
		}
		if cell.Probleme == nil {
			cell.Probleme = ptr(models.MissingMarker)
		}
		if cell.Focus == nil {
			cell.Focus = ptr(models.MissingMarker)
		}
		if cell.ProdHoraire == nil {
			cell.ProdHoraire = ptr(models.Missing())
		}
		if cell.Satisfaction == nil {
			cell.Satisfaction = ptr(0.0)
		}
	}
}

func (e *Engine) cell(doc *models.Document, s fiscal.Slot) *models.WeekCell {
	label := e.cal.WeekLabel(s)
	return doc.Weekly.Ensure(s.Month, s.Week, func() *models.WeekCell {
		return models.NewEntrepreneurCell(label)
	})
}

func (e *Engine) countQuotes(ctx context.Context, username string, doc *models.Document) error {
	quotes, err := readStream(ctx, username, events.StreamQuotes, func() ([]events.Quote, error) {
		return e.events.Quotes(ctx, username)
	})
	if err != nil {
		return err
	}
	for _, q := range quotes {
		if q.Date == "" {
			continue
		}
		e.cell(doc, e.cal.Map(q.Date)).Estimation++
	}
	return nil
}

func (e *Engine) countContracts(ctx context.Context, username string, doc *models.Document) error {
	statuses, err := readStream(ctx, username, events.StreamStatuses, func() ([]events.InvoicingStatus, error) {
		return e.events.InvoicingStatuses(ctx, username)
	})
	if err != nil || len(statuses) == 0 {
		return err
	}
	lost, err := readStream(ctx, username, events.StreamLostClients, func() (map[string]struct{}, error) {
		return e.events.LostClients(ctx, username)
	})
	if err != nil {
		return err
	}
	sales, err := readStream(ctx, username, events.StreamAcceptedSales, func() (map[string]events.Sale, error) {
		return e.events.SalesLookup(ctx, username)
	})
	if err != nil {
		return err
	}

	log := logging.Ctx(ctx)
	for _, st := range statuses {
		if st.DatePremiereFacturation == "" {
			continue
		}
		if _, isLost := lost[st.Num]; isLost {
			log.Debug().Str("username", username).Str("num", st.Num).Msg("lost client excluded")
			continue
		}
		sale, ok := sales[st.Num]
		if !ok {
			log.Warn().Err(events.ErrMissingReference).Str("username", username).Str("num", st.Num).Msg("invoiced contract has no sale, skipped")
			metrics.RecordSkippedRecord(events.StreamStatuses)
			continue
		}
		c := e.cell(doc, e.cal.Map(st.DatePremiereFacturation))
		c.Contract++
		c.Dollar += sale.Price
	}
	return nil
}

func (e *Engine) countProduced(ctx context.Context, username string, doc *models.Document) error {
	produced, err := readStream(ctx, username, events.StreamProducedSales, func() ([]events.Sale, error) {
		return e.events.ProducedSales(ctx, username)
	})
	if err != nil {
		return err
	}
	for _, s := range produced {
		if s.Date == "" || s.Price <= 0 {
			continue
		}
		t, err := fiscal.ParseDate(s.Date)
		if err != nil {
			logging.Ctx(ctx).Warn().Str("username", username).Str("date", s.Date).Msg("produced sale date not recognised, skipped")
			metrics.RecordSkippedRecord(events.StreamProducedSales)
			continue
		}
		e.cell(doc, e.cal.MapTime(t)).Produit += s.Price
	}
	return nil
}

// weekTotals are sums over week cells.
type weekTotals struct {
	hours, hoursSansWeek1 float64
	estimation, contract  float64
	dollar, produit       float64
}

func (t *weekTotals) add(s fiscal.Slot, c *models.WeekCell) {
	h := c.HMarketing.Number()
	t.hours += h
	if s != fiscal.TrainingSlot {
		t.hoursSansWeek1 += h
	}
	t.estimation += c.Estimation
	t.contract += c.Contract
	t.dollar += c.Dollar
	t.produit += c.Produit
}

// write stores the sums and the ratios derived from them.
func (t weekTotals) write(annual models.Fields, venteDecimals int) {
	annual[models.FieldHrPapReel] = t.hours
	annual[models.FieldHrPapReelSansWeek1] = t.hoursSansWeek1
	annual[models.FieldEstimationReel] = t.estimation
	annual[models.FieldContractReel] = t.contract
	annual[models.FieldDollarReel] = t.dollar
	annual[models.FieldProduitReel] = t.produit
	annual[models.FieldMktgReel] = models.Ratio(t.estimation, t.hours, 2)
	annual[models.FieldVenteReel] = models.Ratio(100*t.contract, t.estimation, venteDecimals)
	annual[models.FieldMoyenReel] = models.Ratio(t.dollar, t.contract, 2)
}

// entrepreneurTotals writes annual and monthly reals from the weekly cells.
func (e *Engine) entrepreneurTotals(doc *models.Document) {
	var (
		year      weekTotals
		prodSum   float64
		prodCount int
	)
	months := make(map[int]*weekTotals)
	for _, s := range fiscal.Slots() {
		c := doc.Weekly.Cell(s.Month, s.Week)
		if c == nil {
			continue
		}
		year.add(s, c)

		m, ok := months[s.Month]
		if !ok {
			m = &weekTotals{}
			months[s.Month] = m
		}
		m.add(s, c)

		if prodHoraireMonths[s.Month] && c.ProdHoraire != nil {
			if v, ok := c.ProdHoraire.Value(); ok && v != 0 {
				prodSum += v
				prodCount++
			}
		}
	}

	if doc.Annual == nil {
		doc.Annual = models.Fields{}
	}
	year.write(doc.Annual, 1)
	doc.Annual[models.FieldProdHoraire] = models.Ratio(prodSum, float64(prodCount), 2)

	if doc.Monthly == nil {
		doc.Monthly = make(map[string]models.Fields)
	}
	for month, t := range months {
		label, ok := e.cal.MonthLabel(month)
		if !ok {
			continue
		}
		bucket := doc.Monthly[label]
		if bucket == nil {
			bucket = models.NewMonthlyBucket()
			doc.Monthly[label] = bucket
		}
		bucket[models.FieldMonthHrPapReel] = t.hours
		bucket[models.FieldMonthEstimationReel] = t.estimation
		bucket[models.FieldMonthContractReel] = t.contract
		bucket[models.FieldMonthDollarReel] = t.dollar
	}
}

// accumulateRevenue writes the running dollar total on every slot in
// calendar order.
func accumulateRevenue(doc *models.Document) {
	var running float64
	for _, s := range fiscal.Slots() {
		c := doc.Weekly.Cell(s.Month, s.Week)
		if c == nil {
			continue
		}
		running += c.Dollar
		c.CACumul = ptr(running)
	}
}

// accumulateSatisfaction writes on every slot the mean rating of all
// reviews received up to and including that week. Weeks before the first
// review get 0.
func (e *Engine) accumulateSatisfaction(ctx context.Context, doc *models.Document, reviews []events.Review) {
	bySlot := make(map[fiscal.Slot][]float64)
	for _, r := range reviews {
		if r.Rating <= 0 || r.Timestamp == "" {
			continue
		}
		t, err := fiscal.ParseDate(r.Timestamp)
		if err != nil {
			logging.Ctx(ctx).Warn().Str("timestamp", r.Timestamp).Msg("review timestamp not recognised, skipped")
			metrics.RecordSkippedRecord(events.StreamReviews)
			continue
		}
		s := e.cal.MapTime(t)
		bySlot[s] = append(bySlot[s], r.Rating)
	}

	var sum float64
	var n int
	for _, s := range fiscal.Slots() {
		for _, r := range bySlot[s] {
			sum += r
			n++
		}
		c := doc.Weekly.Cell(s.Month, s.Week)
		if c == nil {
			continue
		}
		c.Satisfaction = ptr(models.Ratio(sum, float64(n), 2))
	}
}
