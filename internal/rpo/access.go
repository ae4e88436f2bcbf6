// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/models"
)

// GetAnnual returns a copy of the annual section of username's document.
func (e *Engine) GetAnnual(ctx context.Context, username string) (models.Fields, error) {
	doc, err := e.store.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	return doc.Annual.Clone(), nil
}

// GetMonthly returns a copy of one monthly bucket. Aggregate documents have
// no monthly buckets.
func (e *Engine) GetMonthly(ctx context.Context, username, month string) (models.Fields, error) {
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	if role.Aggregate() || !e.validMonthLabel(month) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	doc, err := e.store.LoadKey(ctx, key, role)
	if err != nil {
		return nil, err
	}
	if bucket, ok := doc.Monthly[month]; ok && bucket != nil {
		return bucket.Clone(), nil
	}
	return models.NewMonthlyBucket(), nil
}

// GetAllMonthly returns a copy of every monthly bucket, keyed by label.
// Labels absent from the document get a blank bucket. Aggregate documents
// have none and yield an empty map.
func (e *Engine) GetAllMonthly(ctx context.Context, username string) (map[string]models.Fields, error) {
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Fields)
	if role.Aggregate() {
		return out, nil
	}
	doc, err := e.store.LoadKey(ctx, key, role)
	if err != nil {
		return nil, err
	}
	for _, label := range e.cal.MonthLabels() {
		if bucket := doc.Monthly[label]; bucket != nil {
			out[label] = bucket.Clone()
		} else {
			out[label] = models.NewMonthlyBucket()
		}
	}
	return out, nil
}

// GetMonth returns the week cells of one fiscal month, keyed by week.
// Weeks absent from the document are filled like GetWeekly does.
func (e *Engine) GetMonth(ctx context.Context, username string, month int) (map[int]*models.WeekCell, error) {
	if !fiscal.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidSlot, month)
	}
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	doc, err := e.store.LoadKey(ctx, key, role)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*models.WeekCell, fiscal.MaxWeek)
	for week := 1; week <= fiscal.MaxWeek; week++ {
		switch c := doc.Weekly.Cell(month, week); {
		case c != nil:
			out[week] = c
		case role.Aggregate():
			out[week] = models.NewAggregateCell()
		default:
			out[week] = models.NewEntrepreneurCell(e.cal.WeekLabel(fiscal.Slot{Month: month, Week: week}))
		}
	}
	return out, nil
}

// GetWeekly returns one week cell. A valid slot absent from the document
// yields the blank cell of the user's role.
func (e *Engine) GetWeekly(ctx context.Context, username string, month, week int) (*models.WeekCell, error) {
	slot := fiscal.Slot{Month: month, Week: week}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	doc, err := e.store.LoadKey(ctx, key, role)
	if err != nil {
		return nil, err
	}
	if c := doc.Weekly.Cell(month, week); c != nil {
		return c, nil
	}
	if role.Aggregate() {
		return models.NewAggregateCell(), nil
	}
	return models.NewEntrepreneurCell(e.cal.WeekLabel(slot)), nil
}

// UpdateAnnual merges partial into the annual section. Protected fields are
// dropped and returned.
func (e *Engine) UpdateAnnual(ctx context.Context, username string, partial map[string]any) ([]string, error) {
	ctx = withCorrelation(ctx)
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	var skipped []string
	err = e.mutate(ctx, key, role, func(doc *models.Document) error {
		if doc.Annual == nil {
			doc.Annual = models.Fields{}
		}
		skipped = doc.Annual.Merge(partial, models.ProtectedFields)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logIgnored(ctx, username, skipped)
	return sorted(skipped), nil
}

// UpdateMonthly merges partial into one monthly bucket of an entrepreneur.
func (e *Engine) UpdateMonthly(ctx context.Context, username, month string, partial map[string]any) ([]string, error) {
	ctx = withCorrelation(ctx)
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	if role.Aggregate() || !e.validMonthLabel(month) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	var skipped []string
	err = e.mutate(ctx, key, role, func(doc *models.Document) error {
		if doc.Monthly == nil {
			doc.Monthly = make(map[string]models.Fields)
		}
		bucket := doc.Monthly[month]
		if bucket == nil {
			bucket = models.NewMonthlyBucket()
			doc.Monthly[month] = bucket
		}
		skipped = bucket.Merge(partial, models.MonthlyProtectedFields)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logIgnored(ctx, username, skipped)
	return sorted(skipped), nil
}

// UpdateWeekly merges partial into one entrepreneur week, recomputes the
// annual and monthly reals and the running revenue from the cells, then
// runs the badge hook and the coach cascade.
func (e *Engine) UpdateWeekly(ctx context.Context, username string, month, week int, partial map[string]any) ([]string, error) {
	ctx = withCorrelation(ctx)
	slot := fiscal.Slot{Month: month, Week: week}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return nil, err
	}
	if role.Aggregate() {
		return nil, fmt.Errorf("%w: weeks of %s are aggregated", ErrRoleMismatch, username)
	}

	var skipped []string
	err = e.mutate(ctx, key, role, func(doc *models.Document) error {
		if doc.Weekly == nil {
			doc.Weekly = models.Weekly{}
		}
		var err error
		skipped, err = e.cell(doc, slot).Merge(partial, models.WeeklyProtectedFields)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		e.entrepreneurTotals(doc)
		accumulateRevenue(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logIgnored(ctx, username, skipped)
	e.afterCommit(ctx, username, true)
	return skipped, nil
}

// UpdateEtatsResultatsBudget replaces the budget percentages of the P&L.
func (e *Engine) UpdateEtatsResultatsBudget(ctx context.Context, username string, budget map[string]float64) error {
	return e.setPercents(ctx, username, models.FieldBudgetPercent, budget)
}

// UpdateEtatsResultatsCiblePercent replaces the target percentages of the
// P&L. An empty map leaves the document untouched.
func (e *Engine) UpdateEtatsResultatsCiblePercent(ctx context.Context, username string, cible map[string]float64) error {
	if len(cible) == 0 {
		return nil
	}
	return e.setPercents(ctx, username, models.FieldCiblePercent, cible)
}

// GetEtatsResultatsBudget returns the budget percentages of the P&L.
func (e *Engine) GetEtatsResultatsBudget(ctx context.Context, username string) (map[string]float64, error) {
	doc, err := e.store.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	return percents(doc.EtatsResultats[models.FieldBudgetPercent]), nil
}

// GetEtatsResultatsActuel returns the target percentages of the P&L,
// falling back to the budget percentages when none are set.
func (e *Engine) GetEtatsResultatsActuel(ctx context.Context, username string) (map[string]float64, error) {
	doc, err := e.store.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	if cible := percents(doc.EtatsResultats[models.FieldCiblePercent]); len(cible) > 0 {
		return cible, nil
	}
	return percents(doc.EtatsResultats[models.FieldBudgetPercent]), nil
}

func (e *Engine) setPercents(ctx context.Context, username, field string, values map[string]float64) error {
	ctx = withCorrelation(ctx)
	key, role, err := e.store.Key(ctx, username)
	if err != nil {
		return err
	}
	if role.Aggregate() {
		return fmt.Errorf("%w: %s keeps no P&L", ErrRoleMismatch, username)
	}
	return e.mutate(ctx, key, role, func(doc *models.Document) error {
		if doc.EtatsResultats == nil {
			doc.EtatsResultats = models.Fields{}
		}
		m := make(map[string]any, len(values))
		for k, v := range values {
			m[k] = v
		}
		doc.EtatsResultats[field] = m
		return nil
	})
}

// percents converts a decoded JSON object of numbers.
func percents(v any) map[string]float64 {
	out := make(map[string]float64)
	switch m := v.(type) {
	case map[string]any:
		f := models.Fields(m)
		for k := range m {
			out[k] = f.Float(k)
		}
	case map[string]float64:
		for k, x := range m {
			out[k] = x
		}
	}
	return out
}

func (e *Engine) validMonthLabel(label string) bool {
	for _, l := range e.cal.MonthLabels() {
		if l == label {
			return true
		}
	}
	return false
}

func logIgnored(ctx context.Context, username string, keys []string) {
	if len(keys) == 0 {
		return
	}
	logging.Ctx(ctx).Info().Str("username", username).Strs("fields", keys).Msg("protected fields ignored")
}

func sorted(keys []string) []string {
	sort.Strings(keys)
	return keys
}
