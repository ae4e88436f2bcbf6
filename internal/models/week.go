// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// WeekCell is one week of activity. Optional fields are nil on coach and
// direction cells, which carry only h_marketing and the four counters.
type WeekCell struct {
	WeekLabel    *string
	HMarketing   Hours
	Estimation   float64
	Contract     float64
	Dollar       float64
	CACumul      *float64
	Produit      float64
	Rating       *float64
	Probleme     *string
	Focus        *string
	ProdHoraire  *Hours
	Satisfaction *float64

	// Extra holds keys this type does not model, verbatim.
	Extra map[string]json.RawMessage
}

// NewEntrepreneurCell returns a blank entrepreneur week.
func NewEntrepreneurCell(label string) *WeekCell {
	missing := Missing()
	return &WeekCell{
		WeekLabel:    ptr(label),
		HMarketing:   Missing(),
		CACumul:      ptr(0.0),
		Rating:       ptr(0.0),
		Probleme:     ptr(MissingMarker),
		Focus:        ptr(MissingMarker),
		ProdHoraire:  &missing,
		Satisfaction: ptr(0.0),
	}
}

// NewAggregateCell returns a zeroed coach or direction week.
func NewAggregateCell() *WeekCell {
	return &WeekCell{HMarketing: Numeric(0)}
}

func ptr[T any](v T) *T {
	return &v
}

// ResetAggregate turns the cell into a zeroed aggregate cell, keeping unknown keys.
func (c *WeekCell) ResetAggregate() {
	extra := c.Extra
	*c = *NewAggregateCell()
	c.Extra = extra
}

// MarshalJSON implements json.Marshaler with a fixed key order.
func (c *WeekCell) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if c.WeekLabel != nil {
		w.field(KeyWeekLabel, *c.WeekLabel)
	}
	w.field(KeyHMarketing, c.HMarketing)
	w.field(KeyEstimation, c.Estimation)
	w.field(KeyContract, c.Contract)
	w.field(KeyDollar, c.Dollar)
	if c.CACumul != nil {
		w.field(KeyCACumul, *c.CACumul)
	}
	w.field(KeyProduit, c.Produit)
	if c.Rating != nil {
		w.field(KeyRating, *c.Rating)
	}
	if c.Probleme != nil {
		w.field(KeyProbleme, *c.Probleme)
	}
	if c.Focus != nil {
		w.field(KeyFocus, *c.Focus)
	}
	if c.ProdHoraire != nil {
		w.field(KeyProdHoraire, *c.ProdHoraire)
	}
	if c.Satisfaction != nil {
		w.field(KeySatisfaction, *c.Satisfaction)
	}
	w.extras(c.Extra)
	return w.bytes()
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *WeekCell) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("week cell: %w", err)
	}
	*c = WeekCell{}
	for k, v := range raw {
		c.set(k, v)
	}
	return nil
}

// Merge writes partial into the cell, skipping protected keys. It returns
// the skipped keys. Hours that are not numbers and non-finite floats are
// rejected before anything is written.
func (c *WeekCell) Merge(partial map[string]any, protected map[string]bool) ([]string, error) {
	for k, v := range partial {
		if protected[k] {
			continue
		}
		var err error
		switch k {
		case KeyHMarketing, KeyProdHoraire:
			err = checkHours(v)
		default:
			if f, ok := v.(float64); ok {
				err = checkFinite(f)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
	}

	var skipped []string
	for k, v := range partial {
		if protected[k] {
			skipped = append(skipped, k)
			continue
		}
		raw, err := json.MarshalNoEscape(v)
		if err != nil {
			return skipped, fmt.Errorf("field %s: %w", k, err)
		}
		c.set(k, raw)
	}
	sort.Strings(skipped)
	return skipped, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeNumber accepts JSON numbers and numeric strings.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseNumber(s)
	}
	return 0, false
}

func decodeString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// set assigns one key. Values a typed field cannot hold are kept verbatim in Extra.
func (c *WeekCell) set(key string, raw json.RawMessage) {
	keep := func() {
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[key] = append(json.RawMessage(nil), raw...)
	}
	optionalNumber := func(dst **float64) {
		if isNull(raw) {
			*dst = nil
			return
		}
		if v, ok := decodeNumber(raw); ok {
			*dst = &v
			return
		}
		*dst = nil
		keep()
	}
	optionalString := func(dst **string) {
		if isNull(raw) {
			*dst = nil
			return
		}
		if s, ok := decodeString(raw); ok {
			*dst = &s
			return
		}
		*dst = nil
		keep()
	}

	delete(c.Extra, key)
	switch key {
	case KeyWeekLabel:
		optionalString(&c.WeekLabel)
	case KeyHMarketing:
		_ = c.HMarketing.UnmarshalJSON(raw)
	case KeyEstimation:
		c.Estimation, _ = decodeNumber(raw)
	case KeyContract:
		c.Contract, _ = decodeNumber(raw)
	case KeyDollar:
		c.Dollar, _ = decodeNumber(raw)
	case KeyProduit:
		c.Produit, _ = decodeNumber(raw)
	case KeyCACumul:
		optionalNumber(&c.CACumul)
	case KeyRating:
		optionalNumber(&c.Rating)
	case KeySatisfaction:
		optionalNumber(&c.Satisfaction)
	case KeyProbleme:
		optionalString(&c.Probleme)
	case KeyFocus:
		optionalString(&c.Focus)
	case KeyProdHoraire:
		var h Hours
		_ = h.UnmarshalJSON(raw)
		c.ProdHoraire = &h
	default:
		keep()
	}
}

// Weekly maps month index to week number to cell.
type Weekly map[int]map[int]*WeekCell

// Cell returns the cell at (month, week) or nil.
func (w Weekly) Cell(month, week int) *WeekCell {
	return w[month][week]
}

// Ensure returns the cell at (month, week), creating it with create when absent.
func (w Weekly) Ensure(month, week int, create func() *WeekCell) *WeekCell {
	weeks, ok := w[month]
	if !ok {
		weeks = make(map[int]*WeekCell)
		w[month] = weeks
	}
	cell, ok := weeks[week]
	if !ok || cell == nil {
		cell = create()
		weeks[week] = cell
	}
	return cell
}

// MarshalJSON writes months and weeks in numeric order with string keys.
func (w Weekly) MarshalJSON() ([]byte, error) {
	months := make([]int, 0, len(w))
	for m := range w {
		months = append(months, m)
	}
	sort.Ints(months)

	out := newObjectWriter()
	for _, m := range months {
		weeks := make([]int, 0, len(w[m]))
		for wk := range w[m] {
			weeks = append(weeks, wk)
		}
		sort.Ints(weeks)

		inner := newObjectWriter()
		for _, wk := range weeks {
			if cell := w[m][wk]; cell != nil {
				inner.field(strconv.Itoa(wk), cell)
			}
		}
		b, err := inner.bytes()
		if err != nil {
			return nil, err
		}
		out.raw(strconv.Itoa(m), b)
	}
	return out.bytes()
}

// UnmarshalJSON reads string month and week keys. Non-integer keys are dropped.
func (w *Weekly) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]*WeekCell
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("weekly: %w", err)
	}
	out := make(Weekly, len(raw))
	for mk, weeks := range raw {
		m, err := strconv.Atoi(mk)
		if err != nil {
			continue
		}
		out[m] = make(map[int]*WeekCell, len(weeks))
		for wk, cell := range weeks {
			n, err := strconv.Atoi(wk)
			if err != nil || cell == nil {
				continue
			}
			out[m][n] = cell
		}
	}
	*w = out
	return nil
}
