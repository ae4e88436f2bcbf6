// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package fiscal maps dates onto the fiscal calendar used by RPO documents.
//
// Fiscal year Y runs from December 1 of Y-1 to December 31 of Y. Slots are
// addressed by a month index (-2 for December Y-1, 0 for January Y through
// 11 for December Y) and a week ordinal 1..5. A week belongs to the month
// containing its Monday; days of January before the first Monday of January
// belong to the fifth week of December Y-1.
//
// All dates are interpreted in America/Toronto.
package fiscal

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // America/Toronto must resolve on hosts without zoneinfo

	"github.com/tomtom215/rpoengine/internal/logging"
)

// PreviousDecember is the month index of December Y-1.
const PreviousDecember = -2

// MaxWeek is the highest week ordinal of a month.
const MaxWeek = 5

// ErrUnparseableDate is returned when a date string matches no accepted format.
var ErrUnparseableDate = errors.New("unparseable date")

// Slot addresses a week cell.
type Slot struct {
	Month int
	Week  int
}

// Fallback is the slot used for dates outside the fiscal year and for unparseable dates.
var Fallback = Slot{Month: 0, Week: 1}

// TrainingSlot is the first week of January, excluded from hr_pap_reel_sans_week1.
var TrainingSlot = Slot{Month: 0, Week: 1}

func (s Slot) String() string {
	return fmt.Sprintf("%d/w%d", s.Month, s.Week)
}

// Valid reports whether the slot exists in a document.
func (s Slot) Valid() bool {
	return ValidMonth(s.Month) && s.Week >= 1 && s.Week <= MaxWeek
}

// ValidMonth reports whether m is -2 or 0..11.
func ValidMonth(m int) bool {
	return m == PreviousDecember || (m >= 0 && m <= 11)
}

var toronto = loadToronto()

func loadToronto() *time.Location {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Location returns the America/Toronto location.
func Location() *time.Location {
	return toronto
}

// Now returns the current time in Toronto.
func Now() time.Time {
	return time.Now().In(toronto)
}

// Calendar maps dates for one fiscal year.
type Calendar struct {
	year int
}

// NewCalendar returns the calendar of fiscal year year.
func NewCalendar(year int) *Calendar {
	return &Calendar{year: year}
}

// Year returns the fiscal year.
func (c *Calendar) Year() int {
	return c.year
}

var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var offsetTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
}

// ParseDate parses YYYY-MM-DD, DD/MM/YYYY (an optional time after a space is
// ignored) and ISO-8601 timestamps. Timestamps carrying a zone are converted
// to Toronto; naive values are taken as Toronto local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseableDate)
	}

	if strings.Contains(s, "T") {
		for _, layout := range offsetTimestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(toronto), nil
			}
		}
		for _, layout := range naiveTimestampLayouts {
			if t, err := time.ParseInLocation(layout, s, toronto); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}

	head := strings.Fields(s)[0]
	layout := "2006-01-02"
	if strings.Contains(head, "/") {
		layout = "2/1/2006"
	}
	t, err := time.ParseInLocation(layout, head, toronto)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}
	return t, nil
}

// Map returns the slot of a date string. Unparseable input is logged and
// mapped to Fallback.
func (c *Calendar) Map(s string) Slot {
	t, err := ParseDate(s)
	if err != nil {
		logging.Warn().Str("date", s).Msg("date not recognised, using fallback week")
		return Fallback
	}
	return c.MapTime(t)
}

// MapTime returns the slot containing t.
func (c *Calendar) MapTime(t time.Time) Slot {
	d := civil(t.In(toronto))

	switch {
	case d.Year() == c.year-1 && d.Month() == time.December:
		fm := firstMonday(c.year-1, time.December)
		if d.Before(fm) {
			return Slot{Month: PreviousDecember, Week: 1}
		}
		return Slot{Month: PreviousDecember, Week: ordinal(fm, d)}

	case d.Year() == c.year:
		if d.Month() == time.January && d.Before(firstMonday(c.year, time.January)) {
			return Slot{Month: PreviousDecember, Week: MaxWeek}
		}
		monday := d.AddDate(0, 0, -daysSinceMonday(d))
		fm := firstMonday(c.year, monday.Month())
		return Slot{Month: int(monday.Month()) - 1, Week: ordinal(fm, monday)}
	}

	return Fallback
}

// MondayOf returns the Monday opening the slot, or false when the month has
// no such Monday.
func (c *Calendar) MondayOf(s Slot) (time.Time, bool) {
	if !s.Valid() {
		return time.Time{}, false
	}
	year, month := c.year, time.Month(s.Month+1)
	if s.Month == PreviousDecember {
		year, month = c.year-1, time.December
	}
	d := firstMonday(year, month).AddDate(0, 0, 7*(s.Week-1))
	if d.Month() != month {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, toronto), true
}

// WeekLabel returns the slot's Monday as YYYY-MM-DD, or "-".
func (c *Calendar) WeekLabel(s Slot) string {
	if d, ok := c.MondayOf(s); ok {
		return d.Format("2006-01-02")
	}
	return "-"
}

// civil strips the clock and zone so day arithmetic ignores DST.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstMonday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, (7-daysSinceMonday(d))%7)
}

func daysSinceMonday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func ordinal(firstMonday, d time.Time) int {
	week := int(d.Sub(firstMonday).Hours()/24)/7 + 1
	if week > MaxWeek {
		return MaxWeek
	}
	return week
}
