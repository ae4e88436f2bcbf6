// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package fiscal

import "strconv"

var monthLabels = [12]string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// EntrepreneurMonths returns the month indices present on entrepreneur documents.
func EntrepreneurMonths() []int {
	return append([]int{PreviousDecember}, AggregateMonths()...)
}

// AggregateMonths returns the month indices present on coach and direction documents.
func AggregateMonths() []int {
	months := make([]int, 12)
	for i := range months {
		months[i] = i
	}
	return months
}

func slotsOf(months []int) []Slot {
	slots := make([]Slot, 0, len(months)*MaxWeek)
	for _, m := range months {
		for w := 1; w <= MaxWeek; w++ {
			slots = append(slots, Slot{Month: m, Week: w})
		}
	}
	return slots
}

// Slots returns every entrepreneur slot in calendar order, (-2,1) first.
func Slots() []Slot {
	return slotsOf(EntrepreneurMonths())
}

// AggregateSlots returns the slots of months 0..11 in calendar order.
func AggregateSlots() []Slot {
	return slotsOf(AggregateMonths())
}

// MonthLabel returns the monthly bucket name of a month index:
// "dec<Y-1>" for -2, then "jan" through "dec".
func (c *Calendar) MonthLabel(month int) (string, bool) {
	if month == PreviousDecember {
		return "dec" + strconv.Itoa(c.year-1), true
	}
	if month < 0 || month > 11 {
		return "", false
	}
	return monthLabels[month], true
}

// MonthLabels returns all thirteen bucket names in calendar order.
func (c *Calendar) MonthLabels() []string {
	labels := make([]string, 0, 13)
	for _, m := range EntrepreneurMonths() {
		l, _ := c.MonthLabel(m)
		labels = append(labels, l)
	}
	return labels
}
