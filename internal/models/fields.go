// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"math"

	"github.com/goccy/go-json"
)

// Fields is an open map of scalar values (annual, monthly, etats_resultats).
// Numbers decoded from JSON are float64.
type Fields map[string]any

// Float returns the field as a number. Numeric strings are parsed; anything
// else is 0.
func (f Fields) Float(key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		n, _ := v.Float64()
		return n
	case string:
		n, _ := ParseNumber(v)
		return n
	default:
		return 0
	}
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// SetDefault sets key only when it is absent.
func (f Fields) SetDefault(key string, v any) {
	if _, ok := f[key]; !ok {
		f[key] = v
	}
}

// Merge copies partial into f, skipping keys in protected. It returns the
// skipped keys.
func (f Fields) Merge(partial map[string]any, protected map[string]bool) []string {
	var skipped []string
	for k, v := range partial {
		if protected[k] {
			skipped = append(skipped, k)
			continue
		}
		f[k] = v
	}
	return skipped
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Round rounds v to the given number of decimals, half away from zero.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Ratio returns num/den rounded, or 0 when den is 0.
func Ratio(num, den float64, decimals int) float64 {
	if den == 0 {
		return 0
	}
	return Round(num/den, decimals)
}
