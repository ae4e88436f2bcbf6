// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNotANumber is returned when an hours value is neither a finite number
// nor the missing marker.
var ErrNotANumber = errors.New("not a finite number")

// MissingMarker is the JSON representation of a missing value.
const MissingMarker = "-"

// Hours is either a number or missing. Missing marshals as "-", or as the
// text that was read when it was not a number.
type Hours struct {
	value float64
	set   bool
	text  string
}

// Numeric returns a present Hours value.
func Numeric(v float64) Hours {
	return Hours{value: v, set: true}
}

// Missing returns the missing Hours value.
func Missing() Hours {
	return Hours{}
}

// Value returns the number and whether it is present.
func (h Hours) Value() (float64, bool) {
	return h.value, h.set
}

// Number returns the value, or 0 when missing.
func (h Hours) Number() float64 {
	return h.value
}

// IsMissing reports whether no number is recorded.
func (h Hours) IsMissing() bool {
	return !h.set
}

// MarshalJSON implements json.Marshaler.
func (h Hours) MarshalJSON() ([]byte, error) {
	if !h.set {
		if h.text != "" {
			return json.Marshal(h.text)
		}
		return []byte(`"` + MissingMarker + `"`), nil
	}
	return json.Marshal(h.value)
}

// UnmarshalJSON accepts numbers, numeric strings with either decimal
// separator, "-", "" and null. Other strings decode as missing but keep
// their text.
func (h *Hours) UnmarshalJSON(data []byte) error {
	*h = Hours{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, ok := ParseNumber(s); ok {
			*h = Numeric(v)
		} else if t := strings.TrimSpace(s); t != "" && t != MissingMarker {
			h.text = s
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*h = Numeric(v)
	}
	return nil
}

// ParseNumber parses a user-entered number, accepting a decimal comma.
// "-", blank strings, NaN and infinities are not numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == MissingMarker {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// checkHours rejects values that are neither numbers nor the missing marker.
func checkHours(v any) error {
	switch x := v.(type) {
	case float64:
		return checkFinite(x)
	case string:
		if t := strings.TrimSpace(x); t == "" || t == MissingMarker {
			return nil
		}
		if _, ok := ParseNumber(x); !ok {
			return fmt.Errorf("%w: %q", ErrNotANumber, x)
		}
	}
	return nil
}

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrNotANumber, v)
	}
	return nil
}
