// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package events

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// ParsePrice converts a human-entered amount such as "12 500,50 $" into a
// number. Currency symbols and every kind of whitespace are removed. A comma
// is a decimal separator unless a dot follows it; when both separators
// occur the last one is the decimal separator and the other groups digits.
// Unparseable input yields 0, and so do NaN and infinities.
func ParsePrice(s string) float64 {
	v, err := parsePrice(s)
	if err != nil {
		return 0
	}
	return v
}

// errNonFinite marks a price that parses to NaN or an infinity.
var errNonFinite = errors.New("price is not a finite number")

func parsePrice(s string) (float64, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == '$', r == '€', r == '£':
		default:
			b.WriteRune(r)
		}
	}
	clean := b.String()

	comma := strings.LastIndexByte(clean, ',')
	dot := strings.LastIndexByte(clean, '.')
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		if strings.Count(clean, ",") > 1 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errNonFinite, s)
	}
	return v, nil
}

// priceOf accepts a JSON number or string amount. Only a non-finite
// amount is an error; anything else unreadable is 0.
func priceOf(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, nil
		}
		return parsePrice(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, nil
	}
	return f, nil
}

// FlexString decodes a JSON string or number into its string form.
// Identifiers such as num and id appear as either in the source files.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	}
}

// String returns the identifier.
func (f FlexString) String() string {
	return string(f)
}
