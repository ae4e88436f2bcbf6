// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package validation

import (
	"strings"
	"testing"
)

type weekParams struct {
	Username string `validate:"required,username"`
	Month    int    `validate:"fiscalmonth"`
	Week     int    `validate:"min=1,max=5"`
}

type monthParams struct {
	Username string `validate:"required,username"`
	Month    string `validate:"required,monthlabel"`
}

func TestValidateStruct_Week(t *testing.T) {
	tests := []struct {
		name    string
		input   weekParams
		wantTag string
	}{
		{"valid", weekParams{Username: "alice.b", Month: 3, Week: 2}, ""},
		{"previous december", weekParams{Username: "alice", Month: -2, Week: 5}, ""},
		{"month -1", weekParams{Username: "alice", Month: -1, Week: 1}, "fiscalmonth"},
		{"month 12", weekParams{Username: "alice", Month: 12, Week: 1}, "fiscalmonth"},
		{"week 0", weekParams{Username: "alice", Month: 0, Week: 0}, "min"},
		{"week 6", weekParams{Username: "alice", Month: 0, Week: 6}, "max"},
		{"empty user", weekParams{Month: 0, Week: 1}, "required"},
		{"traversal", weekParams{Username: "../etc", Month: 0, Week: 1}, "username"},
		{"slash", weekParams{Username: "a/b", Month: 0, Week: 1}, "username"},
		{"space", weekParams{Username: "a b", Month: 0, Week: 1}, "username"},
		{"too long", weekParams{Username: strings.Repeat("x", 129), Month: 0, Week: 1}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s failure", tt.wantTag)
			}
			if got := err[0].Tag; got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_MonthLabel(t *testing.T) {
	for _, label := range []string{"jan", "dec", "dec2025", "sep"} {
		if err := ValidateStruct(&monthParams{Username: "u", Month: label}); err != nil {
			t.Errorf("%s: %v", label, err)
		}
	}
	for _, label := range []string{"2026-01", "janvier", "JAN", "dec25", "jan2026", ""} {
		if err := ValidateStruct(&monthParams{Username: "u", Month: label}); err == nil {
			t.Errorf("%s accepted", label)
		}
	}
}

func TestAPIError_SingleField(t *testing.T) {
	err := ValidateStruct(&weekParams{Username: "alice", Month: 14, Week: 1})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr := err.APIError()
	if apiErr.Code != CodeValidation {
		t.Errorf("code = %q", apiErr.Code)
	}
	if apiErr.Message != "Month must be -2 or between 0 and 11" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "Month" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestAPIError_SeveralFields(t *testing.T) {
	err := ValidateStruct(&weekParams{Username: "", Month: 20, Week: 9})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(err); n != 3 {
		t.Fatalf("errors = %d, want 3", n)
	}

	apiErr := err.APIError()
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 3 {
		t.Fatalf("details = %v", apiErr.Details)
	}
	for _, want := range []string{"Username: Username is required", "Week: Week must be at most 5"} {
		if !strings.Contains(apiErr.Message, want) {
			t.Errorf("message %q missing %q", apiErr.Message, want)
		}
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	err := ValidateStruct("plain string")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if err[0].Field != "unknown" {
		t.Errorf("field = %q, want unknown", err[0].Field)
	}
}
