// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package validation validates request parameters with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/store"
)

// CodeValidation is the API error code of a failed validation.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Value   any
	Message string
}

// Errors lists every failed rule of a struct.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError renders the failures as a VALIDATION_ERROR. A single failure
// names its field; several are listed under details.fields.
func (e Errors) APIError() *models.APIError {
	if len(e) == 1 {
		return &models.APIError{
			Code:    CodeValidation,
			Message: e[0].Message,
			Details: map[string]any{"field": e[0].Field, "tag": e[0].Tag, "value": e[0].Value},
		}
	}
	fields := make([]map[string]any, len(e))
	msgs := make([]string, len(e))
	for i, fe := range e {
		fields[i] = map[string]any{"field": fe.Field, "tag": fe.Tag, "message": fe.Message}
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return &models.APIError{
		Code:    CodeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]any{"fields": fields},
	}
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		registerCustom(validate)
	})
	return validate
}

// ValidateStruct returns nil when s passes its validate tags.
func ValidateStruct(s any) Errors {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}
	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Value: fe.Value(), Message: message(fe)}
	}
	return out
}

var messages = map[string]string{
	"required":    "%s is required",
	"username":    "%s must be a plain user name",
	"fiscalmonth": "%s must be -2 or between 0 and 11",
	"monthlabel":  "%s must be a month name (jan..dec, or dec<year>)",
	"min":         "%s must be at least %s",
	"max":         "%s must be at most %s",
}

func message(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(tmpl, fe.Field())
}

var monthLabelPattern = regexp.MustCompile(`^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|dec[0-9]{4})$`)

// registerCustom adds the domain tags:
//   - username: a name the document store accepts, without whitespace
//   - fiscalmonth: -2 (December of the previous year) or 0..11
//   - monthlabel: a monthly bucket name, jan..dec or dec<year>
func registerCustom(v *validator.Validate) {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return store.ValidateName(name) == nil && !strings.ContainsAny(name, " \t\r\n") && len(name) <= 128
	})
	_ = v.RegisterValidation("fiscalmonth", func(fl validator.FieldLevel) bool {
		return fiscal.ValidMonth(int(fl.Field().Int()))
	})
	_ = v.RegisterValidation("monthlabel", func(fl validator.FieldLevel) bool {
		return monthLabelPattern.MatchString(fl.Field().String())
	})
}
