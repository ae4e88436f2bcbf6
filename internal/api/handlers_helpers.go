// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/validation"
)

// maxBodyBytes bounds PATCH and PUT bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response. Documents change on every sync, so
// responses are never cached.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope.
func respondData(w http.ResponseWriter, start time.Time, data interface{}) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// validateRequest validates a struct using go-playground/validator.
func validateRequest(v interface{}) *models.APIError {
	if errs := validation.ValidateStruct(v); errs != nil {
		return errs.APIError()
	}
	return nil
}

// respondValidation writes a 400 for a failed validation.
func respondValidation(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}

// userParams are the path parameters naming a document.
type userParams struct {
	Username string `validate:"required,username"`
}

// monthParams name a monthly bucket.
type monthParams struct {
	Username string `validate:"required,username"`
	Month    string `validate:"required,monthlabel"`
}

// fiscalMonthParams name the weeks of one fiscal month.
type fiscalMonthParams struct {
	Username string `validate:"required,username"`
	Month    int    `validate:"fiscalmonth"`
}

// weekParams name a week cell.
type weekParams struct {
	Username string `validate:"required,username"`
	Month    int    `validate:"fiscalmonth"`
	Week     int    `validate:"min=1,max=5"`
}

// pathInt parses an integer path parameter. Non-numeric values become a
// sentinel that fails validation.
func pathInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil {
		return -100
	}
	return v
}

// decodeBody decodes a JSON object body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadBody, "Request body too large or unreadable", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadBody, "Request body must be a JSON object", nil)
		return false
	}
	return true
}
