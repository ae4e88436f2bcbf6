// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/rpoengine/internal/filelock"
	"github.com/tomtom215/rpoengine/internal/rpo"
	"github.com/tomtom215/rpoengine/internal/store"
)

// Error codes.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeLockTimeout  = "LOCK_TIMEOUT"
	ErrCodeStorage      = "STORAGE_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeBadBody      = "INVALID_BODY"
	ErrCodeNotSupported = "NOT_SUPPORTED"
)

// classify maps an engine error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrInvalidName),
		errors.Is(err, rpo.ErrInvalidSlot),
		errors.Is(err, rpo.ErrUnknownMonth),
		errors.Is(err, rpo.ErrInvalidValue),
		errors.Is(err, rpo.ErrRoleMismatch):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, filelock.ErrLockTimeout):
		return http.StatusServiceUnavailable, ErrCodeLockTimeout
	case errors.Is(err, store.ErrIO):
		return http.StatusInternalServerError, ErrCodeStorage
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// respondEngineError writes the response for an engine error.
func respondEngineError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal error"
	}
	respondError(w, status, code, message, err)
}
