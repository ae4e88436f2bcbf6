// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rpoengine/internal/models"
)

// Sync levels reported in SyncResult.
const (
	levelEntrepreneur = "entrepreneur"
	levelCoach        = "coach"
	levelDirection    = "direction"
)

// SyncEntrepreneur rebuilds one entrepreneur document.
func (h *Handler) SyncEntrepreneur(w http.ResponseWriter, r *http.Request) {
	h.syncUser(w, r, levelEntrepreneur, h.engine.SyncEntrepreneur)
}

// SyncCoach rebuilds one coach document.
func (h *Handler) SyncCoach(w http.ResponseWriter, r *http.Request) {
	h.syncUser(w, r, levelCoach, h.engine.SyncCoach)
}

func (h *Handler) syncUser(w http.ResponseWriter, r *http.Request, level string, sync func(ctx context.Context, username string) error) {
	start := time.Now()
	params := userParams{Username: chi.URLParam(r, "username")}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if err := sync(r.Context(), params.Username); err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, models.SyncResult{
		Level:    level,
		Target:   params.Username,
		Success:  true,
		Duration: time.Since(start).String(),
	})
}

// SyncDirection rebuilds the direction document.
func (h *Handler) SyncDirection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.engine.SyncDirection(r.Context()); err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, models.SyncResult{
		Level:    levelDirection,
		Target:   levelDirection,
		Success:  true,
		Duration: time.Since(start).String(),
	})
}

// SyncAll rebuilds every document bottom-up and returns the run report.
// Per-user failures are part of the report, not an error status.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.engine.SyncAll(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, report)
}
