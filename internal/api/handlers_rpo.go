// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// UpdateResult is returned by PATCH and PUT endpoints.
type UpdateResult struct {
	Username      string   `json:"username"`
	IgnoredFields []string `json:"ignored_fields"`
}

func newUpdateResult(username string, ignored []string) UpdateResult {
	if ignored == nil {
		ignored = []string{}
	}
	return UpdateResult{Username: username, IgnoredFields: ignored}
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	params := userParams{Username: chi.URLParam(r, "username")}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondValidation(w, apiErr)
		return "", false
	}
	return params.Username, true
}

func (h *Handler) month(w http.ResponseWriter, r *http.Request) (monthParams, bool) {
	params := monthParams{
		Username: chi.URLParam(r, "username"),
		Month:    chi.URLParam(r, "month"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondValidation(w, apiErr)
		return params, false
	}
	return params, true
}

func (h *Handler) week(w http.ResponseWriter, r *http.Request) (weekParams, bool) {
	params := weekParams{
		Username: chi.URLParam(r, "username"),
		Month:    pathInt(r, "month"),
		Week:     pathInt(r, "week"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondValidation(w, apiErr)
		return params, false
	}
	return params, true
}

// GetAnnual returns the annual section.
func (h *Handler) GetAnnual(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	annual, err := h.engine.GetAnnual(r.Context(), username)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, annual)
}

// PatchAnnual merges the body into the annual section.
func (h *Handler) PatchAnnual(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if !decodeBody(w, r, &partial) {
		return
	}
	ignored, err := h.engine.UpdateAnnual(r.Context(), username, partial)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, newUpdateResult(username, ignored))
}

// GetAllMonthly returns every monthly bucket keyed by label.
func (h *Handler) GetAllMonthly(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	buckets, err := h.engine.GetAllMonthly(r.Context(), username)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, buckets)
}

// GetMonthly returns one monthly bucket.
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, ok := h.month(w, r)
	if !ok {
		return
	}
	bucket, err := h.engine.GetMonthly(r.Context(), params.Username, params.Month)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, bucket)
}

// PatchMonthly merges the body into one monthly bucket.
func (h *Handler) PatchMonthly(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, ok := h.month(w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if !decodeBody(w, r, &partial) {
		return
	}
	ignored, err := h.engine.UpdateMonthly(r.Context(), params.Username, params.Month, partial)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, newUpdateResult(params.Username, ignored))
}

// GetMonth returns the five week cells of a fiscal month.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := fiscalMonthParams{
		Username: chi.URLParam(r, "username"),
		Month:    pathInt(r, "month"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	weeks, err := h.engine.GetMonth(r.Context(), params.Username, params.Month)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, weeks)
}

// GetWeekly returns one week cell.
func (h *Handler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, ok := h.week(w, r)
	if !ok {
		return
	}
	cell, err := h.engine.GetWeekly(r.Context(), params.Username, params.Month, params.Week)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, cell)
}

// PatchWeekly merges the body into one week cell. The engine recomputes
// the totals and cascades to the coach.
func (h *Handler) PatchWeekly(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, ok := h.week(w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if !decodeBody(w, r, &partial) {
		return
	}
	ignored, err := h.engine.UpdateWeekly(r.Context(), params.Username, params.Month, params.Week, partial)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, newUpdateResult(params.Username, ignored))
}

// GetBudget returns the P&L budget percentages.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	budget, err := h.engine.GetEtatsResultatsBudget(r.Context(), username)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, budget)
}

// PutBudget replaces the P&L budget percentages.
func (h *Handler) PutBudget(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	var budget map[string]float64
	if !decodeBody(w, r, &budget) {
		return
	}
	if err := h.engine.UpdateEtatsResultatsBudget(r.Context(), username, budget); err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, newUpdateResult(username, nil))
}

// GetCible returns the P&L target percentages, or the budget when no
// target is set.
func (h *Handler) GetCible(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	actuel, err := h.engine.GetEtatsResultatsActuel(r.Context(), username)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, actuel)
}

// PutCible replaces the P&L target percentages. An empty object is a no-op.
func (h *Handler) PutCible(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	var cible map[string]float64
	if !decodeBody(w, r, &cible) {
		return
	}
	if err := h.engine.UpdateEtatsResultatsCiblePercent(r.Context(), username, cible); err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, newUpdateResult(username, nil))
}

// Badges lists the badges awarded to a user.
func (h *Handler) Badges(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.user(w, r)
	if !ok {
		return
	}
	if h.badges == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotSupported, "Gamification is disabled", nil)
		return
	}
	counts, err := h.badges.Counts(r.Context(), username)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondData(w, start, counts)
}
