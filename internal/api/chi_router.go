// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires the handler into a Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware config uses the defaults.
func NewRouter(handler *Handler, config *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(config),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/rpo", func(r chi.Router) {
		r.Use(PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/sync", func(r chi.Router) {
			r.Post("/entrepreneurs/{username}", router.handler.SyncEntrepreneur)
			r.Post("/coaches/{username}", router.handler.SyncCoach)
			r.Post("/direction", router.handler.SyncDirection)
			r.With(router.chiMiddleware.RateLimitSync()).Post("/all", router.handler.SyncAll)
		})

		r.Route("/{username}", func(r chi.Router) {
			r.Get("/annual", router.handler.GetAnnual)
			r.Patch("/annual", router.handler.PatchAnnual)
			r.Get("/monthly", router.handler.GetAllMonthly)
			r.Get("/monthly/{month}", router.handler.GetMonthly)
			r.Patch("/monthly/{month}", router.handler.PatchMonthly)
			r.Get("/weekly/{month}", router.handler.GetMonth)
			r.Get("/weekly/{month}/{week}", router.handler.GetWeekly)
			r.Patch("/weekly/{month}/{week}", router.handler.PatchWeekly)
			r.Get("/etats-resultats/budget", router.handler.GetBudget)
			r.Put("/etats-resultats/budget", router.handler.PutBudget)
			r.Get("/etats-resultats/cible", router.handler.GetCible)
			r.Put("/etats-resultats/cible", router.handler.PutCible)
			r.Get("/badges", router.handler.Badges)
		})
	})

	return r
}
