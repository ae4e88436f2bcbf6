// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync levels.
const (
	LevelEntrepreneur = "entrepreneur"
	LevelCoach        = "coach"
	LevelDirection    = "direction"
)

var (
	// Sync Metrics
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpo_sync_duration_seconds",
			Help:    "Duration of RPO synchronizations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"level"},
	)

	SyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_sync_total",
			Help: "Total number of RPO synchronizations by outcome",
		},
		[]string{"level", "result"}, // result: success, lock_timeout, error
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rpo_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful synchronization",
		},
		[]string{"level"},
	)

	// Lock Metrics
	LockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpo_lock_wait_seconds",
			Help:    "Time spent acquiring document locks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		},
		[]string{"scope"},
	)

	LockTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_lock_timeouts_total",
			Help: "Total number of document lock acquisitions that timed out",
		},
		[]string{"scope"},
	)

	// Store Metrics
	StoreRecoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_store_recoveries_total",
			Help: "Documents recovered after a parse failure",
		},
		[]string{"source"}, // tmp, default
	)

	StoreSaveRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rpo_store_save_retries_total",
			Help: "Rename retries while saving documents",
		},
	)

	StoreSaveFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rpo_store_save_fallbacks_total",
			Help: "Saves that fell back to writing the canonical file directly",
		},
	)

	// Event Reader Metrics
	EventRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_event_records_skipped_total",
			Help: "Event records skipped because they were malformed or unreferenced",
		},
		[]string{"stream"},
	)

	// Cascade Metrics
	CascadeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_cascade_total",
			Help: "Cascade steps by kind and outcome",
		},
		[]string{"kind", "result"}, // kind: entrepreneur_synced, coach_synced
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rpo_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Gamification Metrics
	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_badges_awarded_total",
			Help: "Badges awarded after synchronization",
		},
		[]string{"badge"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpo_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpo_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Sync results.
const (
	ResultSuccess     = "success"
	ResultLockTimeout = "lock_timeout"
	ResultError       = "error"
)

// RecordSync records a synchronization outcome.
func RecordSync(level string, duration time.Duration, result string) {
	SyncDuration.WithLabelValues(level).Observe(duration.Seconds())
	SyncTotal.WithLabelValues(level, result).Inc()
	if result == ResultSuccess {
		SyncLastSuccess.WithLabelValues(level).Set(float64(time.Now().Unix()))
	}
}

// RecordLockWait records how long a lock acquisition took.
func RecordLockWait(scope string, d time.Duration) {
	LockWait.WithLabelValues(scope).Observe(d.Seconds())
}

// RecordLockTimeout counts a timed out lock acquisition.
func RecordLockTimeout(scope string) {
	LockTimeouts.WithLabelValues(scope).Inc()
}

// RecordRecovery counts a document recovered from source.
func RecordRecovery(source string) {
	StoreRecoveries.WithLabelValues(source).Inc()
}

// RecordSkippedRecord counts a skipped event record.
func RecordSkippedRecord(stream string) {
	EventRecordsSkipped.WithLabelValues(stream).Inc()
}

// RecordCascade records a cascade step.
func RecordCascade(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	CascadeTotal.WithLabelValues(kind, result).Inc()
}

// RecordBadge counts awarded badges.
func RecordBadge(badge string, count int) {
	BadgesAwarded.WithLabelValues(badge).Add(float64(count))
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change. state is
// 0 for closed, 1 for half-open and 2 for open.
func RecordBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
