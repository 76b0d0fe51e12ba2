// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package metrics exposes Prometheus instrumentation for catalog API calls,
// reconciliation outcomes, ledger cycles, and circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog API metrics
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_request_errors_total",
			Help: "Total number of failed catalog API requests",
		},
		[]string{"operation"},
	)

	// Reconciliation metrics
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Total number of collection reconciliation runs",
		},
		[]string{"collection", "outcome"}, // outcome: "success", "partial", "failed"
	)

	ReconcileItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_items_total",
			Help: "Per-item reconciliation actions",
		},
		[]string{"action"}, // "added", "removed", "moved", "skipped"
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of a full collection reconciliation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// Hub pinning metrics
	HubPinFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_pin_failures_total",
			Help: "Total number of hub visibility or ordering failures",
		},
	)

	// Ledger metrics
	LedgerCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_cycles_total",
			Help: "Total number of candidate ledger scoring cycles",
		},
	)

	LedgerCandidates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_candidates",
			Help: "Candidate records after the most recent cycle",
		},
		[]string{"status"}, // "pending", "active"
	)

	LedgerEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_evictions_total",
			Help: "Total number of candidates evicted after decaying to zero",
		},
	)

	// Consolidator metrics
	CopiesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidator_copies_deleted_total",
			Help: "Total number of duplicate copies deleted (or would-delete in dry run)",
		},
		[]string{"dry_run"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

// ObserveCatalogRequest records the latency and outcome of one catalog call.
func ObserveCatalogRequest(operation string, start time.Time, err error) {
	CatalogRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		CatalogRequestErrors.WithLabelValues(operation).Inc()
	}
}
