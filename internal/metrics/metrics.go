// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package metrics provides Prometheus metrics collection for Tunedeck.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode"},
	)

	RecommendCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates_returned",
			Help:    "Number of candidates returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"mode"},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_strategy_failures_total",
			Help: "Collaborator failures absorbed at the strategy boundary",
		},
		[]string{"strategy"},
	)

	// History Metrics

	PlaysRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_plays_recorded_total",
			Help: "Total number of listening events recorded",
		},
	)

	// Catalog Collaborator Metrics

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total catalog collaborator requests by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success, failure, rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Snapshot Metrics

	SnapshotOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_operations_total",
			Help: "Corpus snapshot load/save operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)
