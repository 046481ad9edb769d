/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for
// the sequence service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cadence_api_request_duration_seconds",
		Help:    "HTTP API request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cadence_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// SequenceRunsTotal counts generation runs by outcome
	// (ok, empty_pool, invalid_spec).
	SequenceRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_sequence_runs_total",
		Help: "Sequence generation runs by outcome.",
	}, []string{"outcome"})

	// SequenceRunDuration observes generation run latency.
	SequenceRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadence_sequence_run_duration_seconds",
		Help:    "Sequence generation run duration.",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	// SequenceDegradedPositions counts positions where the recency window
	// had to be relaxed. A growing value means recent_repeat_window is too
	// large for the pools operators are authoring against.
	SequenceDegradedPositions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_sequence_degraded_positions_total",
		Help: "Sequence positions emitted with a relaxed recency window.",
	})

	// SequencePoolSize observes resolved candidate pool sizes.
	SequencePoolSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadence_sequence_pool_size",
		Help:    "Resolved candidate pool size per generation run.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// DatabaseQueryDuration observes gorm operation latency.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cadence_db_query_duration_seconds",
		Help:    "Database operation duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts gorm operation errors.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_db_errors_total",
		Help: "Database operation errors.",
	}, []string{"operation", "table"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
