// Package metrics exposes the Prometheus counters and histograms the
// populator loop, the enumerator driver, and the HTTP API update as they
// run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Populate outcomes ============

// PopulateOutcomes counts each venue's populate cycles by outcome: "ok",
// "timeout", "exchange_error", "other".
var PopulateOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "populate",
		Name:      "outcomes_total",
		Help:      "Populate cycle outcomes per venue",
	},
	[]string{"venue", "outcome"},
)

// PopulateDuration tracks how long one venue's populate call takes,
// end to end (load_markets + ingestion).
var PopulateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "populate",
		Name:      "duration_seconds",
		Help:      "Time to complete one populate cycle for a venue",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"venue"},
)

// ============ Enumerator ============

// EnumeratorDuration tracks one BestRoundtrips run's wall-clock cost.
var EnumeratorDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "enumerator",
		Name:      "run_duration_seconds",
		Help:      "Time to run one roundtrip enumeration pass",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
)

// CandidatesFound counts every chain the enumerator returned, before the
// threshold filter.
var CandidatesFound = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "enumerator",
		Name:      "candidates_found_total",
		Help:      "Total chains returned by the enumerator",
	},
)

// CandidatesAboveThreshold counts chains that survived the driver's
// arbitrage_threshold_pcent filter.
var CandidatesAboveThreshold = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "enumerator",
		Name:      "candidates_above_threshold_total",
		Help:      "Chains whose profitability cleared the configured threshold",
	},
)

// ============ HTTP API ============

// HTTPRequestDuration tracks request latency for the control-plane API
// (blacklist/settings/pairs), labeled by route and status so a slow PATCH
// /settings is distinguishable from a slow GET /pairs/diffs.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// HTTPPanicsRecovered counts panics the recovery middleware caught, by
// route, so a handler that started crashing shows up next to the rest of
// the populate/enumerator health signals instead of only in logs.
var HTTPPanicsRecovered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Panics caught by the HTTP recovery middleware, by route",
	},
	[]string{"route"},
)
