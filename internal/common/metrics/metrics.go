// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_collected_total",
			Help: "Total number of demand signals collected per source",
		},
		[]string{"source", "status"},
	)

	ConnectorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "connector_request_duration_seconds",
			Help: "Duration of connector fetches in seconds",
		},
		[]string{"source"},
	)

	ConnectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_failures_total",
			Help: "Total number of connector failures per source",
		},
		[]string{"source", "error_code"},
	)

	IdeasScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideas_scored_total",
			Help: "Total number of ideas scored",
		},
		[]string{"status"},
	)

	RankingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_runs_total",
			Help: "Total number of ranking recomputations",
		},
		[]string{"status"},
	)

	CollectionRunsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collection_runs_active",
			Help: "Number of in-flight signal collection runs",
		},
		[]string{"source"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)
)
