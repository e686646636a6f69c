// Package observability holds the Prometheus metrics and Sentry reporting
// shared by the pipeline, the adapters and the HTTP layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibelens_pipeline_runs_total",
			Help: "Finished recommendation runs by outcome, failing stage and failure kind",
		},
		[]string{"outcome", "stage", "kind"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibelens_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibelens_persistence_failures_total",
			Help: "Recommendations that could not be saved",
		},
	)

	SpotifyTokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibelens_spotify_token_exchanges_total",
			Help: "Spotify client-credentials token exchanges by outcome",
		},
		[]string{"outcome"},
	)

	SpotifyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibelens_spotify_requests_total",
			Help: "Spotify API requests by endpoint and status class",
		},
		[]string{"endpoint", "status"},
	)

	PreviewJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibelens_preview_jobs_total",
			Help: "Preview analysis jobs by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibelens_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
