// Package metrics registers the Prometheus collectors of the transport service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_ingestion_runs_total",
			Help: "Ingestion runs by final status",
		},
		[]string{"trigger", "status"},
	)

	IngestionBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_ingestion_batches_total",
			Help: "Batch insert attempts by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	IngestionRecordsAttempted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transport_ingestion_records_attempted_total",
			Help: "Records handed to the batch persister",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transport_ingestion_batch_duration_seconds",
			Help:    "Duration of one batch insert",
			Buckets: prometheus.DefBuckets,
		},
	)

	// External API
	ExternalFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transport_external_fetch_duration_seconds",
			Help:    "Duration of ETUP API requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transport_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Queries
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transport_query_duration_seconds",
			Help:    "Duration of storage reads",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"key", "result"}, // "hit", "miss", "error"
	)

	// Live updates
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transport_websocket_clients",
			Help: "Connected ingestion event subscribers",
		},
	)
)
