// Package metrics holds the Prometheus collectors for ingestion runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values for IngestionRuns.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Cache result label values for SourceCache.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	IngestionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Per-source ingestion runs by final status",
		},
		[]string{"source", "status"},
	)

	IngestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestion_duration_seconds",
			Help:    "Per-source ingestion duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	KnowledgeBaseUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_base_upserts_total",
			Help: "Knowledge base entries written, by source",
		},
		[]string{"source"},
	)

	SourceFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_failures_total",
			Help: "Failed upstream calls, by source and call",
		},
		[]string{"source", "call"},
	)

	SourceCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_cache_total",
			Help: "Source response cache lookups, by source and result",
		},
		[]string{"source", "result"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			IngestionRuns,
			IngestionDuration,
			KnowledgeBaseUpserts,
			SourceFetchFailures,
			SourceCache,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records one finished per-source run.
func ObserveRun(source, status string, started time.Time) {
	IngestionRuns.WithLabelValues(source, status).Inc()
	IngestionDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

// RunStatus maps a run's (success, err) pair to a status label.
func RunStatus(success bool, err error) string {
	switch {
	case err != nil:
		return StatusError
	case success:
		return StatusSuccess
	default:
		return StatusFailure
	}
}
