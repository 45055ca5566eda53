// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	CacheHitsTotal       *prometheus.CounterVec
	CacheMissesTotal     *prometheus.CounterVec
	CacheEvictionsTotal  *prometheus.CounterVec
	ReindexRunsTotal     *prometheus.CounterVec
	RecordsWrittenTotal  *prometheus.CounterVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_search_queries_total",
				Help: "Total n-gram searches by document type and outcome (ok, zero_result, error).",
			},
			[]string{"document_type", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ngram_search_latency_seconds",
				Help:    "N-gram search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"document_type"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ngram_search_results_count",
				Help:    "Number of documents returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_cache_hits_total",
				Help: "Total cache hits by cache.",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_cache_misses_total",
				Help: "Total cache misses by cache.",
			},
			[]string{"cache"},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_cache_evictions_total",
				Help: "Total capacity evictions by cache.",
			},
			[]string{"cache"},
		),
		ReindexRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_reindex_runs_total",
				Help: "Validation runs by document type and outcome (consistent, regenerated, failed).",
			},
			[]string{"document_type", "outcome"},
		),
		RecordsWrittenTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_records_written_total",
				Help: "N-gram records written by regeneration.",
			},
			[]string{"document_type"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEvictionsTotal,
		m.ReindexRunsTotal,
		m.RecordsWrittenTotal,
	)

	return m
}

func (m *Metrics) CacheHit(name string)      { m.CacheHitsTotal.WithLabelValues(name).Inc() }
func (m *Metrics) CacheMiss(name string)     { m.CacheMissesTotal.WithLabelValues(name).Inc() }
func (m *Metrics) CacheEviction(name string) { m.CacheEvictionsTotal.WithLabelValues(name).Inc() }

// ObserveSearch records one search of documentType. outcome is "ok",
// "zero_result" or "error".
func (m *Metrics) ObserveSearch(documentType, outcome string, seconds float64, results int) {
	m.SearchQueriesTotal.WithLabelValues(documentType, outcome).Inc()
	m.SearchLatency.WithLabelValues(documentType).Observe(seconds)
	if outcome != "error" {
		m.SearchResultsCount.Observe(float64(results))
	}
}

// ReindexRun counts one validation run of documentType.
func (m *Metrics) ReindexRun(documentType, outcome string) {
	m.ReindexRunsTotal.WithLabelValues(documentType, outcome).Inc()
}

// RecordsWritten adds n regenerated records for documentType.
func (m *Metrics) RecordsWritten(documentType string, n int) {
	m.RecordsWrittenTotal.WithLabelValues(documentType).Add(float64(n))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
