// Package metrics provides Prometheus metrics for indexing, search and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchQueriesTotal   *prometheus.CounterVec
	SearchQueryDuration  *prometheus.HistogramVec
	SearchResultsTotal   prometheus.Counter
	SearchSampleFallback prometheus.Counter

	// Indexing metrics
	IndexDocumentsTotal *prometheus.CounterVec
	IndexBatchesTotal   prometheus.Counter
	IndexBatchDuration  prometheus.Histogram
	DocumentsTotal      prometheus.Gauge
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	// HTTP request metrics
	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textsearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Search metrics
	m.SearchQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsearch_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"scope", "status"},
	)

	m.SearchQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textsearch_search_query_duration_seconds",
			Help:    "Duration of search queries including snippet extraction",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"scope"},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "textsearch_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.SearchSampleFallback = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "textsearch_search_sample_fallback_total",
			Help: "Results whose live file could not be read and were served from the indexed sample",
		},
	)

	// Indexing metrics
	m.IndexDocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsearch_index_documents_total",
			Help: "Total number of documents processed by the indexer",
		},
		[]string{"status"},
	)

	m.IndexBatchesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "textsearch_index_batches_total",
			Help: "Total number of committed index batches",
		},
	)

	m.IndexBatchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textsearch_index_batch_duration_seconds",
			Help:    "Duration of index batches from first read to commit",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.DocumentsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "textsearch_documents_total",
			Help: "Number of documents in the index",
		},
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSearch records a search with its result count.
func (m *Metrics) RecordSearch(scope string, results int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SearchQueriesTotal.WithLabelValues(scope, status).Inc()
	m.SearchQueryDuration.WithLabelValues(scope).Observe(duration.Seconds())
	m.SearchResultsTotal.Add(float64(results))
}

// RecordSampleFallback records a result served from its indexed sample.
func (m *Metrics) RecordSampleFallback() {
	if m == nil {
		return
	}
	m.SearchSampleFallback.Inc()
}

// RecordBatch records a committed index batch.
func (m *Metrics) RecordBatch(indexed, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.IndexBatchesTotal.Inc()
	m.IndexBatchDuration.Observe(duration.Seconds())
	m.IndexDocumentsTotal.WithLabelValues("indexed").Add(float64(indexed))
	m.IndexDocumentsTotal.WithLabelValues("failed").Add(float64(failed))
}

// SetDocumentCount updates the indexed document gauge.
func (m *Metrics) SetDocumentCount(n int) {
	if m == nil {
		return
	}
	m.DocumentsTotal.Set(float64(n))
}
