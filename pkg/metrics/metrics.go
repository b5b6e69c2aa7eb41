// Package metrics defines the Prometheus metric collectors used by the
// search service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	PageRankIterations   prometheus.Histogram
	PageRankDuration     prometheus.Histogram
	HITSIterations       prometheus.Histogram
	HITSSubgraphNodes    prometheus.Histogram
	SnapshotReloadsTotal *prometheus.CounterVec
	SnapshotDocuments    prometheus.Gauge
	SnapshotGraphNodes   prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses
// the global default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
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
				Name: "search_queries_total",
				Help: "Total search queries by ranking mode and outcome (ok, zero_result, error).",
			},
			[]string{"mode", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds by ranking mode.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 2, 5, 10},
			},
			[]string{"mode"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		PageRankIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagerank_iterations",
				Help:    "Power iterations run per PageRank computation.",
				Buckets: prometheus.LinearBuckets(5, 5, 10),
			},
		),
		PageRankDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagerank_duration_seconds",
				Help:    "Wall time of a full-graph PageRank computation.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
		),
		HITSIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hits_iterations",
				Help:    "Iterations run per HITS computation.",
				Buckets: prometheus.LinearBuckets(2, 2, 10),
			},
		),
		HITSSubgraphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hits_subgraph_nodes",
				Help:    "Node count of the query subgraph handed to HITS.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		SnapshotReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_reloads_total",
				Help: "Snapshot reloads by status.",
			},
			[]string{"status"},
		),
		SnapshotDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_documents",
				Help: "Documents in the loaded corpus snapshot.",
			},
		),
		SnapshotGraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_graph_nodes",
				Help: "Nodes in the loaded link graph.",
			},
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
		m.PageRankIterations,
		m.PageRankDuration,
		m.HITSIterations,
		m.HITSSubgraphNodes,
		m.SnapshotReloadsTotal,
		m.SnapshotDocuments,
		m.SnapshotGraphNodes,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
