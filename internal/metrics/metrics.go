// Package metrics exposes Prometheus instruments for catalog traffic and fetch sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CatalogRequests counts HSDS requests by operation and outcome (ok or an error kind).
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firefly_catalog_requests_total",
			Help: "Total number of HSDS catalog requests",
		},
		[]string{"operation", "outcome"},
	)
	// CatalogLatency is the latency of HSDS requests.
	CatalogLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firefly_catalog_request_duration_seconds",
			Help:    "HSDS catalog request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	// Fetches counts fetch sessions by how they ended: completed, failed or superseded.
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firefly_fetch_sessions_total",
			Help: "Total number of fetch sessions",
		},
		[]string{"result"},
	)
	// RowsEnriched counts attribute enrichment results per row.
	RowsEnriched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firefly_rows_enriched_total",
			Help: "Total number of rows processed by attribute enrichment",
		},
		[]string{"result"},
	)
	// CacheLookups counts attribute cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firefly_attribute_cache_lookups_total",
			Help: "Total number of attribute cache lookups",
		},
		[]string{"result"},
	)
	// Watchers is the number of connected bridge watchers.
	Watchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firefly_bridge_watchers",
			Help: "Number of connected bridge watchers",
		},
	)
)

// ObserveRequest records one catalog request.
func ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if outcome == "" {
		outcome = "ok"
	}
	CatalogRequests.WithLabelValues(operation, outcome).Inc()
	CatalogLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
