// Package metrics provides Prometheus metrics for the explorer backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fsOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flitz_fs_operations_total",
			Help: "Total number of file-system operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	fsOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flitz_fs_operation_duration_seconds",
			Help:    "File-system operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	listingEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flitz_listing_entries",
			Help:    "Number of entries returned per directory listing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flitz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flitz_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flitz_active_sessions",
			Help: "Number of open explorer websocket sessions",
		},
	)
)

// RecordOperation records the outcome and latency of one file-system operation.
func RecordOperation(op, outcome string, d time.Duration) {
	fsOperationsTotal.WithLabelValues(op, outcome).Inc()
	fsOperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordListing records how many entries a listing produced.
func RecordListing(n int) {
	listingEntries.Observe(float64(n))
}

// RecordHTTPRequest records one served HTTP request. route is the matched
// route pattern, not the raw path.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionClosed() {
	activeSessions.Dec()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
