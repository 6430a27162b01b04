// Package metrics exposes the tap's Prometheus metrics over HTTP.
// All metrics are defined in their respective packages (client, pagination,
// ratelimit, state, tap) to maintain modularity and avoid circular dependencies.
//
// This package provides the HTTP surface and the reference for all available metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the tap.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the metrics of the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServeMux returns a mux serving /metrics and /health.
func NewServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler)
	return mux
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - woo_requests_total{endpoint, status} (Counter): Requests by normalized endpoint and HTTP status
//   - woo_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - woo_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - woo_retries_total{error_class} (Counter): Retry attempts by error class
//   - woo_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - woo_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - woo_rate_limit_remaining (Gauge): Requests remaining in the store's window (-1 when unknown)
//   - woo_rate_limit_waits_total{reason} (Counter): Requests delayed (blocked, throttled)
//   - woo_rate_limit_wait_seconds_total (Counter): Time spent waiting for the window to reopen
//
// Pagination Metrics (pkg/pagination):
//   - woo_pages_fetched_total{stream} (Counter): Pages fetched
//   - woo_records_extracted_total{stream} (Counter): Records extracted from page bodies
//   - woo_pagination_loops_total{stream} (Counter): Pagination loops detected
//
// Sync Metrics (pkg/tap):
//   - woo_records_emitted_total{stream} (Counter): RECORD messages written
//   - woo_records_invalid_total{stream, reason} (Counter): Records emitted with validation problems
//   - woo_stream_syncs_total{stream, status} (Counter): Finished stream syncs (DONE, FAILED)
//   - woo_stream_sync_duration_seconds{stream} (Histogram): Stream sync duration including children
//
// State Metrics (pkg/state):
//   - woo_state_saves_total{backend} (Counter): State saves by backend (file, redis, memory)
//   - woo_state_errors_total{backend, operation} (Counter): Store errors by operation (load, save)
//   - woo_state_size_bytes{backend} (Gauge): Size of the last saved state document
//
// Example Prometheus Queries:
//
//   # Records per second by stream
//   sum by (stream) (rate(woo_records_emitted_total[5m]))
//
//   # Failed streams
//   woo_stream_syncs_total{status="FAILED"}
//
//   # Request Error Rate
//   rate(woo_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(woo_request_duration_seconds_bucket[5m]))
//
//   # Store close to throttling
//   woo_rate_limit_remaining >= 0 and woo_rate_limit_remaining < 10
package metrics
