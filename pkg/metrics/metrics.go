// Package metrics provides the Prometheus registry reference for the
// Salesforce REST client. The metrics themselves are defined next to the
// code they instrument (pkg/client) to avoid circular dependencies; this
// package documents them in one place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in pkg/client.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - force_requests_total{method, result} (Counter): Logical REST calls by method and result (ok/error)
//   - force_request_duration_seconds{method} (Histogram): Logical call duration by method
//   - force_errors_total{class} (Counter): Failed attempts by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - force_retries_total{error_class} (Counter): Retry attempts by error class
//   - force_retry_exhausted_total{error_class} (Counter): Logical calls that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(force_requests_total{result="error"}[5m]) / rate(force_requests_total[5m])
//
//   # Attempt Failure Rate by Class
//   rate(force_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(force_request_duration_seconds_bucket[5m]))
//
//   # Retry Exhaustion
//   rate(force_retry_exhausted_total[5m])
