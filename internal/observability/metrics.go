// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbarangay_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreOperations counts slot reads and writes by backend, operation and outcome.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbarangay_store_operations_total",
		Help: "Total number of slot store operations",
	}, []string{"backend", "operation", "outcome"})

	// FeedMutations counts applied feed mutations by kind.
	FeedMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbarangay_feed_mutations_total",
		Help: "Total number of feed mutations applied",
	}, []string{"mutation"})

	// FeedEventsDropped counts change events dropped because a subscriber was not keeping up.
	FeedEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbarangay_feed_events_dropped_total",
		Help: "Total number of feed change events dropped due to backpressure",
	}, []string{"subscriber", "reason"})

	// ReportsAPIRequests counts calls to the reports API by endpoint and outcome.
	ReportsAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbarangay_reports_api_requests_total",
		Help: "Total number of reports API requests",
	}, []string{"endpoint", "outcome"})

	// ReportsAPILatency records reports API latency by endpoint.
	ReportsAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartbarangay_reports_api_latency_seconds",
		Help:    "Reports API latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// WebSocketConnectionsTotal is the gauge of open feed websocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smartbarangay_websocket_connections_total",
		Help: "Total number of active feed WebSocket connections",
	})
)

// TrackReportsCall returns a function that records latency and outcome when called (e.g. defer).
func TrackReportsCall(endpoint string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		ReportsAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil && *err != nil {
			outcome = "error"
		}
		ReportsAPIRequests.WithLabelValues(endpoint, outcome).Inc()
	}
}
