// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by method, route pattern and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "danzastock_http_requests_total",
		Help: "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "route", "status"})

	// RequestDuration observes API request latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "danzastock_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// StoreOperations counts document store mutations by operation and outcome.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "danzastock_store_operations_total",
		Help: "Document store operations, by operation and outcome.",
	}, []string{"op", "outcome"})

	// StreamClients tracks currently connected snapshot stream subscribers.
	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "danzastock_stream_clients",
		Help: "Connected SSE snapshot subscribers.",
	})
)

// ObserveStoreOp records a store mutation outcome.
func ObserveStoreOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOperations.WithLabelValues(op, outcome).Inc()
}
