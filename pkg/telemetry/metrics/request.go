package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// requestDurationBuckets covers gateway request latencies. Aggregated
// requests wait for the whole upstream stream, so the range extends
// well past typical HTTP service buckets.
var requestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// RequestMetrics tracks the gateway-facing request metrics.
//
// Metrics:
//   - {namespace}_requests_total: request count by model, mode, status
//   - {namespace}_request_duration_seconds: request duration histogram
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the
// provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of chat completion requests processed",
			},
			[]string{"model", "mode", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of chat completion requests in seconds",
				Buckets:   requestDurationBuckets,
			},
			[]string{"model", "mode"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
	)

	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(model, mode, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(model, mode, status).Inc()
	rm.requestDuration.WithLabelValues(model, mode).Observe(duration.Seconds())
}
