package metrics

import (
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// upstreamDurationBuckets covers backend call latencies. Conversation
// creation returns in well under a second; chat calls hold the
// connection open for the full answer stream.
var upstreamDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// UpstreamMetrics tracks calls against the backend.
//
// Metrics:
//   - {namespace}_upstream_requests_total: call count by endpoint, status
//   - {namespace}_upstream_request_duration_seconds: call duration histogram
//   - {namespace}_upstream_healthy: backend health gauge (1=healthy)
type UpstreamMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	healthy         prometheus.Gauge
}

// NewUpstreamMetrics creates and registers upstream metrics with the
// provided registry. The health gauge starts at 1; the client only
// reports unhealthy after consecutive failures.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of backend API calls by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of backend API calls in seconds",
				Buckets:   upstreamDurationBuckets,
			},
			[]string{"endpoint"},
		),

		healthy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_healthy",
				Help:      "Whether the backend is considered healthy (1=healthy, 0=unhealthy)",
			},
		),
	}

	um.healthy.Set(1)

	registry.MustRegister(
		um.requestsTotal,
		um.requestDuration,
		um.healthy,
	)

	return um
}

// RecordRequest records one backend call.
func (um *UpstreamMetrics) RecordRequest(endpoint, status string, duration time.Duration) {
	um.requestsTotal.WithLabelValues(endpoint, status).Inc()
	um.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// SetHealthy updates the backend health gauge.
func (um *UpstreamMetrics) SetHealthy(healthy bool) {
	if healthy {
		um.healthy.Set(1)
	} else {
		um.healthy.Set(0)
	}
}
