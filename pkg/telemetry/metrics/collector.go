package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus metrics for the gateway. It manages
// metric registration and provides a unified recording interface for
// the HTTP layer, the upstream client, and the journal.
//
// All recording methods are cheap no-ops when metrics are disabled, so
// callers never need to gate on configuration themselves.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Gateway-facing request metrics
	requestMetrics *RequestMetrics

	// Backend call metrics
	upstreamMetrics *UpstreamMetrics

	// Journal persistence metrics
	journalMetrics *JournalMetrics

	// Cardinality tracking for the model label
	cardinalityLimiter *CardinalityLimiter
}

// maxModelCardinality caps the number of unique request label sets. The
// model label echoes what clients sent, including names the catalog
// rejects, so it is attacker-controlled input.
const maxModelCardinality = 1000

// NewCollector creates a metrics collector backed by the given registry.
// If registry is nil a fresh one is created, keeping gateway metrics
// separate from anything registered globally.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(maxModelCardinality),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.journalMetrics = NewJournalMetrics(cfg, registry)

	return c
}

// RecordRequest records a completed chat completion request.
//
// model is the name the client requested, mode is "stream" or
// "aggregate", and status is "success", "error", or "rejected".
func (c *Collector) RecordRequest(model, mode, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("request:%s:%s:%s", model, mode, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate overflow into "other" so unknown model names cannot
		// grow the metric without bound.
		model = "other"
	}

	c.requestMetrics.RecordRequest(model, mode, status, duration)
}

// RecordUpstreamRequest records one call against the backend.
//
// endpoint is "create" or "chat"; status is the HTTP status code as a
// string, or "error" when no response was received.
func (c *Collector) RecordUpstreamRequest(endpoint, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordRequest(endpoint, status, duration)
}

// SetUpstreamHealthy updates the backend health gauge (1=healthy,
// 0=unhealthy).
func (c *Collector) SetUpstreamHealthy(healthy bool) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.SetHealthy(healthy)
}

// RecordJournalOutcome counts one journal record by what happened to it:
// "written", "dropped", or "failed".
func (c *Collector) RecordJournalOutcome(outcome string) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordOutcome(outcome)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the number of unique label combinations
// recorded for a metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter that admits at most
// maxCardinality distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether the label set may be recorded. Known label sets
// are always allowed; new ones are admitted until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
