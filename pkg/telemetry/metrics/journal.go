package metrics

import (
	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// JournalMetrics tracks what happens to journal records.
//
// Metrics:
//   - {namespace}_journal_records_total: record count by outcome
//     ("written", "dropped" when the async queue is full, "failed"
//     when the store rejects the write)
type JournalMetrics struct {
	recordsTotal *prometheus.CounterVec
}

// NewJournalMetrics creates and registers journal metrics with the
// provided registry.
func NewJournalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JournalMetrics {
	jm := &JournalMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "journal_records_total",
				Help:      "Total number of journal records by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(jm.recordsTotal)

	return jm
}

// RecordOutcome counts one journal record.
func (jm *JournalMetrics) RecordOutcome(outcome string) {
	jm.recordsTotal.WithLabelValues(outcome).Inc()
}
