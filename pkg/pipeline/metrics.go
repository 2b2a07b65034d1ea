package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records ingestion outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ingestTotal    *prometheus.CounterVec
	duplicateTotal prometheus.Counter
	refineTotal    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "receiptscan",
				Subsystem: "pipeline",
				Name:      "ingest_total",
				Help:      "Receipts ingested by outcome.",
			},
			[]string{"status"},
		),
		duplicateTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "receiptscan",
				Subsystem: "pipeline",
				Name:      "duplicate_total",
				Help:      "Receipts flagged as near-duplicates of an earlier image.",
			},
		),
		refineTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "receiptscan",
				Subsystem: "pipeline",
				Name:      "refine_total",
				Help:      "Refiner calls by outcome.",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "receiptscan",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
	}
	reg.MustRegister(m.ingestTotal, m.duplicateTotal, m.refineTotal, m.stageDuration)
	return m
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) finish(status string, duplicate bool) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(status).Inc()
	if duplicate {
		m.duplicateTotal.Inc()
	}
}

func (m *Metrics) refined(status string) {
	if m == nil {
		return
	}
	m.refineTotal.WithLabelValues(status).Inc()
}
