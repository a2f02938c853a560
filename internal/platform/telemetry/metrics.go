// Package telemetry exposes Prometheus metrics for the import engine.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RowsProcessed *prometheus.CounterVec
	RowDuration   prometheus.Histogram

	EncountersPosted   prometheus.Counter
	EnrollmentsCreated prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics builds an import metrics set on its own registry so concurrent
// test instances do not collide on the global default registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emrflow",
			Subsystem: "import",
			Name:      "rows_processed_total",
			Help:      "Rows processed by terminal outcome.",
		}, []string{"outcome"}),

		RowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emrflow",
			Subsystem: "import",
			Name:      "row_duration_seconds",
			Help:      "Per-row processing latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),

		EncountersPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emrflow",
			Subsystem: "import",
			Name:      "encounters_posted_total",
			Help:      "Encounter transactions durably posted.",
		}),

		EnrollmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emrflow",
			Subsystem: "import",
			Name:      "enrollments_created_total",
			Help:      "Program enrollments durably created.",
		}),

		registry: reg,
	}

	reg.MustRegister(m.RowsProcessed, m.RowDuration, m.EncountersPosted, m.EnrollmentsCreated)
	return m
}

// Handler serves the metrics in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
