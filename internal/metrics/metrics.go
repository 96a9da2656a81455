// Package metrics exports dashboard instrumentation to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jembatan"

// Modes reported by the mode gauge.
var modes = []string{"remote", "local"}

// Metrics implements the dashboard observer.
type Metrics struct {
	records      prometheus.Gauge
	markers      prometheus.Gauge
	replacements prometheus.Counter
	snapshots    *prometheus.CounterVec
	mode         *prometheus.GaugeVec
	gatherer     prometheus.Gatherer
}

// New registers every collector on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Bridge records in the repository.",
		}),
		markers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers",
			Help:      "Markers placed by the last full render.",
		}),
		replacements: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replacements_total",
			Help:      "Repository replacements.",
		}),
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Local snapshot writes by result.",
		}, []string{"result"}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "Active persistence mode (1 for the active one).",
		}, []string{"mode"}),
		gatherer: reg,
	}
}

// Replaced records a repository replacement.
func (m *Metrics) Replaced(mode string, records, markers int) {
	m.records.Set(float64(records))
	m.markers.Set(float64(markers))
	m.replacements.Inc()
	for _, name := range modes {
		v := 0.0
		if name == mode {
			v = 1
		}
		m.mode.WithLabelValues(name).Set(v)
	}
}

// SnapshotSaved records a snapshot write.
func (m *Metrics) SnapshotSaved(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshots.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
