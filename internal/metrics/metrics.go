// Package metrics exposes Prometheus instrumentation for the rebalancing
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all rebalancer metrics on a private Prometheus registry so
// independent instances never collide.
type Registry struct {
	registry *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec
	CycleErrors    prometheus.Counter
	CycleDuration  prometheus.Histogram
	MaxDrift       prometheus.Gauge
	MaxSectorDrift prometheus.Gauge
	RegimeActive   *prometheus.GaugeVec
	DecisionsTotal *prometheus.CounterVec
}

// New creates and registers all rebalancer metrics.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_cycles_total",
				Help: "Total rebalancing cycles by monitor status",
			},
			[]string{"status"},
		),
		CycleErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rebalancer_cycle_errors_total",
				Help: "Total cycles aborted by collaborator failures",
			},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rebalancer_cycle_duration_seconds",
				Help:    "Duration of a complete rebalancing cycle",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),
		MaxDrift: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rebalancer_max_position_drift",
				Help: "Maximum position drift from the latest assessment",
			},
		),
		MaxSectorDrift: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rebalancer_max_sector_drift",
				Help: "Maximum sector drift from the latest assessment",
			},
		),
		RegimeActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rebalancer_regime_active",
				Help: "1 for the currently classified market regime, 0 otherwise",
			},
			[]string{"regime"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_decisions_total",
				Help: "Total decisions by final status and scenario type",
			},
			[]string{"status", "scenario"},
		),
	}

	r.registry.MustRegister(
		r.CyclesTotal, r.CycleErrors, r.CycleDuration,
		r.MaxDrift, r.MaxSectorDrift, r.RegimeActive, r.DecisionsTotal,
	)

	return r
}

// SetRegime marks one regime as active and clears the others.
func (r *Registry) SetRegime(regime string) {
	for _, known := range []string{"LOW_VOL", "MODERATE", "HIGH_VOL", "CRISIS"} {
		val := 0.0
		if known == regime {
			val = 1.0
		}
		r.RegimeActive.WithLabelValues(known).Set(val)
	}
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GaugeValue reads back the current value of a gauge, used by health
// reporting and tests.
func GaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
