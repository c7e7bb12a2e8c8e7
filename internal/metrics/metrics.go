// Package metrics exposes engine counters and histograms to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the engine's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	builds      *prometheus.CounterVec
	memoHits    *prometheus.CounterVec
	activations *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	waves       prometheus.Histogram
	runDuration prometheus.Histogram
}

// New creates the collectors and registers them.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgrid_vertex_builds_total",
				Help: "Total number of output builds executed, by component.",
			},
			[]string{"component"},
		),
		memoHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgrid_memo_hits_total",
				Help: "Total number of outputs served from memoized results, by component.",
			},
			[]string{"component"},
		),
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgrid_activations_total",
				Help: "Total number of vertices re-queued by context key writes, by writing component.",
			},
			[]string{"component"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgrid_vertex_outcomes_total",
				Help: "Total number of vertex activations by final status.",
			},
			[]string{"status"},
		),
		waves: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowgrid_run_waves",
			Help:    "Number of propagation waves per run.",
			Buckets: []float64{1, 2, 3, 4, 8, 16, 32},
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowgrid_run_duration_seconds",
			Help:    "Duration of flow runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.builds, m.memoHits, m.activations, m.outcomes, m.waves, m.runDuration)
	return m
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Build(component string) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(component).Inc()
}

func (m *Metrics) MemoHit(component string) {
	if m == nil {
		return
	}
	m.memoHits.WithLabelValues(component).Inc()
}

// Activation counts n vertices re-queued by a write from a vertex of the
// given component type. Context keys are user data and are not labels.
func (m *Metrics) Activation(component string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.activations.WithLabelValues(component).Add(float64(n))
}

func (m *Metrics) Outcome(status string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status).Inc()
}

func (m *Metrics) Run(waves int, d time.Duration) {
	if m == nil {
		return
	}
	m.waves.Observe(float64(waves))
	m.runDuration.Observe(d.Seconds())
}
