// Package metrics exposes Prometheus collectors for the swap execution flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decode results.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultTimeout = "timeout"
	ResultStale   = "stale"
)

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DecodeTotal      *prometheus.CounterVec
	DecodeDuration   prometheus.Histogram
	GateArmed        prometheus.Gauge
	ExecutionsTotal  *prometheus.CounterVec
	AssetsRegistered prometheus.Counter
	RegistryErrors   prometheus.Counter
}

// New creates collectors registered on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swapexec"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_total",
			Help:      "Swap decode attempts by result.",
		}, []string{"result"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent waiting on swap decodes.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}),
		GateArmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_armed",
			Help:      "1 when a valid swap is armed for execution.",
		}),
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Execution attempts by result.",
		}, []string{"result"}),
		AssetsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_registered_total",
			Help:      "Asset identifiers added to the registry.",
		}),
		RegistryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_errors_total",
			Help:      "Failed registry lookups or registrations.",
		}),
	}

	m.registry.MustRegister(
		m.DecodeTotal,
		m.DecodeDuration,
		m.GateArmed,
		m.ExecutionsTotal,
		m.AssetsRegistered,
		m.RegistryErrors,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDecode(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DecodeTotal.WithLabelValues(result).Inc()
	if result != ResultStale {
		m.DecodeDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SetArmed(armed bool) {
	if m == nil {
		return
	}
	if armed {
		m.GateArmed.Set(1)
		return
	}
	m.GateArmed.Set(0)
}

func (m *Metrics) ObserveExecution(result string) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AssetRegistered() {
	if m == nil {
		return
	}
	m.AssetsRegistered.Inc()
}

func (m *Metrics) RegistryError() {
	if m == nil {
		return
	}
	m.RegistryErrors.Inc()
}
