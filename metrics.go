package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "health"

// Evaluation scopes. ScopeDefault counts the service's own status checks;
// ScopeExplicit counts evaluations of caller-supplied names.
const (
	ScopeDefault  = "default"
	ScopeExplicit = "explicit"
)

// Metrics holds the collectors updated by Service on every evaluation.
type Metrics struct {
	registry *prometheus.Registry

	evaluations *prometheus.CounterVec
	uptime      prometheus.Gauge
	ready       prometheus.Gauge
}

// NewMetrics registers the health collectors, plus the Go runtime and
// process collectors, on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evaluations_total",
			Help:      "Total number of health evaluations by scope and resulting status.",
		}, []string{"scope", "status"}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime observed by the last evaluation.",
		}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "ready",
			Help:      "1 if the last readiness check passed, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		m.evaluations,
		m.uptime,
		m.ready,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveReport(scope string, r Report) {
	m.evaluations.WithLabelValues(scope, string(r.Status)).Inc()
	m.uptime.Set(r.Uptime)
}

func (m *Metrics) ObserveReadiness(ready bool, uptime float64) {
	if ready {
		m.ready.Set(1)
	} else {
		m.ready.Set(0)
	}
	m.uptime.Set(uptime)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
