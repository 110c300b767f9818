// Package metrics exposes Prometheus counters for action dispatch.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
)

// UnknownAction labels invocations of names the registry does not serve.
const UnknownAction = "unknown"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	invocations    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	derivations    prometheus.Counter
	activeSessions prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicebuddy_action_invocations_total",
				Help: "Total number of action invocations by outcome",
			},
			[]string{"action", "state"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voicebuddy_action_duration_seconds",
				Help:    "Duration of action invocations, including spoken confirmation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		derivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicebuddy_schema_derivations_total",
			Help: "Total number of schema derivations",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voicebuddy_active_sessions",
			Help: "Number of calls currently in progress",
		}),
	}
	m.registry.MustRegister(m.invocations, m.duration, m.derivations, m.activeSessions)
	return m
}

// ObserveInvocation implements actions.Observer.
func (m *Metrics) ObserveInvocation(inv actions.Invocation) {
	action := inv.Action
	if inv.Unknown {
		action = UnknownAction
	}
	m.invocations.WithLabelValues(action, string(inv.State)).Inc()
	m.duration.WithLabelValues(action).Observe(inv.Duration.Seconds())
}

// SchemaDerived counts one schema derivation.
func (m *Metrics) SchemaDerived() {
	m.derivations.Inc()
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	return r
}
