package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "instancebot"

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	interactions      *prometheus.CounterVec
	controlPlaneCalls *prometheus.CounterVec
	controlPlaneTime  *prometheus.HistogramVec
	gatherer          prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Interactions handled, by outcome.",
		}, []string{"outcome"}),
		controlPlaneCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_plane_calls_total",
			Help:      "Control plane calls, by operation and result.",
		}, []string{"operation", "result"}),
		controlPlaneTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "control_plane_call_duration_seconds",
			Help:      "Control plane call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		gatherer: reg,
	}
	reg.MustRegister(m.interactions, m.controlPlaneCalls, m.controlPlaneTime)
	return m
}

// ObserveInteraction counts one handled interaction.
func (m *Metrics) ObserveInteraction(outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(outcome).Inc()
}

// ObserveControlPlane records one control plane call.
func (m *Metrics) ObserveControlPlane(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.controlPlaneCalls.WithLabelValues(operation, result).Inc()
	m.controlPlaneTime.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// InteractionCounter exposes the interaction counter for tests.
func (m *Metrics) InteractionCounter() *prometheus.CounterVec {
	return m.interactions
}

// ControlPlaneCounter exposes the control plane counter for tests.
func (m *Metrics) ControlPlaneCounter() *prometheus.CounterVec {
	return m.controlPlaneCalls
}
