// Package metrics provides Prometheus metrics export for the advisory
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports routing and agent metrics in Prometheus format. All
// record methods are safe on a nil receiver so metrics stay optional in
// tests.
type Exporter struct {
	registry *prometheus.Registry

	agentInvocations *prometheus.CounterVec
	routingFallbacks prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

// NewExporter creates an Exporter with its own registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		agentInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrigpt",
			Name:      "agent_invocations_total",
			Help:      "Number of agent invocations by agent and modality.",
		}, []string{"agent", "modality"}),
		routingFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrigpt",
			Name:      "routing_fallbacks_total",
			Help:      "Number of times agent selection fell back to the default agent.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agrigpt",
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency by modality.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"modality"}),
	}

	registry.MustRegister(e.agentInvocations, e.routingFallbacks, e.requestDuration)
	return e
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// RecordAgentInvocation counts one agent call.
func (e *Exporter) RecordAgentInvocation(agentName, modality string) {
	if e == nil {
		return
	}
	e.agentInvocations.WithLabelValues(agentName, modality).Inc()
}

// RecordRoutingFallback counts one selection fallback to the default agent.
func (e *Exporter) RecordRoutingFallback() {
	if e == nil {
		return
	}
	e.routingFallbacks.Inc()
}

// ObserveRequest records one end-to-end request duration.
func (e *Exporter) ObserveRequest(modality string, seconds float64) {
	if e == nil {
		return
	}
	e.requestDuration.WithLabelValues(modality).Observe(seconds)
}
