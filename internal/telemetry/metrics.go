// Package telemetry wires Prometheus metrics and OpenTelemetry tracing for
// tool execution.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stagewright"

// Metrics holds the Prometheus collectors. It implements tool.Observer.
// Each Metrics owns its registry so tests can create as many as they like.
type Metrics struct {
	registry         *prometheus.Registry
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
	pendingProposals prometheus.Gauge
}

// NewMetrics creates and registers the collectors, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		pendingProposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_proposals",
			Help:      "Proposals awaiting operator review, as last counted by the reminder job.",
		}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.pendingProposals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveToolCall records one tool execution.
func (m *Metrics) ObserveToolCall(name, outcome string, elapsed time.Duration) {
	m.toolCalls.WithLabelValues(name, outcome).Inc()
	m.toolDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// SetPendingProposals updates the pending proposal gauge.
func (m *Metrics) SetPendingProposals(n int) {
	m.pendingProposals.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
