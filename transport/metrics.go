package transport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP surface and the
// workflow engine, grounded on hector's pkg/observability httpRequests /
// httpDuration pair but scoped to this module's own domain (workflow and
// agent execution counts rather than LLM/RAG telemetry).
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	workflowsStarted  *prometheus.CounterVec
	workflowsFinished *prometheus.CounterVec
	agentAttempts     *prometheus.CounterVec
	agentDuration     *prometheus.HistogramVec
}

// NewMetrics builds a fresh, self-contained Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskflow",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.workflowsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "workflow",
			Name:      "started_total",
			Help:      "Total number of workflow executions started.",
		},
		[]string{},
	)
	m.workflowsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "workflow",
			Name:      "finished_total",
			Help:      "Total number of workflow executions reaching a terminal status.",
		},
		[]string{"status"},
	)
	m.agentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "agent",
			Name:      "attempts_total",
			Help:      "Total number of agent execution attempts, by outcome.",
		},
		[]string{"agent_type", "status"},
	)
	m.agentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskflow",
			Subsystem: "agent",
			Name:      "duration_seconds",
			Help:      "Agent execution attempt duration in seconds, by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent_type", "status"},
	)

	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.workflowsStarted, m.workflowsFinished,
		m.agentAttempts, m.agentDuration,
	)
	return m
}

// RecordHTTPRequest records the outcome of one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordWorkflowStarted increments the started-workflows counter.
func (m *Metrics) RecordWorkflowStarted() {
	if m == nil {
		return
	}
	m.workflowsStarted.WithLabelValues().Inc()
}

// RecordWorkflowFinished increments the finished-workflows counter for status.
func (m *Metrics) RecordWorkflowFinished(status string) {
	if m == nil {
		return
	}
	m.workflowsFinished.WithLabelValues(status).Inc()
}

// RecordAgentAttempt increments the per-agent-type attempt counter and
// observes its duration. Satisfies engine.AttemptRecorder.
func (m *Metrics) RecordAgentAttempt(agentType, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.agentAttempts.WithLabelValues(agentType, status).Inc()
	m.agentDuration.WithLabelValues(agentType, status).Observe(durationSeconds)
}

// Handler exposes the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
