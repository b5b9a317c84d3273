package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	RunsActive  prometheus.Gauge

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Subscriber metrics
	SubscribersActive    prometheus.Gauge
	SubscribersTotal     prometheus.Counter
	PublishedLinesTotal  prometheus.Counter
	DroppedPublishsTotal prometheus.Counter
}

// New creates and registers all metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent runs by terminal status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		RunsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agent_runs_active",
				Help: "Number of agent runs currently in flight",
			},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),

		SubscribersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "log_subscribers_active",
				Help: "Number of connected log subscribers",
			},
		),
		SubscribersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "log_subscribers_total",
				Help: "Total number of log subscriber connections",
			},
		),
		PublishedLinesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "published_lines_total",
				Help: "Total number of progress lines delivered to subscribers",
			},
		),
		DroppedPublishsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dropped_publishes_total",
				Help: "Total number of progress lines dropped with no live subscriber",
			},
		),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunsActive,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.SubscribersActive,
		m.SubscribersTotal,
		m.PublishedLinesTotal,
		m.DroppedPublishsTotal,
	)

	return m
}

// ObserveToolExecution records one tool execution outcome
func (m *Metrics) ObserveToolExecution(name, status string, duration time.Duration) {
	m.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RunStarted marks an agent run as in flight
func (m *Metrics) RunStarted() {
	m.RunsActive.Inc()
}

// RunFinished records one finished agent run
func (m *Metrics) RunFinished(status string, duration time.Duration) {
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// ObserveSubscribe records a new log subscriber
func (m *Metrics) ObserveSubscribe() {
	m.SubscribersActive.Inc()
	m.SubscribersTotal.Inc()
}

// ObserveUnsubscribe records a departed log subscriber
func (m *Metrics) ObserveUnsubscribe() {
	m.SubscribersActive.Dec()
}

// ObservePublish records one published progress line
func (m *Metrics) ObservePublish(delivered bool) {
	if delivered {
		m.PublishedLinesTotal.Inc()
	} else {
		m.DroppedPublishsTotal.Inc()
	}
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
