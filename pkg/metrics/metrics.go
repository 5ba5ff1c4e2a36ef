// Package metrics provides Prometheus metrics for golivestepper.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transition results recorded by StepTransitions.
const (
	ResultAdvanced     = "advanced"
	ResultInvalid      = "invalid"
	ResultSubmitted    = "submitted"
	ResultSubmitFailed = "submit_failed"
	ResultBack         = "back"
	ResultPending      = "pending"
)

// Metrics holds all application metrics on a private registry.
type Metrics struct {
	// Sessions
	SessionsActive  prometheus.Gauge
	SessionsTotal   prometheus.Counter
	SessionsExpired prometheus.Counter

	// Connections
	ConnectionsActive *prometheus.GaugeVec

	// Events
	EventsTotal   *prometheus.CounterVec
	EventDuration *prometheus.HistogramVec

	// Wizard
	StepTransitions *prometheus.CounterVec
	SubmitDuration  prometheus.Histogram

	// Errors
	ErrorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers the metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total sessions created",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions removed after being idle",
		}),
		ConnectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open WebSocket connections by codec",
		}, []string{"codec"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Component events handled",
		}, []string{"event", "transport"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Event handling and render latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
		StepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_transitions_total",
			Help:      "Wizard transitions by step and result",
		}, []string{"step", "result"}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Duration of the terminal submit action",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by type",
		}, []string{"type"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.SessionsActive,
		m.SessionsTotal,
		m.SessionsExpired,
		m.ConnectionsActive,
		m.EventsTotal,
		m.EventDuration,
		m.StepTransitions,
		m.SubmitDuration,
		m.ErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTransition records one wizard transition. A nil receiver is a no-op.
func (m *Metrics) ObserveTransition(step, result string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(step, result).Inc()
}

// ObserveSubmit records the duration of a submit action.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(d.Seconds())
}

// ObserveEvent records a handled event and its latency.
func (m *Metrics) ObserveEvent(event, transport string, d time.Duration) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(event, transport).Inc()
	m.EventDuration.WithLabelValues(event).Observe(d.Seconds())
}

// RecordError increments the error counter for errType.
func (m *Metrics) RecordError(errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errType).Inc()
}

// Timer measures a duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
