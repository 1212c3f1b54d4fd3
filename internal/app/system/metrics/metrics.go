// Package metrics holds the Prometheus collectors for the record store,
// the notification broadcaster, webhook ingress and bulk runs.
//
// All methods are safe to call on a nil *Metrics, so components accept an
// optional instance and tests can pass nil.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rosterhub"

// Metrics is the set of collectors registered by New.
type Metrics struct {
	registry *prometheus.Registry

	backendAttempts *prometheus.CounterVec
	subscribers     prometheus.Gauge
	broadcasts      *prometheus.CounterVec
	dropped         prometheus.Counter
	webhooks        *prometheus.CounterVec
	bulkRows        *prometheus.CounterVec
}

// New creates and registers the collectors on a fresh registry that also
// carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		backendAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_attempts_total",
			Help:      "Record store backend attempts by strategy, operation and outcome.",
		}, []string{"strategy", "op", "outcome"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Currently registered notification subscribers.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Notifications broadcast, by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers removed after a failed push.",
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		bulkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_rows_total",
			Help:      "Bulk rows processed by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.backendAttempts,
		m.subscribers,
		m.broadcasts,
		m.dropped,
		m.webhooks,
		m.bulkRows,
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// BackendAttempt records one strategy call. outcome is "ok", "unavailable"
// or "error".
func (m *Metrics) BackendAttempt(strategy, op, outcome string) {
	if m == nil {
		return
	}
	m.backendAttempts.WithLabelValues(strategy, op, outcome).Inc()
}

// SetSubscribers sets the current subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// Broadcast counts one notification fan-out.
func (m *Metrics) Broadcast(kind string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(kind).Inc()
}

// SubscriberDropped counts a subscriber removed after a failed push.
func (m *Metrics) SubscriberDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Webhook counts one delivery by outcome ("accepted", "unauthorized",
// "invalid", "error").
func (m *Metrics) Webhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

// BulkRow counts one processed bulk row.
func (m *Metrics) BulkRow(op, outcome string) {
	if m == nil {
		return
	}
	m.bulkRows.WithLabelValues(op, outcome).Inc()
}
