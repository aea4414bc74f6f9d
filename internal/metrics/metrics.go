// Package metrics exposes operational counters. Recording failures are
// fire-and-forget by design, so these counters are the operator-facing
// signal that clicks or request logs are being lost.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	ClicksRecorded      prometheus.Counter
	ClickFailures       prometheus.Counter
	RequestsLogged      prometheus.Counter
	RequestLogFailures  prometheus.Counter
	RateLimitRejections prometheus.Counter
	PublishFailures     prometheus.Counter
}

// New creates and registers the service counters on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ClicksRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_clicks_recorded_total",
			Help: "Click events successfully written to the event store.",
		}),
		ClickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_click_failures_total",
			Help: "Click events dropped after a failed store write.",
		}),
		RequestsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_requests_logged_total",
			Help: "Request log entries successfully written to the event store.",
		}),
		RequestLogFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_request_log_failures_total",
			Help: "Request log entries dropped after a failed store write.",
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_rate_limit_rejections_total",
			Help: "Requests rejected with 429 by the rate limiter.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_publish_failures_total",
			Help: "Events that could not be handed to the dispatch bus.",
		}),
	}

	registry.MustRegister(
		m.ClicksRecorded,
		m.ClickFailures,
		m.RequestsLogged,
		m.RequestLogFailures,
		m.RateLimitRejections,
		m.PublishFailures,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
