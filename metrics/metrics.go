package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "messenger_bot"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics holds the webhook and Send API instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	VerificationsTotal *prometheus.CounterVec
	EventsTotal        *prometheus.CounterVec
	SendTotal          *prometheus.CounterVec
	SendDuration       prometheus.Histogram
}

// New creates and registers the bot metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VerificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "verifications_total",
			Help:      "Webhook subscription handshakes by result.",
		}, []string{"result"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Inbound messaging events by kind.",
		}, []string{"kind"}),
		SendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "send_api",
			Name:      "requests_total",
			Help:      "Outbound Send API calls by outcome.",
		}, []string{"outcome"}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "send_api",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound Send API calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.VerificationsTotal, m.EventsTotal, m.SendTotal, m.SendDuration)
	return m
}

func (m *Metrics) RecordVerification(result string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// RecordSend counts one Send API call and observes its latency.
func (m *Metrics) RecordSend(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.SendTotal.WithLabelValues(outcome).Inc()
	m.SendDuration.Observe(seconds)
}
