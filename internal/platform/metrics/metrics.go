package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// safe to call so unit tests can pass nil without touching the default
// registry.
type Metrics struct {
	Logins             *prometheus.CounterVec
	ConsentsConfirmed  prometheus.Counter
	InteractionsAbort  prometheus.Counter
	CodesIssued        prometheus.Counter
	InteractionLatency prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		ConsentsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_consents_confirmed_total",
			Help: "Consent confirmations submitted to the engine",
		}),
		InteractionsAbort: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_interactions_aborted_total",
			Help: "Interactions aborted by the end user",
		}),
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_codes_issued_total",
			Help: "Authorization codes minted through the direct issuance path",
		}),
		InteractionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parley_interaction_request_duration_ms",
			Help:    "Latency of interaction HTTP requests in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// RecordLogin counts a login attempt with the given outcome label.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// RecordConsentConfirmed counts a submitted consent confirmation.
func (m *Metrics) RecordConsentConfirmed() {
	if m == nil {
		return
	}
	m.ConsentsConfirmed.Inc()
}

// RecordAbort counts an aborted interaction.
func (m *Metrics) RecordAbort() {
	if m == nil {
		return
	}
	m.InteractionsAbort.Inc()
}

// RecordCodeIssued counts a directly issued authorization code.
func (m *Metrics) RecordCodeIssued() {
	if m == nil {
		return
	}
	m.CodesIssued.Inc()
}

// ObserveInteractionLatency records the duration of an interaction request.
func (m *Metrics) ObserveInteractionLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.InteractionLatency.Observe(float64(d.Microseconds()) / 1000.0)
}
