package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "cipher"

// Metrics holds the prometheus collectors of the coordinator.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ordersStarted    prometheus.Counter
	ordersSettled    prometheus.Counter
	ordersHandedOff  prometheus.Counter
	submissionErrors *prometheus.CounterVec
	decryptPolls     *prometheus.CounterVec
	quoteRequests    *prometheus.CounterVec
	eventsDropped    prometheus.Counter
	streamConnected  prometheus.Gauge
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "orders_started_total",
			Help: "Orders accepted by the coordinator.",
		}),
		ordersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "orders_settled_total",
			Help: "Active orders that observed OrderSettled.",
		}),
		ordersHandedOff: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "orders_handed_off_total",
			Help: "Orders migrated to the ledger.",
		}),
		submissionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "submission_errors_total",
			Help: "Failed order submissions by kind.",
		}, []string{"kind"}),
		decryptPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "decrypt_polls_total",
			Help: "Decrypt status queries by result.",
		}, []string{"result"}),
		quoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "quote_requests_total",
			Help: "Quote requests by outcome.",
		}, []string{"outcome"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "events_dropped_total",
			Help: "Subscription events dropped because the inbox was full.",
		}),
		streamConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "stream_connected",
			Help: "1 while the log subscription is connected.",
		}),
	}

	m.registry.MustRegister(
		m.ordersStarted,
		m.ordersSettled,
		m.ordersHandedOff,
		m.submissionErrors,
		m.decryptPolls,
		m.quoteRequests,
		m.eventsDropped,
		m.streamConnected,
	)
	return m
}

// Registry exposes the underlying registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordOrderStarted() {
	if m == nil {
		return
	}
	m.ordersStarted.Inc()
}

func (m *Metrics) RecordOrderSettled() {
	if m == nil {
		return
	}
	m.ordersSettled.Inc()
}

func (m *Metrics) RecordHandoff() {
	if m == nil {
		return
	}
	m.ordersHandedOff.Inc()
}

// RecordSubmissionError counts a failed submission by kind (rejected, rpc, gas, reverted).
func (m *Metrics) RecordSubmissionError(kind string) {
	if m == nil {
		return
	}
	m.submissionErrors.WithLabelValues(kind).Inc()
}

// RecordDecryptPoll counts one poll by result (pending, decrypted, error).
func (m *Metrics) RecordDecryptPoll(result string) {
	if m == nil {
		return
	}
	m.decryptPolls.WithLabelValues(result).Inc()
}

// RecordQuote counts one quote request by outcome (ok, timeout, error).
func (m *Metrics) RecordQuote(outcome string) {
	if m == nil {
		return
	}
	m.quoteRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// SetStreamConnected sets the subscription connection gauge.
func (m *Metrics) SetStreamConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.streamConnected.Set(1)
	} else {
		m.streamConnected.Set(0)
	}
}
