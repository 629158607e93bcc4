package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"ucp-debugger/internal/domain"
)

type Metrics struct {
	registry            *prometheus.Registry
	Observers           prometheus.Gauge
	EventsPublished     prometheus.Counter
	ObserverDrops       prometheus.Counter
	MessagesTotal       *prometheus.CounterVec
	CorrelationMisses   *prometheus.CounterVec
	WebhookDeliveries   *prometheus.CounterVec
	OutboundCallSeconds *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		Observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ucp_debugger",
			Name:      "observers",
			Help:      "Number of attached live observers",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ucp_debugger",
			Name:      "events_published_total",
			Help:      "Total events published to live observers",
		}),
		ObserverDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ucp_debugger",
			Name:      "observer_drops_total",
			Help:      "Observers detached because their sink was no longer writable",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ucp_debugger",
			Name:      "messages_total",
			Help:      "Correlated messages recorded by type",
		}, []string{"type"}),
		CorrelationMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ucp_debugger",
			Name:      "correlation_misses_total",
			Help:      "Responses that could not be matched, by what was missing",
		}, []string{"kind"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ucp_debugger",
			Name:      "webhook_deliveries_total",
			Help:      "Inbound webhook deliveries by ack status",
		}, []string{"status"}),
		OutboundCallSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ucp_debugger",
			Name:      "outbound_call_seconds",
			Help:      "Outbound UCP call latency by action",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	r.MustRegister(m.Observers, m.EventsPublished, m.ObserverDrops, m.MessagesTotal, m.CorrelationMisses, m.WebhookDeliveries, m.OutboundCallSeconds)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// live.Stats

func (m *Metrics) ObserversChanged(n int) { m.Observers.Set(float64(n)) }
func (m *Metrics) EventPublished()        { m.EventsPublished.Inc() }
func (m *Metrics) ObserverDropped()       { m.ObserverDrops.Inc() }

// usecase.Recorder

func (m *Metrics) MessageRecorded(t domain.MessageType) {
	m.MessagesTotal.WithLabelValues(string(t)).Inc()
}
func (m *Metrics) CorrelationMiss(kind string) { m.CorrelationMisses.WithLabelValues(kind).Inc() }
