package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reason label values.
const (
	DropInvalidField     = "invalid_field"
	DropUnknownDevice    = "unknown_device"
	DropMalformedPayload = "malformed_payload"
	DropStoreUnavailable = "store_unavailable"
	DropQueueFull        = "queue_full"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// MessagesReceived counts transport messages by class (status, sensor).
	MessagesReceived *prometheus.CounterVec

	// Merges counts successful reading merges.
	Merges prometheus.Counter

	// Drops counts dropped messages by reason.
	Drops *prometheus.CounterVec

	// Broadcasts counts change notifications fanned out.
	Broadcasts prometheus.Counter

	// QueryDuration observes query service latency by grouping mode.
	QueryDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the
// standard Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquasense",
			Name:      "messages_received_total",
			Help:      "Transport messages received, by topic class.",
		}, []string{"class"}),
		Merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "aquasense",
			Name:      "merges_total",
			Help:      "Successful reading merges.",
		}),
		Drops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquasense",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped, by reason.",
		}, []string{"reason"}),
		Broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "aquasense",
			Name:      "broadcasts_total",
			Help:      "Change notifications broadcast to subscribers.",
		}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aquasense",
			Name:      "query_duration_seconds",
			Help:      "Query service latency, by grouping mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"group_by"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
