// Package metrics exposes Prometheus instrumentation for the presence hub:
// session and roster gauges plus counters for inbound events and fan-out
// deliveries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sessions tracks transport-registered sessions, joined or not.
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_sessions",
		Help: "Current number of connected sessions",
	})

	// RosterSize tracks sessions that completed a join.
	RosterSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_roster_size",
		Help: "Current number of joined sessions in the roster",
	})

	// InboundEvents counts events processed by the hub, labeled by kind.
	InboundEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_inbound_events_total",
		Help: "Total number of inbound events processed by the hub",
	}, []string{"kind"})

	// Deliveries counts outbound events enqueued to sessions, labeled by event.
	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_deliveries_total",
		Help: "Total number of outbound events enqueued to sessions",
	}, []string{"event"})

	// DroppedDeliveries counts outbound events dropped on a full session buffer.
	DroppedDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presence_dropped_deliveries_total",
		Help: "Total number of outbound events dropped for slow sessions",
	})
)

func init() {
	prometheus.MustRegister(
		Sessions,
		RosterSize,
		InboundEvents,
		Deliveries,
		DroppedDeliveries,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
