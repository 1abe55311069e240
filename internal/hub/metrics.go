package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crewline",
		Subsystem: "gateway",
		Name:      "connections",
		Help:      "Currently registered websocket connections.",
	})
	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crewline",
		Subsystem: "gateway",
		Name:      "rooms",
		Help:      "Rooms with at least one member.",
	})
	metricEventsIn = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crewline",
		Subsystem: "gateway",
		Name:      "events_in_total",
		Help:      "Inbound events accepted from clients.",
	})
	metricEventsOut = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crewline",
		Subsystem: "gateway",
		Name:      "events_out_total",
		Help:      "Events delivered to client egress queues.",
	})
)
