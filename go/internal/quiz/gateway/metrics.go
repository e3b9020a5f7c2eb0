package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the relay's prometheus collectors
type Metrics struct {
	connections   prometheus.Gauge
	sessions      prometheus.Gauge
	relayed       *prometheus.CounterVec
	dropped       prometheus.Counter
	slowConsumers prometheus.Counter
	recorded      *prometheus.CounterVec
}

// NewMetrics registers the relay collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "sessions",
			Help:      "Sessions with at least one open connection.",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "messages_relayed_total",
			Help:      "Frames delivered to a peer connection, by event type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "messages_dropped_total",
			Help:      "Frames dropped because the relay queue was full.",
		}),
		slowConsumers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "slow_consumers_total",
			Help:      "Connections closed because their send buffer was full.",
		}),
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tunequiz",
			Subsystem: "relay",
			Name:      "results_recorded_total",
			Help:      "Session completions forwarded to the results recorder.",
		}, []string{"status"}),
	}

	reg.MustRegister(m.connections, m.sessions, m.relayed, m.dropped, m.slowConsumers, m.recorded)
	return m
}
