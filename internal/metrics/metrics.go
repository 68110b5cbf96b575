package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ran_vbsp_connected_stations",
		Help: "Number of stations with an established protocol connection",
	})

	MessagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_vbsp_messages_received_total",
		Help: "Total number of decoded inbound messages by kind",
	}, []string{"kind"})

	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_vbsp_messages_sent_total",
		Help: "Total number of outbound messages queued by kind",
	}, []string{"kind"})

	MessagesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_vbsp_messages_dropped_total",
		Help: "Total number of inbound or outbound messages dropped by reason",
	}, []string{"reason"})

	ConnectionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_vbsp_connections_closed_total",
		Help: "Total number of closed protocol connections by reason",
	}, []string{"reason"})

	HandoversTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_handovers_total",
		Help: "Total number of handover commands sent by cause",
	}, []string{"cause"})

	HandoverPassSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ran_handover_pass_seconds",
		Help:    "Duration of one load balancing decision pass",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ran_events_total",
		Help: "Total number of controller events published by type and level",
	}, []string{"type", "level"})

	EventsPersistDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ran_events_persist_dropped_total",
		Help: "Total number of event log entries dropped because the persistence queue was full",
	})
)

// IncDropped records a dropped message with a concrete reason.
func IncDropped(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	MessagesDroppedTotal.WithLabelValues(reason).Inc()
}
