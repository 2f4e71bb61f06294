// Package metrics counts what the session does, for /metrics on the gateway.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomes of an inbound envelope
const (
	Applied  = "applied"
	Ignored  = "ignored"
	Rejected = "rejected"
)

var (
	registerOnce sync.Once

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladders",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Connection state changes, by state entered.",
		},
		[]string{"state"},
	)
	connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ladders",
			Subsystem: "session",
			Name:      "connected",
			Help:      "1 while the transport is connected.",
		},
	)
	sendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladders",
			Subsystem: "session",
			Name:      "send_failures_total",
			Help:      "Outbound envelopes that were not delivered.",
		},
		[]string{"event", "reason"},
	)
	sent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladders",
			Subsystem: "protocol",
			Name:      "sent_total",
			Help:      "Outbound envelopes written to the transport.",
		},
		[]string{"event"},
	)
	received = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladders",
			Subsystem: "protocol",
			Name:      "received_total",
			Help:      "Inbound envelopes, by what the dispatcher did with them.",
		},
		[]string{"event", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transitions, connected, sendFailures, sent, received)
	})
}

func RecordTransition(state string, isConnected bool) {
	RegisterMetrics()
	transitions.WithLabelValues(state).Inc()
	if isConnected {
		connected.Set(1)
	} else {
		connected.Set(0)
	}
}

func RecordSendFailure(event, reason string) {
	RegisterMetrics()
	sendFailures.WithLabelValues(event, reason).Inc()
}

func RecordSent(event string) {
	RegisterMetrics()
	sent.WithLabelValues(event).Inc()
}

// RecordReceived counts one inbound envelope. Unknown events are folded into
// one label so a noisy server cannot blow up the series count.
func RecordReceived(event, outcome string, known bool) {
	RegisterMetrics()
	if !known {
		event = "unknown"
	}
	received.WithLabelValues(event, outcome).Inc()
}
