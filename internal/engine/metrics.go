package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PacketsSent     *prometheus.CounterVec
	PacketsReceived *prometheus.CounterVec
	SendErrors      *prometheus.CounterVec
	DecodeErrors    prometheus.Counter
	AcksSent        prometheus.Counter

	Sequence       prometheus.Gauge
	HandshakeState prometheus.Gauge
	Ready          prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PacketsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "packets_sent_total",
				Help:      "Datagrams sent to the robot by packet type.",
			},
			[]string{"type"},
		),
		PacketsReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "packets_received_total",
				Help:      "Datagrams decoded from the robot by packet type.",
			},
			[]string{"type"},
		),
		SendErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "send_errors_total",
				Help:      "Failed sends by packet type.",
			},
			[]string{"type"},
		),
		DecodeErrors: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "decode_errors_total",
				Help:      "Inbound datagrams dropped because they failed to decode.",
			},
		),
		AcksSent: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "acks_sent_total",
				Help:      "Command acknowledgments echoed to the robot.",
			},
		),
		Sequence: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "sequence",
				Help:      "Next outbound sequence number.",
			},
		),
		HandshakeState: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "handshake_state",
				Help:      "0 idle, 1 requesting, 2 complete.",
			},
		),
		Ready: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ftchub",
				Subsystem: "engine",
				Name:      "ready",
				Help:      "1 once the first heartbeat has been sent.",
			},
		),
	}
}

func (m *Metrics) sent(t protocol.PacketType) {
	if m == nil {
		return
	}
	m.PacketsSent.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) received(t protocol.PacketType) {
	if m == nil {
		return
	}
	m.PacketsReceived.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) sendError(t protocol.PacketType) {
	if m == nil {
		return
	}
	m.SendErrors.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) decodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

func (m *Metrics) ackSent() {
	if m == nil {
		return
	}
	m.AcksSent.Inc()
}

func (m *Metrics) setSequence(seq int16) {
	if m == nil {
		return
	}
	m.Sequence.Set(float64(seq))
}

func (m *Metrics) setHandshake(s HandshakeState) {
	if m == nil {
		return
	}
	m.HandshakeState.Set(float64(s))
}

func (m *Metrics) setReady() {
	if m == nil {
		return
	}
	m.Ready.Set(1)
}
