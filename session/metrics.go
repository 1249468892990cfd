package session

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yubihsm/scp03/message"
)

// Metrics is an optional set of Prometheus instruments for a Manager. A
// nil *Metrics is always safe to use: every helper method below no-ops
// when called on a nil receiver, so the session package carries no
// mandatory dependency on a metrics backend.
type Metrics struct {
	CommandsSent    prometheus.Counter
	Handshakes      prometheus.Counter
	Reconnects      prometheus.Counter
	DeviceErrors    *prometheus.CounterVec
	CommandDuration prometheus.Histogram
}

// NewMetrics registers and returns a Metrics instance against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yubihsm_commands_sent_total",
			Help: "Total number of commands sent over an authenticated session.",
		}),
		Handshakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yubihsm_handshakes_total",
			Help: "Total number of SCP03 handshakes performed.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yubihsm_reconnects_total",
			Help: "Total number of sessions re-established after inactivity or a device session error.",
		}),
		DeviceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yubihsm_device_errors_total",
			Help: "Total number of structured device errors, labeled by kind.",
		}, []string{"kind"}),
		CommandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yubihsm_command_duration_seconds",
			Help:    "Round-trip latency of a single encrypted command.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.CommandsSent, m.Handshakes, m.Reconnects, m.DeviceErrors, m.CommandDuration)
	return m
}

func (m *Metrics) commandSent() {
	if m == nil {
		return
	}
	m.CommandsSent.Inc()
}

func (m *Metrics) handshake() {
	if m == nil {
		return
	}
	m.Handshakes.Inc()
}

func (m *Metrics) reconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) deviceError(kind message.DeviceErrorKind) {
	if m == nil {
		return
	}
	m.DeviceErrors.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.CommandDuration.Observe(seconds)
}
