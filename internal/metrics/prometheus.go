package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	connectionsTotal    prometheus.Counter
	connectionsActive   prometheus.Gauge
	connectionsRejected prometheus.Counter

	authAttemptsTotal *prometheus.CounterVec

	commandsTotal *prometheus.CounterVec

	broadcastsTotal *prometheus.CounterVec

	mailboxEnqueuedTotal prometheus.Counter
	mailboxDroppedTotal  prometheus.Counter
	mailboxDrainedTotal  prometheus.Counter
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netchatd_connections_total",
			Help: "Total number of connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netchatd_connections_active",
			Help: "Number of currently active connections.",
		}),
		connectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netchatd_connections_rejected_total",
			Help: "Total number of connections rejected because the server was full.",
		}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netchatd_auth_attempts_total",
			Help: "Total number of authentication attempts.",
		}, []string{"result"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netchatd_commands_total",
			Help: "Total number of commands processed.",
		}, []string{"command"}),

		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netchatd_broadcasts_total",
			Help: "Total number of broadcasts sent, by scope.",
		}, []string{"scope"}),

		mailboxEnqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netchatd_mailbox_enqueued_total",
			Help: "Total number of offline messages enqueued.",
		}),
		mailboxDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netchatd_mailbox_dropped_total",
			Help: "Total number of offline messages dropped because the mailbox was full.",
		}),
		mailboxDrainedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netchatd_mailbox_drained_total",
			Help: "Total number of offline messages delivered on authentication.",
		}),
	}

	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.connectionsRejected,
		c.authAttemptsTotal,
		c.commandsTotal,
		c.broadcastsTotal,
		c.mailboxEnqueuedTotal,
		c.mailboxDroppedTotal,
		c.mailboxDrainedTotal,
	)

	return c
}

// ConnectionOpened increments the connection counter and active gauge.
func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

// ConnectionClosed decrements the active connections gauge.
func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

// ConnectionRejected increments the rejected connections counter.
func (c *PrometheusCollector) ConnectionRejected() {
	c.connectionsRejected.Inc()
}

// AuthAttempt increments the authentication attempts counter.
func (c *PrometheusCollector) AuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(command string) {
	c.commandsTotal.WithLabelValues(command).Inc()
}

// BroadcastSent increments the broadcast counter for the given scope.
func (c *PrometheusCollector) BroadcastSent(scope string) {
	c.broadcastsTotal.WithLabelValues(scope).Inc()
}

// MailboxEnqueued increments the mailbox enqueue counter.
func (c *PrometheusCollector) MailboxEnqueued() {
	c.mailboxEnqueuedTotal.Inc()
}

// MailboxDropped increments the mailbox drop counter.
func (c *PrometheusCollector) MailboxDropped() {
	c.mailboxDroppedTotal.Inc()
}

// MailboxDrained adds count to the mailbox drain counter.
func (c *PrometheusCollector) MailboxDrained(count int) {
	c.mailboxDrainedTotal.Add(float64(count))
}
