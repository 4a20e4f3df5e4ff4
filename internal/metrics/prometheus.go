package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	// Connection metrics
	connectionsTotal    prometheus.Counter
	connectionsActive   prometheus.Gauge
	connectionsRejected prometheus.Counter

	// Authentication metrics
	authAttemptsTotal *prometheus.CounterVec
	registrationsTotal prometheus.Counter

	// Command metrics
	commandsTotal *prometheus.CounterVec

	// Message metrics
	broadcastsTotal        *prometheus.CounterVec
	privateDeliveredTotal  prometheus.Counter
	offlineQueuedTotal     prometheus.Counter
	offlineDeliveredTotal  prometheus.Counter
	offlineDroppedTotal    prometheus.Counter
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_connections_total",
			Help: "Total number of client connections opened.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatd_connections_active",
			Help: "Number of currently active client connections.",
		}),
		connectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_connections_rejected_total",
			Help: "Total number of connections rejected at capacity.",
		}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatd_auth_attempts_total",
			Help: "Total number of authentication attempts.",
		}, []string{"result"}),
		registrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_registrations_total",
			Help: "Total number of new user registrations.",
		}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatd_commands_total",
			Help: "Total number of client commands processed.",
		}, []string{"command"}),

		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatd_broadcasts_total",
			Help: "Total number of room broadcasts.",
		}, []string{"room"}),
		privateDeliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_private_messages_delivered_total",
			Help: "Total number of private messages delivered to online users.",
		}),
		offlineQueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_offline_messages_queued_total",
			Help: "Total number of private messages queued for offline delivery.",
		}),
		offlineDeliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_offline_messages_delivered_total",
			Help: "Total number of queued messages delivered on login.",
		}),
		offlineDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatd_offline_messages_dropped_total",
			Help: "Total number of messages dropped because the mailbox was full.",
		}),
	}

	// Register all metrics
	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.connectionsRejected,
		c.authAttemptsTotal,
		c.registrationsTotal,
		c.commandsTotal,
		c.broadcastsTotal,
		c.privateDeliveredTotal,
		c.offlineQueuedTotal,
		c.offlineDeliveredTotal,
		c.offlineDroppedTotal,
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

// UserRegistered increments the registration counter.
func (c *PrometheusCollector) UserRegistered() {
	c.registrationsTotal.Inc()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(command string) {
	c.commandsTotal.WithLabelValues(command).Inc()
}

// MessageBroadcast increments the broadcast counter for the room.
func (c *PrometheusCollector) MessageBroadcast(room string) {
	c.broadcastsTotal.WithLabelValues(room).Inc()
}

// PrivateMessageDelivered increments the private message counter.
func (c *PrometheusCollector) PrivateMessageDelivered() {
	c.privateDeliveredTotal.Inc()
}

// OfflineMessageQueued increments the offline enqueue counter.
func (c *PrometheusCollector) OfflineMessageQueued() {
	c.offlineQueuedTotal.Inc()
}

// OfflineMessageDelivered increments the offline delivery counter.
func (c *PrometheusCollector) OfflineMessageDelivered() {
	c.offlineDeliveredTotal.Inc()
}

// OfflineMessageDropped increments the offline drop counter.
func (c *PrometheusCollector) OfflineMessageDropped() {
	c.offlineDroppedTotal.Inc()
}
