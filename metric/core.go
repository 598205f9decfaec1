package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the router- and client-level counters and gauges
// exposed under the "routio" namespace (§9's statistics supplement).
type Metrics struct {
	ServiceStatus     *prometheus.GaugeVec
	ConnectionsActive *prometheus.GaugeVec
	ChannelsActive    *prometheus.GaugeVec
	FramesReceived    *prometheus.CounterVec
	FramesPublished   *prometheus.CounterVec
	PublishDuration    *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec

	BackpressureDrops       prometheus.Counter
	BackpressureDisconnects prometheus.Counter
	ReconnectAttempts       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all router/client metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routio",
				Subsystem: "service",
				Name:      "status",
				Help:      "Component status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"component"},
		),

		ConnectionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routio",
				Subsystem: "router",
				Name:      "connections_active",
				Help:      "Number of connections currently attached to the router",
			},
			[]string{"component"},
		),

		ChannelsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routio",
				Subsystem: "router",
				Name:      "channels_active",
				Help:      "Number of channels currently present in the directory",
			},
			[]string{"component"},
		),

		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "frames",
				Name:      "received_total",
				Help:      "Total number of chunks received",
			},
			[]string{"component"},
		),

		FramesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "frames",
				Name:      "published_total",
				Help:      "Total number of payloads published to a channel",
			},
			[]string{"component", "channel"},
		),

		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "routio",
				Subsystem: "router",
				Name:      "publish_duration_seconds",
				Help:      "Time spent fanning a published payload out to its subscribers",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of classified errors observed",
			},
			[]string{"component", "class"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routio",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		BackpressureDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "backpressure",
				Name:      "drops_total",
				Help:      "Total number of outbound chunks dropped by a lossy subscriber's queue",
			},
		),

		BackpressureDisconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "backpressure",
				Name:      "disconnects_total",
				Help:      "Total number of subscribers disconnected for exceeding their outbound queue",
			},
		),

		ReconnectAttempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "routio",
				Subsystem: "client",
				Name:      "reconnect_attempts_total",
				Help:      "Total number of reconnect attempts made by the client runtime",
			},
		),
	}
}

// RecordServiceStatus updates a component's status metric.
func (c *Metrics) RecordServiceStatus(component string, status int) {
	c.ServiceStatus.WithLabelValues(component).Set(float64(status))
}

// RecordConnectionsActive updates the router's live connection count.
func (c *Metrics) RecordConnectionsActive(component string, count int) {
	c.ConnectionsActive.WithLabelValues(component).Set(float64(count))
}

// RecordChannelsActive updates the router's live channel count.
func (c *Metrics) RecordChannelsActive(component string, count int) {
	c.ChannelsActive.WithLabelValues(component).Set(float64(count))
}

// RecordFrameReceived increments the received-chunk counter.
func (c *Metrics) RecordFrameReceived(component string) {
	c.FramesReceived.WithLabelValues(component).Inc()
}

// RecordFramePublished increments the published-payload counter for channel.
func (c *Metrics) RecordFramePublished(component, channel string) {
	c.FramesPublished.WithLabelValues(component, channel).Inc()
}

// RecordPublishDuration records how long a fan-out took.
func (c *Metrics) RecordPublishDuration(component string, duration time.Duration) {
	c.PublishDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordError increments the classified-error counter.
func (c *Metrics) RecordError(component, class string) {
	c.ErrorsTotal.WithLabelValues(component, class).Inc()
}

// RecordHealthStatus updates health check status.
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}

// RecordBackpressureDrop increments the lossy-subscriber drop counter.
func (c *Metrics) RecordBackpressureDrop() { c.BackpressureDrops.Inc() }

// RecordBackpressureDisconnect increments the overflow-disconnect counter.
func (c *Metrics) RecordBackpressureDisconnect() { c.BackpressureDisconnects.Inc() }

// RecordReconnectAttempt increments the client's reconnect-attempt counter.
func (c *Metrics) RecordReconnectAttempt() { c.ReconnectAttempts.Inc() }
