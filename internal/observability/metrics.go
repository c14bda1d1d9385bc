// Package observability holds the Prometheus collectors of the service.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "circleup"

// Metrics is registered on the Registerer given to NewMetrics so tests can
// use a private registry.
type Metrics struct {
	WSConnections     prometheus.Gauge
	RoomSubscriptions prometheus.Gauge
	MessagesSent      *prometheus.CounterVec // channel: direct, community
	FramesDropped     *prometheus.CounterVec // reason: buffer_full, marshal
	BroadcastFailures *prometheus.CounterVec // channel
	MailJobs          *prometheus.CounterVec // template, status
	HTTPRequests      *prometheus.CounterVec // method, route, status
	HTTPLatency       *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open WebSocket sessions",
		}),
		RoomSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "room_subscriptions",
			Help:      "Session to room subscriptions currently held by the hub",
		}),
		MessagesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Messages persisted, by channel",
		}, []string{"channel"}),
		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "frames_dropped_total",
			Help:      "Outbound frames not delivered to a session",
		}, []string{"reason"}),
		BroadcastFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "broadcast_failures_total",
			Help:      "Persisted messages whose live publish failed",
		}, []string{"channel"}),
		MailJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "jobs_total",
			Help:      "Mail jobs published to the queue",
		}, []string{"template", "status"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// NewNopMetrics registers on a throwaway registry.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
