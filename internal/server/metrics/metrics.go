// Package metrics exposes Prometheus collectors for the chat server.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gophchat"

type Collector struct {
	onlineUsers  prometheus.Gauge
	connections  *prometheus.CounterVec
	broadcasts   prometheus.Counter
	deliveries   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		onlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Number of users holding a live connection",
		}),

		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_connections_total",
			Help:      "WebSocket connection lifecycle events",
		}, []string{"event"}),

		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_broadcasts_total",
			Help:      "Online-users snapshots broadcast to all connections",
		}),

		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_deliveries_total",
			Help:      "Live message delivery attempts by outcome",
		}, []string{"outcome"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (c *Collector) SetOnline(n int) {
	if c == nil {
		return
	}
	c.onlineUsers.Set(float64(n))
}

// ConnectionEvent counts "opened", "replaced", "closed" and "rejected".
func (c *Collector) ConnectionEvent(event string) {
	if c == nil {
		return
	}
	c.connections.WithLabelValues(event).Inc()
}

func (c *Collector) Broadcast() {
	if c == nil {
		return
	}
	c.broadcasts.Inc()
}

func (c *Collector) Delivery(outcome string) {
	if c == nil {
		return
	}
	c.deliveries.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
