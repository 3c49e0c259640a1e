package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_http_requests_total",
			Help: "Total number of HTTP requests processed by the collab service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collab_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "collab_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	fanoutDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_fanout_delivered_total",
			Help: "Events enqueued on a live connection.",
		},
		[]string{"event"},
	)
	fanoutDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_fanout_dropped_total",
			Help: "Events dropped because the connection queue was full or closed.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collab_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	expiredPaymentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collab_payments_expired_total",
			Help: "Pending payments expired by the maintenance job.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		fanoutDeliveredTotal,
		fanoutDroppedTotal,
		amqpPublishErrorsTotal,
		expiredPaymentsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncFanoutDelivered(event string) {
	fanoutDeliveredTotal.WithLabelValues(event).Inc()
}

func IncFanoutDropped(event string) {
	fanoutDroppedTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func AddExpiredPayments(n int64) {
	expiredPaymentsTotal.Add(float64(n))
}
