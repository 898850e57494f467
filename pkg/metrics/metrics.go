package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pencraft",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pencraft",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Engagement counts domain mutations by kind (like, unlike, comment, save, join...).
	Engagement = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pencraft",
		Name:      "engagement_events_total",
		Help:      "Engagement mutations by kind.",
	}, []string{"kind"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pencraft",
		Name:      "notifications_created_total",
		Help:      "Notifications created by type.",
	}, []string{"type"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pencraft",
		Name:      "event_publish_failures_total",
		Help:      "Domain events that could not be delivered to the broker.",
	}, []string{"subject"})

	ViewsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pencraft",
		Name:      "post_views_synced_total",
		Help:      "View increments flushed from cache to the database.",
	})
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
