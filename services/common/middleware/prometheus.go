package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
)

// PrometheusMiddleware records request count, latency and in-flight requests.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
