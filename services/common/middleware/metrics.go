package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/gin-gonic/gin"
	awspkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"go.uber.org/zap"
)

const metricsPushTimeout = 5 * time.Second

// MetricsMiddleware pushes one CloudWatch batch per request when the client
// is enabled. The push runs off the request goroutine.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		datums := requestDatums(metricsClient, serviceName, c, time.Since(start))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
			defer cancel()
			if err := metricsClient.PutMetricBatch(ctx, datums); err != nil {
				zap.L().Debug("request metrics dropped", zap.Error(err))
			}
		}()
	}
}

func requestDatums(m *awspkg.MetricsClient, serviceName string, c *gin.Context, elapsed time.Duration) []types.MetricDatum {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := c.Writer.Status()
	dims := map[string]string{
		"Service": serviceName,
		"Method":  c.Request.Method,
		"Path":    path,
		"Status":  statusClass(status),
	}

	datums := []types.MetricDatum{
		m.Datum(awspkg.MetricHTTPRequests, 1, types.StandardUnitCount, dims),
		m.Datum(awspkg.MetricHTTPLatency, float64(elapsed.Milliseconds()), types.StandardUnitMilliseconds, dims),
	}
	switch {
	case status >= 500:
		datums = append(datums,
			m.Datum(awspkg.MetricHTTPErrors, 1, types.StandardUnitCount, dims),
			m.Datum(awspkg.MetricHTTP5xx, 1, types.StandardUnitCount, dims))
	case status >= 400:
		datums = append(datums,
			m.Datum(awspkg.MetricHTTPErrors, 1, types.StandardUnitCount, dims),
			m.Datum(awspkg.MetricHTTP4xx, 1, types.StandardUnitCount, dims))
	}
	return datums
}

// statusClass maps 404 to "4xx".
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
