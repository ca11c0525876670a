package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger writes one "http_request" line per request. Probe paths are
// only logged when they fail. Run it after logger.RequestID.
func RequestLogger(log *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		case quiet[c.Request.URL.Path]:
			return
		}

		fields := []zap.Field{
			zap.String("request_id", logger.RequestIDFromContext(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if uid, ok := c.Get(ContextUserID); ok {
			fields = append(fields, zap.Any("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		log.Log(level, "http_request", fields...)
	}
}
