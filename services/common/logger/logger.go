package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log = zap.NewNop()
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

type ctxKey struct{}

// Initialize sets up the logger with the specified environment
func Initialize(env string) *zap.Logger {
	return InitializeWithWriter(env, nil)
}

// InitializeWithWriter sets up the logger with the specified environment and optional CloudWatch writer.
// The result also replaces zap's globals so packages can use zap.L().
func InitializeWithWriter(env string, cloudWatchWriter io.Writer) *zap.Logger {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cloudWatchWriter != nil {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(config.EncoderConfig),
			zapcore.AddSync(os.Stdout),
			zap.NewAtomicLevelAt(config.Level.Level()),
		)

		// CloudWatch always gets JSON, without terminal colours
		cwEncoderConfig := config.EncoderConfig
		cwEncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cwCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(cwEncoderConfig),
			zapcore.AddSync(cloudWatchWriter),
			zap.NewAtomicLevelAt(config.Level.Level()),
		)

		Log = zap.New(zapcore.NewTee(consoleCore, cwCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		var err error
		Log, err = config.Build()
		if err != nil {
			fmt.Printf("Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	}

	zap.ReplaceGlobals(Log)
	return Log
}

// Sync flushes buffered entries; errors from syncing stdout are ignored.
func Sync() {
	_ = Log.Sync()
}

// RequestID assigns X-Request-ID when absent and stores it on both the gin
// context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// WithRequestID creates a new context with the given request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFromContext returns the request ID or "unknown".
func RequestIDFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if requestID := ginCtx.GetString(RequestIDKey); requestID != "" {
			return requestID
		}
		ctx = ginCtx.Request.Context()
	}
	if requestID, ok := ctx.Value(ctxKey{}).(string); ok {
		return requestID
	}
	return "unknown"
}

// FromContext returns the global logger tagged with the request ID.
func FromContext(ctx context.Context) *zap.Logger {
	return Log.With(zap.String("request_id", RequestIDFromContext(ctx)))
}
