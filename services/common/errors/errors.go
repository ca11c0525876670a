package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceError carries the HTTP status a service failure should be reported with.
type ServiceError struct {
	StatusCode int    `json:"code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New creates a new ServiceError
func New(code int, message string) *ServiceError {
	return &ServiceError{StatusCode: code, Message: message}
}

// Wrap creates a ServiceError that keeps the underlying cause for logging.
func Wrap(code int, message string, err error) *ServiceError {
	return &ServiceError{StatusCode: code, Message: message, Err: err}
}

func BadRequest(message string) *ServiceError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *ServiceError { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *ServiceError    { return New(http.StatusForbidden, message) }
func NotFound(message string) *ServiceError     { return New(http.StatusNotFound, message) }
func Conflict(message string) *ServiceError     { return New(http.StatusConflict, message) }

// Internal hides the cause from clients; it is still logged by Respond.
func Internal(message string, err error) *ServiceError {
	return Wrap(http.StatusInternalServerError, message, err)
}

func BadGateway(message string, err error) *ServiceError {
	return Wrap(http.StatusBadGateway, message, err)
}

// As extracts a *ServiceError from err, falling back to a 500.
func As(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return Internal("Internal server error", err)
}

// Respond writes the error as {"error": message} and aborts the request.
func Respond(c *gin.Context, err *ServiceError) {
	if err.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", err.StatusCode),
			zap.String("message", err.Message),
			zap.Error(err.Err),
		)
	}
	c.AbortWithStatusJSON(err.StatusCode, gin.H{"error": err.Message})
}

// BindError is the response for malformed request bodies and queries.
func BindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}
