package middleware

import (
	"time"

	"github.com/flathunt/platform/shared/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestId"

// RequestID reuses an incoming X-Request-ID or mints a new one, and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggingMiddleware logs one line per request once the handler has finished.
func LoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", GetRequestID(c),
			"remote_addr", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error(c.Request.Context(), "request", args...)
		case status >= 400:
			logger.Warn(c.Request.Context(), "request", args...)
		default:
			logger.Info(c.Request.Context(), "request", args...)
		}
	}
}
