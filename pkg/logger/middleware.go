package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// RequestIDHeader is the HTTP header for request ID
	RequestIDHeader = "X-Request-ID"
)

// GinMiddleware is a Gin middleware that adds request ID to context
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try to get request ID from header
		requestID := c.GetHeader(RequestIDHeader)

		// If not present, generate a new one
		if requestID == "" {
			requestID = GenerateRequestID()
		}

		// Set response header
		c.Header(RequestIDHeader, requestID)

		// Create context with request ID
		ctx := WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		// Log request start
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		Info(ctx).
			Str("method", method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Msg("Request started")

		// Process request
		c.Next()

		// Log request end
		duration := time.Since(start)
		status := c.Writer.Status()

		Info(ctx).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Dur("duration", duration).
			Msg("Request completed")
	}
}
