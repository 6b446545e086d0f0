package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"voice-alerts-go/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLoggingMiddleware tags every request with an id and logs its outcome.
func RequestLoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := log.WithRequest(c.Request)
		if id, ok := entry.Data["req_id"].(string); ok {
			c.Request.Header.Set(requestIDHeader, id)
			c.Header(requestIDHeader, id)
		}
		c.Set(loggerKey, entry)

		c.Next()

		entry.WithField("status", c.Writer.Status()).
			WithField("latency_ms", time.Since(start).Milliseconds()).
			Info("request completed")
	}
}
