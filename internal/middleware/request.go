package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collab-service/internal/observability"
)

const RequestIDKey = "request_id"

// RequestID propagates X-Request-Id or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(observability.RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(RequestIDKey),
			"ip":         c.ClientIP(),
		}
		if userID := c.GetString(UserIDKey); userID != "" {
			fields["user_id"] = userID
		}
		if traceID := observability.TraceIDFromContext(c.Request.Context()); traceID != "" {
			fields["trace_id"] = traceID
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
