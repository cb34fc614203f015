package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegisrules/aegis/internal/metrics"
)

// RequestLogger logs basic request information along with the request_id
// and counts the request in the HTTP metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status())

		entry := GetRequestLogger(c)
		entry.WithFields(map[string]interface{}{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": latency.String(),
			"client":  c.ClientIP(),
		}).Info("handled request")
	}
}
