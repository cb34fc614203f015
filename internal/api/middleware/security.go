package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets response headers appropriate for a JSON API. HSTS is
// skipped in development where the server runs over plain HTTP.
func SecurityHeaders(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		if !development {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
