package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records the duration of every request into the request
// histogram, labeled by method and route. Health probes are skipped so
// load balancer traffic does not drown the signal.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()

		// Process request
		c.Next()

		latency := time.Since(start)
		RecordRequestDuration(c.Request.Context(), c.Request.Method+" "+path, latency.Seconds())
	}
}
