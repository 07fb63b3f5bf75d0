package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wavenote-dev/community-api/internal/service"
)

// Metrics records duration and status for every request. Unmatched routes
// fall back to the raw path so 404s still show up, labelled individually.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
