package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/service"
)

// unmatchedRoute labels requests that hit no route so arbitrary paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Scrapes of skip are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		if _, ok := skipped[route]; ok {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
