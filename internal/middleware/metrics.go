package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/metrics"
)

// Metrics records request counts and latencies. The route label is the gin
// template (e.g. /api/v5/restaurants/:id), keeping label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
