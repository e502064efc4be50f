package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"nudeploy/services"
)

/**
 * HTTP request statistics middleware
 * @description
 * - Counts requests per route template, "unknown" for unmatched paths
 * - Records the handling time
 * - Counts responses with status >= 400 as errors
 * - The totals feed the /healthz response
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		services.IncrementRequestCount(route)
		services.RecordRequestDuration(route, duration)
		if c.Writer.Status() >= 400 {
			services.IncrementErrorCount(route)
		}
	}
}

// GetTotalRequests returns the number of requests seen since start
func GetTotalRequests() int64 {
	return services.GetTotalRequestCount()
}

// GetErrorRequests returns the number of failed requests seen since start
func GetErrorRequests() int64 {
	return services.GetTotalErrorCount()
}
