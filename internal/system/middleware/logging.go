package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/system/constants"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
)

// RequestLoggingMiddleware logs each request and records HTTP metrics
func RequestLoggingMiddleware() gin.HandlerFunc {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "HTTP"))

	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPInFlight.Inc()

		c.Next()

		metrics.HTTPInFlight.Dec()
		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(duration.Seconds())

		logger.Info("Request completed",
			log.String("method", c.Request.Method),
			log.String("route", route),
			log.Int("status", c.Writer.Status()),
			log.Int64("duration_ms", duration.Milliseconds()),
			log.String("correlation_id", c.GetString(constants.CorrelationIDContextKey)),
		)
	}
}
