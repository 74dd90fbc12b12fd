package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// MetricsMiddleware provides middleware for collecting HTTP metrics.
type MetricsMiddleware struct {
	metrics *Metrics
	logger  types.Logger
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(metrics *Metrics, logger types.Logger) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
		logger:  logger,
	}
}

// HTTPMetricsMiddleware returns a Gin middleware recording request/response
// size, status, and latency for every route.
func (mm *MetricsMiddleware) HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestSize := c.Request.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		c.Next()

		duration := time.Since(startTime)
		responseSize := int64(c.Writer.Size())

		mm.metrics.RecordHTTPRequest(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			duration,
			requestSize,
			responseSize,
		)

		mm.logger.Debug("HTTP request metrics recorded",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", duration,
			"request_size", requestSize,
			"response_size", responseSize,
		)
	}
}
