package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/manga-dl-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware that logs every request to the console
// and server errors to the error log
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		logAdapter.General().Info("HTTP request", fields...)

		if statusCode >= 500 {
			logAdapter.LogError("HTTP error response", fields...)
		}
	}
}
