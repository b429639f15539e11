// README: Request logging middleware on the service logger.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/logger"
)

func Logging(log logger.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			log.Errorf("%s %s -> %d (%s) %s", c.Request.Method, c.FullPath(), status, latency, c.Errors.String())
		case status >= 400:
			log.Warnf("%s %s -> %d (%s)", c.Request.Method, c.FullPath(), status, latency)
		default:
			log.Debugf("%s %s -> %d (%s)", c.Request.Method, c.FullPath(), status, latency)
		}
	}
}
