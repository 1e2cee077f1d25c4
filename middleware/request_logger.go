// File: middleware/request_logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go-model-viewer/logger"
)

// RequestLogger writes one line per request to the application log.
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	line := "[RequestLogger] %s %s -> %d (%v) from %s"
	args := []interface{}{c.Request.Method, c.Request.URL.RequestURI(), status, time.Since(start), c.ClientIP()}
	switch {
	case status >= 500:
		logger.Error.Printf(line, args...)
	case status >= 400:
		logger.Warn.Printf(line, args...)
	default:
		logger.Debug.Printf(line, args...)
	}
}
