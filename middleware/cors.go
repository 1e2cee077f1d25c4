// Package middleware provides request filters for the model server.
// File: middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// -------------- cross-origin middleware --------------

// CORS lets viewers served from another origin read the model list and assets.
// Preflight requests are answered here and never reach a handler.
// Usage:
//
//	router.Use(CORS("*"))
func CORS(allowOrigin string) gin.HandlerFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
