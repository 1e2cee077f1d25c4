// Package controllers holds the model server's gin handlers.
// file: controllers/page_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go-model-viewer/logger"
	"go-model-viewer/services"
	"go-model-viewer/websocket"
)

// ApplicationURL is the address encoded in the QR code.
var ApplicationURL = "http://localhost:8080"

// qrEncoder is swapped in tests.
var qrEncoder services.QRCodeEncoder = qrcode.Encode

// Health answers load balancer checks.
func Health(c *gin.Context) {
	logger.Debug.Println("[Health] Health check requested")
	c.String(http.StatusOK, "OK")
}

// GetQRCode serves a PNG QR code of the viewer server address.
func GetQRCode(c *gin.Context) {
	logger.Info.Println("[GetQRCode] Generating QR code")

	qrBytes, err := services.GenerateQRCode(ApplicationURL, 300, 300, qrEncoder)
	if err != nil {
		logger.Error.Printf("[GetQRCode] Error generating QR code: %v", err)
		c.String(http.StatusInternalServerError, "QR generation failed")
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", "inline; filename=\"qrcode.png\"")
	if _, err := c.Writer.Write(qrBytes); err != nil {
		logger.Error.Printf("[GetQRCode] Error writing QR code bytes: %v", err)
	}
}

// Root upgrades WebSocket requests onto hub and answers plain GETs with a banner.
func Root(hub *websocket.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if websocket.IsUpgradeRequest(c.Request) {
			hub.ServeWs(c.Writer, c.Request)
			return
		}
		c.String(http.StatusOK, "go-model-viewer model server: GET /models/?format=json, ws://%s/", c.Request.Host)
	}
}

// SetConfig sets the global application URL
func SetConfig(appURL string) {
	if appURL != "" {
		ApplicationURL = appURL
	}
	logger.Info.Printf("[SetConfig] ApplicationURL=%s", ApplicationURL)
}
