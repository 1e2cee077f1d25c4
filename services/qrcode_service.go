// services/qrcode_service.go
package services

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// QRCodeEncoder matches qrcode.Encode so tests can swap the encoder.
type QRCodeEncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// GenerateQRCode encodes content as a PNG QR code of the given dimensions.
func GenerateQRCode(content string, width, height int, encoder QRCodeEncoder) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid dimensions: width and height must be positive")
	}
	if content == "" {
		content = "http://localhost:8080"
	}

	png, err := encoder(content, qrcode.Medium, width)
	if err != nil {
		return nil, err
	}
	return png, nil
}
