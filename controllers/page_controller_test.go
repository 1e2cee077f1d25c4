// controllers/page_controller_test.go
package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-model-viewer/models"
	"go-model-viewer/websocket"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", Health)

	w := get(router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestGetQRCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/qrcode", GetQRCode)

	var encoded string
	orig := qrEncoder
	defer func() { qrEncoder = orig }()
	qrEncoder = func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
		encoded = content
		return []byte("png-bytes"), nil
	}
	SetConfig("http://viewer.local:8080")
	defer SetConfig("http://localhost:8080")

	w := get(router, "/qrcode")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "http://viewer.local:8080", encoded)
}

func TestGetQRCode_EncoderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/qrcode", GetQRCode)

	orig := qrEncoder
	defer func() { qrEncoder = orig }()
	qrEncoder = func(string, qrcode.RecoveryLevel, int) ([]byte, error) {
		return nil, errors.New("boom")
	}

	w := get(router, "/qrcode")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type fixedCatalog []models.ModelEntry

func (f fixedCatalog) ListEntries() ([]models.ModelEntry, error) { return f, nil }

func TestRoot_BannerAndUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := websocket.NewHub(fixedCatalog{{Name: "teapot"}}, nil)
	router := gin.New()
	router.GET("/", Root(hub))

	w := get(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "model server")

	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.ServerMessage{Action: models.ActionListModels}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply models.ServerMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, []string{"teapot"}, models.Names(reply.Models))
}
