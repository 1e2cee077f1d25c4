// server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go-model-viewer/config"
	"go-model-viewer/controllers"
	"go-model-viewer/logger"
	"go-model-viewer/middleware"
	"go-model-viewer/services"
	"go-model-viewer/websocket"
)

// Server is the model server: routes, the WebSocket hub and the catalog watcher.
type Server struct {
	cfg     config.Config
	Router  *gin.Engine
	Hub     *websocket.Hub
	Watcher *websocket.CatalogWatcher
}

// NewServer wires the model server for cfg. A nil metrics publisher disables metrics.
func NewServer(cfg config.Config, metrics websocket.MetricsPublisher) *Server {
	catalog := services.NewCatalogService(cfg.ModelsDir)
	hub := websocket.NewHub(catalog, metrics)

	appURL := cfg.ApplicationURL
	if appURL == "" {
		appURL = cfg.HTTPBase()
	}
	controllers.SetConfig(appURL)

	return &Server{
		cfg:    cfg,
		Router: NewRouter(catalog, hub),
		Hub:    hub,
		Watcher: &websocket.CatalogWatcher{
			Lister:         catalog,
			Messenger:      hub,
			Metrics:        metrics,
			TickerInterval: cfg.CatalogPollInterval,
		},
	}
}

// NewRouter registers every model server route.
func NewRouter(catalog services.CatalogServiceInterface, hub *websocket.Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger, middleware.CORS("*"))

	mc := controllers.NewModelController(catalog)

	router.GET("/health", controllers.Health)
	router.GET("/qrcode", controllers.GetQRCode)
	router.GET("/models/", mc.ListModels)
	router.GET("/models/:file", mc.GetModelAsset)
	router.GET("/", controllers.Root(hub))
	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.Hub.HandleMessages(ctx)
	s.Watcher.Start(ctx)
	defer s.Watcher.Stop()

	srv := &http.Server{Addr: s.cfg.ListenAddr, Handler: s.Router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info.Printf("[Server.Run] Listening on %s, serving models from %s", s.cfg.ListenAddr, s.cfg.ModelsDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.cfg.ListenAddr, err)
	case <-ctx.Done():
	}

	logger.Info.Println("[Server.Run] Shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	// Shutdown does not track hijacked connections
	s.Hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
