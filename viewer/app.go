package viewer

import (
	"context"
	"fmt"
	"sync"

	"go-model-viewer/config"
	"go-model-viewer/logger"
	"go-model-viewer/scene"
)

// App is the viewer's application state. It owns the viewport, frame scheduler,
// gesture listener, connection and model list, and is handed to every UI handler.
type App struct {
	cfg config.Config

	Viewport     *scene.Viewport
	Frames       *FrameScheduler
	Interaction  *InteractionListener
	Connection   *ConnectionManager
	Models       *ViewModel
	Bootstrapper *Bootstrapper

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// AppOptions overrides the collaborators NewApp would otherwise build from config.
type AppOptions struct {
	Width, Height int
	Notify        Observer
	Dial          DialFunc
	Handler       MessageHandler
}

// NewApp builds the viewer from cfg. Nothing runs until Start.
func NewApp(cfg config.Config, opts AppOptions) (*App, error) {
	catalog, err := NewCatalogClient(cfg.HTTPBase(), cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}

	viewport := scene.NewViewport(opts.Width, opts.Height)
	frames := NewFrameScheduler(viewport, opts.Notify)
	vm := NewViewModel(opts.Notify)

	return &App{
		cfg:         cfg,
		Viewport:    viewport,
		Frames:      frames,
		Interaction: NewInteractionListener(viewport, frames, cfg.TrackingInterval),
		Models:      vm,
		Connection: NewConnectionManager(ConnectionOptions{
			URL:            cfg.WebsocketURL(),
			Dial:           opts.Dial,
			Lister:         catalog,
			ViewModel:      vm,
			Handler:        opts.Handler,
			RequestTimeout: cfg.RequestTimeout,
			Notify:         opts.Notify,
		}),
		Bootstrapper: NewBootstrapper(catalog, viewport, frames, opts.Notify),
	}, nil
}

// Start runs the frame scheduler and begins loading the default model.
func (a *App) Start(ctx context.Context) <-chan error {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Frames.Run(ctx)
	}()

	logger.Info.Printf("[App.Start] Viewer started against %s", a.cfg.ServerAddr)
	return a.Bootstrapper.Start(ctx, a.cfg.DefaultModel, a.cfg.ModelColor)
}

// Resize changes the viewport size and redraws.
func (a *App) Resize(width, height int) {
	a.Viewport.SetSize(width, height)
	a.Frames.RequestFrame()
}

// Close stops gestures, drops the connection and stops rendering.
func (a *App) Close() {
	a.Interaction.Close()
	a.Connection.Close()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	logger.Info.Println("[App.Close] Viewer stopped")
}
