package viewer

import (
	"context"
	"fmt"

	"go-model-viewer/logger"
	"go-model-viewer/scene"
)

// MeshAdder accepts the loaded mesh.
type MeshAdder interface {
	AddMesh(m *scene.Mesh)
}

// Bootstrapper loads the initial model into the viewport.
type Bootstrapper struct {
	fetch  AssetFetcher
	target MeshAdder
	frames FrameRequester
	notify Observer
}

// NewBootstrapper wires a loader to the viewport it fills and the scheduler it renders with.
func NewBootstrapper(fetch AssetFetcher, target MeshAdder, frames FrameRequester, notify Observer) *Bootstrapper {
	return &Bootstrapper{fetch: fetch, target: target, frames: frames, notify: notify}
}

// Start loads source in the background. The returned channel yields the outcome once.
func (b *Bootstrapper) Start(ctx context.Context, source string, color uint32) <-chan error {
	out := make(chan error, 1)
	go func() {
		out <- b.Load(ctx, source, color)
		close(out)
	}()
	return out
}

// Load fetches and parses source, smooths its normals, adds it to the scene and
// requests one frame. Failures are reported as an error Status and no frame is drawn.
func (b *Bootstrapper) Load(ctx context.Context, source string, color uint32) error {
	logger.Info.Printf("[Bootstrapper.Load] Loading model source=%s", source)

	geometry, err := b.loadGeometry(ctx, source)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrModelLoad, source, err)
		logger.Error.Printf("[Bootstrapper.Load] %v", err)
		b.notify.status(LevelError, "Could not load model", err)
		return err
	}

	geometry.ComputeVertexNormals()
	b.target.AddMesh(scene.NewMesh(geometry, scene.NewPhongMaterial(scene.ColorFromHex(color))))
	logger.Info.Printf("[Bootstrapper.Load] Loaded %s: %d vertices, %d faces", source, len(geometry.Vertices), len(geometry.Faces))

	b.notify.emit(BackgroundEvent{})
	b.frames.RequestFrame()
	return nil
}

func (b *Bootstrapper) loadGeometry(ctx context.Context, source string) (*scene.Geometry, error) {
	body, err := b.fetch.FetchModel(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return scene.ParseModel(body)
}
