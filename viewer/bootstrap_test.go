// file: viewer/bootstrap_test.go
package viewer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go-model-viewer/scene"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) FetchModel(ctx context.Context, source string) (io.ReadCloser, error) {
	args := m.Called(ctx, source)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

type meshCollector struct {
	mu     sync.Mutex
	meshes []*scene.Mesh
}

func (c *meshCollector) AddMesh(m *scene.Mesh) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meshes = append(c.meshes, m)
}

func TestBootstrap_LoadsMeshAndRequestsOneFrame(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchModel", mock.Anything, "cube.js").Return(io.NopCloser(strings.NewReader(cubeModel)), nil)
	target := &meshCollector{}
	frames := &countingFrames{}
	rec := &recorder{}

	b := NewBootstrapper(fetcher, target, frames, rec.observe)
	err := b.Load(context.Background(), "cube.js", 0x009900)
	require.NoError(t, err)

	fetcher.AssertExpectations(t)
	require.Len(t, target.meshes, 1)
	mesh := target.meshes[0]
	assert.Len(t, mesh.Geometry.Faces, 12, "quads are split into triangles")
	for _, f := range mesh.Geometry.Faces {
		assert.InDelta(t, 1.0, f.VertexNormals[0].Len(), 1e-9, "vertex normals are computed")
	}

	assert.Equal(t, int64(1), frames.n.Load())
	assert.Equal(t, 1, rec.count(func(e Event) bool { _, ok := e.(BackgroundEvent); return ok }))
	assert.Empty(t, rec.statuses())
}

func TestBootstrap_FetchFailureReportsAndDrawsNothing(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchModel", mock.Anything, "missing.js").Return(nil, errors.New("404 Not Found"))
	target := &meshCollector{}
	frames := &countingFrames{}
	rec := &recorder{}

	b := NewBootstrapper(fetcher, target, frames, rec.observe)
	select {
	case err := <-b.Start(context.Background(), "missing.js", 0):
		assert.True(t, errors.Is(err, ErrModelLoad))
	case <-time.After(time.Second):
		t.Fatal("bootstrap never finished")
	}

	assert.Empty(t, target.meshes)
	assert.Zero(t, frames.n.Load())
	assert.True(t, rec.hasStatusErr(ErrModelLoad))
	assert.Zero(t, rec.count(func(e Event) bool { _, ok := e.(BackgroundEvent); return ok }))
}

func TestBootstrap_ParseFailureReports(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchModel", mock.Anything, "broken.js").Return(io.NopCloser(strings.NewReader("{")), nil)
	frames := &countingFrames{}
	rec := &recorder{}

	err := NewBootstrapper(fetcher, &meshCollector{}, frames, rec.observe).Load(context.Background(), "broken.js", 0)
	assert.True(t, errors.Is(err, ErrModelLoad))
	assert.Zero(t, frames.n.Load())
	statuses := rec.statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, LevelError, statuses[0].Level)
}
