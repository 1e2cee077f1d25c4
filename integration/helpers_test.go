//go:build integration
// +build integration

package integration

import "go-model-viewer/scene"

type meshCounter func()

func (f meshCounter) AddMesh(*scene.Mesh) { f() }

type frameCounter struct{ n int }

func (f *frameCounter) RequestFrame() { f.n++ }
