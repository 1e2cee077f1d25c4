package tui

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const halfBlock = "▀"

// renderHalfBlocks draws img into cols x rows terminal cells, two pixels per cell:
// the upper pixel is the foreground of ▀ and the lower one its background.
// Transparent or missing pixels show bg.
func renderHalfBlocks(img *image.RGBA, cols, rows int, bg color.RGBA) string {
	cache := make(map[[2]color.RGBA]string)
	lines := make([]string, rows)

	for r := 0; r < rows; r++ {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			key := [2]color.RGBA{pixelAt(img, c, 2*r, bg), pixelAt(img, c, 2*r+1, bg)}
			cell, ok := cache[key]
			if !ok {
				cell = lipgloss.NewStyle().
					Foreground(lipgloss.Color(hex(key[0]))).
					Background(lipgloss.Color(hex(key[1]))).
					Render(halfBlock)
				cache[key] = cell
			}
			b.WriteString(cell)
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func pixelAt(img *image.RGBA, x, y int, bg color.RGBA) color.RGBA {
	if img == nil || !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return bg
	}
	p := img.RGBAAt(x, y)
	if p.A == 0 {
		return bg
	}
	return p
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// saveSnapshot writes img as a timestamped PNG under dir and returns its path.
func saveSnapshot(dir string, img *image.RGBA, now time.Time) (string, error) {
	if img == nil {
		return "", fmt.Errorf("snapshot: no frame rendered yet")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot-%s.png", now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return path, nil
}
