// Package testutil generates synthetic meter photographs for tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SolidImage returns a w x h image filled with col.
func SolidImage(w, h int, col color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: col}, image.Point{}, draw.Src)
	return img
}

// GenerateDigitsImage renders text in black on white with a small margin and
// scales it up by an integer factor using nearest-neighbor sampling.
func GenerateDigitsImage(text string, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	const margin = 6
	w := font.MeasureString(face, text).Ceil() + 2*margin
	h := face.Height + 2*margin

	img := SolidImage(w, h, color.White)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(margin, margin+face.Ascent),
	}
	d.DrawString(text)

	if scale == 1 {
		return img
	}
	scaled := imaging.Resize(img, w*scale, h*scale, imaging.NearestNeighbor)
	out := image.NewRGBA(scaled.Bounds())
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return out
}

// Placement positions a rendered number inside a scene.
type Placement struct {
	Text  string
	At    image.Point
	Scale int
}

// GenerateScene composes digit patches onto a light gray canvas.
func GenerateScene(w, h int, placements ...Placement) *image.RGBA {
	scene := SolidImage(w, h, color.Gray{Y: 200})
	for _, p := range placements {
		patch := GenerateDigitsImage(p.Text, p.Scale)
		r := patch.Bounds().Add(p.At)
		draw.Draw(scene, r, patch, image.Point{}, draw.Src)
	}
	return scene
}

// WritePNG saves img under dir and returns its path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
	return path
}

// WriteFile writes raw bytes under dir and returns its path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
