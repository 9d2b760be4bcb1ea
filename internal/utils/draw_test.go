package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneRGBADoesNotAlias(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	dst := CloneRGBA(src)
	dst.Set(1, 1, color.White)
	assert.Equal(t, color.RGBA{}, src.RGBAAt(1, 1))
}

func TestDrawRectThickness(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{R: 255, A: 255}
	DrawRect(dst, image.Rect(2, 2, 12, 12), red, 2)

	assert.Equal(t, red, dst.RGBAAt(2, 2))
	assert.Equal(t, red, dst.RGBAAt(3, 6))
	assert.Equal(t, red, dst.RGBAAt(11, 11))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(6, 6))
}

func TestDrawLabelStaysInside(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 80, 20))
	DrawLabel(dst, 0, -10, "Room: 12", color.RGBA{B: 255, A: 255})

	painted := 0
	for y := range 20 {
		for x := range 80 {
			if dst.RGBAAt(x, y).B == 255 {
				painted++
			}
		}
	}
	assert.Positive(t, painted)
}

func TestCropImageRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 30))
	c := CropImageRect(img, image.Rect(40, 20, 70, 60))
	assert.Equal(t, 10, c.Bounds().Dx())
	assert.Equal(t, 10, c.Bounds().Dy())

	empty := CropImageRect(img, image.Rect(60, 60, 70, 70))
	assert.True(t, empty.Bounds().Empty())
}
