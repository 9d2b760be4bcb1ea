package testutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDigitsImageScales(t *testing.T) {
	one := GenerateDigitsImage("1203", 1)
	three := GenerateDigitsImage("1203", 3)
	assert.Equal(t, one.Bounds().Dx()*3, three.Bounds().Dx())
	assert.Equal(t, one.Bounds().Dy()*3, three.Bounds().Dy())

	dark := 0
	b := one.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if one.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestGenerateScenePlacesPatches(t *testing.T) {
	scene := GenerateScene(400, 300, Placement{Text: "7", At: image.Pt(100, 100), Scale: 2})
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, scene.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, scene.RGBAAt(101, 101))
}

func TestWritePNGRoundTrip(t *testing.T) {
	path := WritePNG(t, t.TempDir(), "sub/scene.png", SolidImage(5, 7, color.Black))
	img, meta, err := utils.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
}
