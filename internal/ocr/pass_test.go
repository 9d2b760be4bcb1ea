package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPasses(t *testing.T) {
	passes := DefaultPasses()
	names := make([]string, len(passes))
	floors := make([]float64, len(passes))
	for i, p := range passes {
		names[i] = p.Name
		floors[i] = p.MinConfidence
	}
	assert.Equal(t, []string{"base", "segment", "clear", "blur"}, names)
	assert.Equal(t, []float64{0.1, 0.1, 0.15, 0.05}, floors)
}

func TestMagnification(t *testing.T) {
	passes := DefaultPasses()
	assert.InDelta(t, 1.5, passes[1].Magnification(false), 1e-9)
	assert.InDelta(t, 6.0, passes[1].Magnification(true), 1e-9)
	assert.InDelta(t, 12.0, passes[3].Magnification(true), 1e-9)
	assert.InDelta(t, 1.0, Pass{}.Magnification(true), 1e-9)
}

func TestAccept(t *testing.T) {
	clear := DefaultPasses()[2]
	assert.False(t, clear.Accept(word("1", 0.15)))
	assert.True(t, clear.Accept(word("1", 0.151)))
	assert.False(t, clear.Accept(Word{Text: "1", Confidence: 0.9, Box: image.Rect(0, 0, 4, 30)}))

	base := DefaultPasses()[0]
	assert.True(t, base.Accept(Word{Text: "1", Confidence: 0.9, Box: image.Rect(0, 0, 2, 2)}))
}

func TestPrepareMagnifiesAndPads(t *testing.T) {
	img := testutil.SolidImage(40, 20, color.White)
	p := Pass{MagRatio: 2, DecimalMagRatio: 4, Margin: 0.1, CanvasSize: 1000}

	out := p.Prepare(img, false)
	// 80x40 plus a 4px border on each side
	assert.Equal(t, 88, out.Bounds().Dx())
	assert.Equal(t, 48, out.Bounds().Dy())

	out = p.Prepare(img, true)
	assert.Equal(t, 160+16, out.Bounds().Dx())
}

func TestPrepareClampsToCanvas(t *testing.T) {
	img := testutil.SolidImage(100, 50, color.White)
	p := Pass{MagRatio: 12, CanvasSize: 600}
	out := p.Prepare(img, false)
	assert.Equal(t, 600, out.Bounds().Dx())
	assert.Equal(t, 300, out.Bounds().Dy())
}

func lowContrastImage() *image.RGBA {
	img := testutil.SolidImage(60, 20, color.Gray{Y: 120})
	for x := 30; x < 60; x++ {
		for y := range 20 {
			img.Set(x, y, color.Gray{Y: 130})
		}
	}
	return img
}

func TestPrepareLeavesContrastAlone(t *testing.T) {
	img := lowContrastImage()
	p := Pass{MagRatio: 1, ContrastGate: 0.1, ContrastTarget: 0.5}
	assert.InDelta(t, contrast(img), contrast(p.Prepare(img, false)), 1e-9)
}

func TestPrepareAdjustedStretchesLowContrast(t *testing.T) {
	img := lowContrastImage()
	p := Pass{MagRatio: 1, ContrastGate: 0.1, ContrastTarget: 0.5}
	out, ok := p.PrepareAdjusted(img, false)
	require.True(t, ok)
	assert.Greater(t, contrast(out), contrast(img))

	_, ok = Pass{MagRatio: 1}.PrepareAdjusted(img, false)
	assert.False(t, ok, "pass without a contrast gate")

	crisp := testutil.SolidImage(60, 20, color.White)
	for x := 30; x < 60; x++ {
		for y := range 20 {
			crisp.Set(x, y, color.Black)
		}
	}
	_, ok = p.PrepareAdjusted(crisp, false)
	assert.False(t, ok, "already above target")
}

func TestNeedsContrastRetry(t *testing.T) {
	p := Pass{ContrastGate: 0.1}
	assert.True(t, p.NeedsContrastRetry(nil))
	assert.True(t, p.NeedsContrastRetry([]Word{word("1", 0.09)}))
	assert.False(t, p.NeedsContrastRetry([]Word{word("1", 0.05), word("2", 0.4)}))
	assert.False(t, Pass{}.NeedsContrastRetry(nil))
}

func TestPadUsesEdgeColor(t *testing.T) {
	img := testutil.SolidImage(20, 20, color.Black)
	out := pad(img, 0.5)
	assert.Equal(t, 40, out.Bounds().Dx())
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Zero(t, r+g+b)
}
