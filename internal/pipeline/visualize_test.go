package pipeline

import (
	"image/color"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAnnotationsColorsByClass(t *testing.T) {
	src := sceneImage()
	room := det(detector.ClassRoom, "1203", 0.9, 0.9, 200, 200)
	meter := det(detector.ClassMeterInteger, "004521", 0.9, 0.9, 500, 400)
	dec := det(detector.ClassMeterDecimal, "7", 0.9, 0.9, 800, 600)

	out := RenderAnnotations(src, Readings{Room: &room, Meter: &meter, Decimal: &dec})
	require.Equal(t, src.Bounds(), out.Bounds())

	assert.Equal(t, RoomColor, out.RGBAAt(room.Box.Min.X, room.Box.Min.Y+5))
	assert.Equal(t, RoomColor, out.RGBAAt(room.Box.Min.X+1, room.Box.Min.Y+5))
	assert.Equal(t, MeterColor, out.RGBAAt(meter.Box.Max.X-1, meter.Box.Min.Y+5))
	assert.Equal(t, DecimalColor, out.RGBAAt(dec.Box.Min.X+5, dec.Box.Max.Y-1))

	inside := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	assert.Equal(t, inside, out.RGBAAt(room.Box.Min.X+5, room.Box.Min.Y+5))

	// the label sits above the box
	found := false
	for y := room.Box.Min.Y - 25; y < room.Box.Min.Y && !found; y++ {
		for x := room.Box.Min.X; x < room.Box.Min.X+80; x++ {
			if out.RGBAAt(x, y) == RoomColor {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "room label not drawn above the box")
}

func TestRenderAnnotationsLeavesSourceUntouched(t *testing.T) {
	src := sceneImage()
	before := append([]uint8(nil), src.Pix...)
	meter := det(detector.ClassMeterInteger, "004521", 0.9, 0.9, 100, 100)

	out := RenderAnnotations(src, Readings{Meter: &meter})
	assert.Equal(t, before, src.Pix)
	assert.NotEqual(t, src.Pix, out.Pix)
}

func TestRenderAnnotationsNothingToDraw(t *testing.T) {
	src := sceneImage()
	out := RenderAnnotations(src, Readings{})
	assert.Equal(t, src.Pix, out.Pix)
}

func TestRenderAnnotationsLabelNearTopEdge(t *testing.T) {
	src := sceneImage()
	room := det(detector.ClassRoom, "1203", 0.9, 0.9, 100, 10)
	assert.NotPanics(t, func() { RenderAnnotations(src, Readings{Room: &room}) })
}
