package pipeline

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// Annotation colors per class.
var (
	RoomColor    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	MeterColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	DecimalColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

const (
	boxThickness = 2
	labelOffset  = 10
)

// RenderAnnotations draws the selected readings on a copy of img.
// The source image is never modified.
func RenderAnnotations(img image.Image, r Readings) *image.RGBA {
	out := utils.CloneRGBA(img)
	draw := func(d *Detection, label string, col color.Color) {
		if d == nil {
			return
		}
		utils.DrawRect(out, d.Box, col, boxThickness)
		utils.DrawLabel(out, d.Box.Min.X, d.Box.Min.Y-labelOffset, label+": "+d.Number, col)
	}
	draw(r.Room, "Room", RoomColor)
	draw(r.Meter, "Meter", MeterColor)
	draw(r.Decimal, "Decimal", DecimalColor)
	return out
}
