package detector

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/meterocr/internal/mempool"
	"github.com/disintegration/imaging"
)

// padValue is the gray used for letterbox borders during training.
const padValue = 114

// letterbox records how a source image was mapped onto the square model input.
type letterbox struct {
	Size   int
	Scale  float64
	PadX   int
	PadY   int
	SrcW   int
	SrcH   int
	Origin image.Point
}

func newLetterbox(bounds image.Rectangle, size int) letterbox {
	w, h := bounds.Dx(), bounds.Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return letterbox{
		Size:   size,
		Scale:  scale,
		PadX:   (size - nw) / 2,
		PadY:   (size - nh) / 2,
		SrcW:   w,
		SrcH:   h,
		Origin: bounds.Min,
	}
}

// toSource maps a model-space coordinate back to source pixels.
func (lb letterbox) toSource(x, y float64) (float64, float64) {
	sx := (x-float64(lb.PadX))/lb.Scale + float64(lb.Origin.X)
	sy := (y-float64(lb.PadY))/lb.Scale + float64(lb.Origin.Y)
	return sx, sy
}

// tensorData renders img into an RGB, 0-1 normalized NCHW buffer taken from
// the pool. Every element is written.
func (lb letterbox) tensorData(img image.Image) []float32 {
	nw := int(math.Round(float64(lb.SrcW) * lb.Scale))
	nh := int(math.Round(float64(lb.SrcH) * lb.Scale))
	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	canvas := imaging.New(lb.Size, lb.Size, color.NRGBA{R: padValue, G: padValue, B: padValue, A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(lb.PadX, lb.PadY))

	plane := lb.Size * lb.Size
	data := mempool.GetFloat32(3 * plane)
	for y := range lb.Size {
		row := canvas.Pix[y*canvas.Stride:]
		for x := range lb.Size {
			i := y*lb.Size + x
			p := row[x*4:]
			data[i] = float32(p[0]) / 255
			data[plane+i] = float32(p[1]) / 255
			data[2*plane+i] = float32(p[2]) / 255
		}
	}
	return data
}
