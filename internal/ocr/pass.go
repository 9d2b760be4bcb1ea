package ocr

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Pass is one tuned OCR configuration applied to every filter-bank variant.
type Pass struct {
	Name            string
	Margin          float64 // border added on each side, as a fraction of the shorter side
	ContrastGate    float64 // best confidence below this triggers a re-read of a contrast-stretched copy (0 disables)
	ContrastTarget  float64 // contrast the stretched copy aims for
	MagRatio        float64 // upscale factor for integer crops
	DecimalMagRatio float64 // upscale factor for single-digit decimal crops
	CanvasSize      int     // longest side allowed after magnification
	PageSegMode     gosseract.PageSegMode
	MinConfidence   float64 // observations at or below this are dropped
	MinSize         int     // words with a box side smaller than this are dropped (0 disables)
}

// DefaultPasses returns the four passes: a general baseline, segmented digits,
// sharp text and faint or blurred text.
func DefaultPasses() []Pass {
	return []Pass{
		{
			Name:            "base",
			Margin:          0.1,
			MagRatio:        1.0,
			DecimalMagRatio: 1.0,
			CanvasSize:      2560,
			PageSegMode:     gosseract.PSM_SINGLE_LINE,
			MinConfidence:   0.1,
		},
		{
			Name:            "segment",
			Margin:          0.2,
			ContrastGate:    0.1,
			ContrastTarget:  0.5,
			MagRatio:        1.5,
			DecimalMagRatio: 6.0,
			CanvasSize:      2560,
			PageSegMode:     gosseract.PSM_SINGLE_WORD,
			MinConfidence:   0.1,
		},
		{
			Name:            "clear",
			Margin:          0.1,
			MagRatio:        1.0,
			DecimalMagRatio: 4.0,
			CanvasSize:      1280,
			PageSegMode:     gosseract.PSM_SINGLE_LINE,
			MinConfidence:   0.15,
			MinSize:         5,
		},
		{
			Name:            "blur",
			Margin:          0.3,
			ContrastGate:    0.05,
			ContrastTarget:  0.3,
			MagRatio:        3.0,
			DecimalMagRatio: 12.0,
			CanvasSize:      3840,
			PageSegMode:     gosseract.PSM_SPARSE_TEXT,
			MinConfidence:   0.05,
		},
	}
}

// Magnification returns the upscale factor for the crop kind.
func (p Pass) Magnification(decimal bool) float64 {
	m := p.MagRatio
	if decimal {
		m = p.DecimalMagRatio
	}
	if m <= 0 {
		return 1
	}
	return m
}

// Accept reports whether an observation clears the pass confidence floor.
func (p Pass) Accept(w Word) bool {
	if w.Confidence <= p.MinConfidence {
		return false
	}
	if p.MinSize > 0 && (w.Box.Dx() < p.MinSize || w.Box.Dy() < p.MinSize) {
		return false
	}
	return true
}

// Prepare magnifies and pads img for this pass.
func (p Pass) Prepare(img image.Image, decimal bool) image.Image {
	return p.withMargin(p.magnify(img, decimal))
}

// PrepareAdjusted is Prepare with the contrast stretched towards ContrastTarget.
// It reports false when the pass has no contrast retry or the crop already
// reaches the target.
func (p Pass) PrepareAdjusted(img image.Image, decimal bool) (image.Image, bool) {
	if p.ContrastGate <= 0 {
		return nil, false
	}
	out := p.magnify(img, decimal)
	c := contrast(out)
	if c <= 0 || c >= p.ContrastTarget {
		return nil, false
	}
	pct := math.Min((p.ContrastTarget/c-1)*100, 100)
	return p.withMargin(imaging.AdjustContrast(out, pct)), true
}

// NeedsContrastRetry reports whether a read is too unsure to keep without
// also trying the contrast-stretched copy.
func (p Pass) NeedsContrastRetry(words []Word) bool {
	return p.ContrastGate > 0 && bestConfidence(words) < p.ContrastGate
}

func bestConfidence(words []Word) float64 {
	best := 0.0
	for _, w := range words {
		best = math.Max(best, w.Confidence)
	}
	return best
}

func (p Pass) magnify(img image.Image, decimal bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	scale := p.Magnification(decimal)
	if p.CanvasSize > 0 {
		if longest := float64(max(w, h)) * scale; longest > float64(p.CanvasSize) {
			scale *= float64(p.CanvasSize) / longest
		}
	}
	if nw, nh := int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale)); nw != w || nh != h {
		return imaging.Resize(img, max(nw, 1), max(nh, 1), imaging.CatmullRom)
	}
	return img
}

func (p Pass) withMargin(img image.Image) image.Image {
	if p.Margin > 0 && !img.Bounds().Empty() {
		return pad(img, p.Margin)
	}
	return img
}

// contrast measures the spread between the 10th and 90th luminance percentiles, in [0,1].
func contrast(img image.Image) float64 {
	b := img.Bounds()
	step := max(1, max(b.Dx(), b.Dy())/128)
	var lum []int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			lum = append(lum, int(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y))
		}
	}
	if len(lum) == 0 {
		return 0
	}
	sort.Ints(lum)
	lo := lum[len(lum)/10]
	hi := lum[(len(lum)*9)/10]
	return float64(hi-lo) / 255
}

// pad surrounds img with a border in its mean edge color.
func pad(img image.Image, margin float64) image.Image {
	b := img.Bounds()
	m := int(math.Round(float64(min(b.Dx(), b.Dy())) * margin))
	if m < 1 {
		return img
	}
	canvas := imaging.New(b.Dx()+2*m, b.Dy()+2*m, edgeColor(img))
	return imaging.Paste(canvas, img, image.Pt(m, m))
}

func edgeColor(img image.Image) color.NRGBA {
	b := img.Bounds()
	var r, g, bl, n uint64
	add := func(x, y int) {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		r += uint64(c.R)
		g += uint64(c.G)
		bl += uint64(c.B)
		n++
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		add(x, b.Max.Y-1)
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		add(b.Min.X, y)
		add(b.Max.X-1, y)
	}
	if n == 0 {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 255}
}
