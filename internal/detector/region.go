package detector

import (
	"image"

	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// Region is one box proposed by the model, in source image pixels.
type Region struct {
	Box        utils.Box
	Class      Class
	ClassIndex int
	Confidence float64
}

// Rect truncates the box to integer pixels inside bounds.
func (r Region) Rect(bounds image.Rectangle) image.Rectangle {
	return r.Box.ToRect(bounds)
}

// Model is the region oracle used by the pipeline. *Detector implements it.
type Model interface {
	Detect(img image.Image) ([]Region, error)
	Close() error
}
