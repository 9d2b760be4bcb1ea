// Package ocr reads digit strings from cropped meter regions. A crop is expanded
// into filter-bank variants, each variant is read by several tuned passes, and
// the resulting observations are fused into one number.
package ocr

import (
	"context"
	"image"
)

// Word is one recognized token reported by an engine, confidence in [0,1].
type Word struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Observation is a candidate reading tagged with the variant and pass that produced it.
type Observation struct {
	Text       string
	Confidence float64
	Source     string
}

// Engine recognizes digit words in an already prepared image.
// Implementations must be safe for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, pass Pass) ([]Word, error)
	Close() error
}
