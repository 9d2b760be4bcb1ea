package ocr

import (
	"context"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/meterocr/internal/preprocess"
)

// VariantSource expands a crop into labeled variants.
type VariantSource interface {
	Apply(img image.Image) []preprocess.Variant
}

// Reader turns one cropped region into a fused number.
type Reader struct {
	bank   VariantSource
	runner *Runner
}

// NewReader combines a filter bank with an ensemble runner.
func NewReader(bank VariantSource, runner *Runner) *Reader {
	return &Reader{bank: bank, runner: runner}
}

// Read expands the crop, runs the ensemble and fuses the observations.
func (r *Reader) Read(ctx context.Context, crop image.Image, prior Prior) (Selection, bool) {
	variants := r.bank.Apply(crop)
	observations := r.runner.Run(ctx, variants, prior.Decimal)
	sel, ok := Select(observations, prior)
	slog.Debug("Region read",
		"variants", len(variants),
		"observations", len(observations),
		"text", sel.Text,
		"confidence", sel.Confidence,
		"method", sel.Method)
	return sel, ok
}
