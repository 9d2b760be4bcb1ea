package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/MeKo-Tech/meterocr/internal/ocr"
	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// RegionReader reads one cropped region into a fused number.
// *ocr.Reader implements it.
type RegionReader interface {
	Read(ctx context.Context, crop image.Image, prior ocr.Prior) (ocr.Selection, bool)
}

// priorFor returns the fusion prior of a class.
func priorFor(c detector.Class) (ocr.Prior, bool) {
	switch c {
	case detector.ClassRoom:
		return ocr.RoomPrior, true
	case detector.ClassMeterInteger:
		return ocr.MeterPrior, true
	case detector.ClassMeterDecimal:
		return ocr.DecimalPrior, true
	default:
		return ocr.Prior{}, false
	}
}

// detectRegions runs the model once, gates the regions and reads each crop
// with its class prior. Model failures are returned; OCR degrades to
// unresolved regions.
func (p *Pipeline) detectRegions(ctx context.Context, img image.Image) (Detections, error) {
	if p.closed.Load() {
		return Detections{}, fmt.Errorf("region detection failed: %w", detector.ErrSessionClosed)
	}
	regions, err := p.model.Detect(img)
	if err != nil {
		return Detections{}, fmt.Errorf("region detection failed: %w", err)
	}

	bounds := img.Bounds()
	var dets Detections
	for i, r := range regions {
		if r.Confidence < p.cfg.ConfThreshold {
			continue
		}
		prior, ok := priorFor(r.Class)
		if !ok {
			continue
		}
		rect := r.Rect(bounds)
		if rect.Dx() < p.cfg.MinCropSize || rect.Dy() < p.cfg.MinCropSize {
			slog.Debug("Skipping small region", "index", i, "class", r.Class.String(),
				"width", rect.Dx(), "height", rect.Dy())
			continue
		}

		sel, ok := p.reader.Read(ctx, utils.CropImageRect(img, rect), prior)
		if !ok {
			dets.Unresolved++
			unresolvedRegions.Inc()
			slog.Debug("Region unresolved", "index", i, "class", r.Class.String())
			continue
		}

		d := Detection{
			Class:         r.Class,
			Box:           rect,
			Center:        utils.RectCenter(rect),
			DetConfidence: r.Confidence,
			Number:        sel.Text,
			OCRConfidence: sel.Confidence,
			Method:        sel.Method,
		}
		detectionsTotal.WithLabelValues(r.Class.String()).Inc()
		switch r.Class {
		case detector.ClassRoom:
			dets.Rooms = append(dets.Rooms, d)
		case detector.ClassMeterInteger:
			dets.Meters = append(dets.Meters, d)
		case detector.ClassMeterDecimal:
			dets.Decimals = append(dets.Decimals, d)
		}
	}

	slog.Info("Regions resolved",
		"regions", len(regions),
		"rooms", len(dets.Rooms),
		"meters", len(dets.Meters),
		"decimals", len(dets.Decimals),
		"unresolved", dets.Unresolved)
	return dets, nil
}
