package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/MeKo-Tech/meterocr/internal/common"
	"github.com/MeKo-Tech/meterocr/internal/utils"
	"github.com/google/uuid"
)

// ProcessFile decodes the image at path and processes it. An unreadable file
// yields an error-tagged record and a nil error.
func (p *Pipeline) ProcessFile(ctx context.Context, path, outDir string) (*ProcessingResult, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		var ipe *utils.ImageProcessingError
		if errors.As(err, &ipe) {
			slog.Warn("Unreadable image", "path", path, "operation", ipe.Operation, "error", ipe.Err)
		} else {
			slog.Warn("Unreadable image", "path", path, "error", err)
		}
		imagesProcessed.WithLabelValues(StatusUnreadable).Inc()
		return ErrorResult(path, ErrMsgUnreadableImage), nil
	}

	res, err := p.Process(ctx, img, outDir)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", path, err)
	}
	res.ImagePath = path
	return res, nil
}

// Process runs detection, pairing and rendering on a decoded image. When
// outDir is non-empty the annotated copy is written there as <uuid>.jpg.
func (p *Pipeline) Process(ctx context.Context, img image.Image, outDir string) (*ProcessingResult, error) {
	if img == nil || img.Bounds().Empty() {
		imagesProcessed.WithLabelValues(StatusUnreadable).Inc()
		return ErrorResult("", ErrMsgUnreadableImage), nil
	}

	timer := common.NewNamedTimer("process")
	a, err := p.Analyze(ctx, img)
	if err != nil {
		imagesProcessed.WithLabelValues(StatusFailed).Inc()
		return nil, err
	}

	timer.Lap("analyze")

	readings := SelectReadings(a.Pairing, a.Detections, p.cfg.Pairing)
	res := buildResult(a.Pairing, readings, a.Detections)

	annotated := RenderAnnotations(img, readings)
	timer.Lap("render")
	elapsed := timer.Stop()
	res.ElapsedTime = elapsed.Seconds()
	processingDuration.Observe(res.ElapsedTime)

	if outDir != "" {
		name := uuid.NewString() + ".jpg"
		path := filepath.Join(outDir, name)
		if err := utils.SaveJPEG(annotated, path, p.cfg.JPEGQuality); err != nil {
			imagesProcessed.WithLabelValues(StatusFailed).Inc()
			return nil, fmt.Errorf("save annotated image: %w", err)
		}
		res.ProcessedImage = name
		res.ProcessedImagePath = path
	}

	status := StatusUnpaired
	if res.CanUpload {
		status = StatusPaired
	}
	imagesProcessed.WithLabelValues(status).Inc()
	slog.Info("Image processed",
		"room", res.RoomNumber.Value,
		"full_meter", res.FullMeter,
		"can_upload", res.CanUpload,
		"timing", timer)
	return res, nil
}

// Analysis is the detection and pairing outcome for one image.
type Analysis struct {
	Detections Detections
	Pairing    *Pairing // nil when no room/meter pair exists
}

// Analyze detects and reads every region and pairs them, without rendering.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image) (Analysis, error) {
	dets, err := p.detectRegions(ctx, img)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{Detections: dets}
	if pairing, ok := FindBestPairing(dets, p.cfg.Pairing); ok {
		a.Pairing = &pairing
	}
	return a, nil
}

// buildResult fills the record. Upload eligibility follows the pairing alone.
func buildResult(pairing *Pairing, r Readings, dets Detections) *ProcessingResult {
	room, meter, decimal := fieldFrom(r.Room), fieldFrom(r.Meter), fieldFrom(r.Decimal)
	res := &ProcessingResult{
		RoomNumber:    &room,
		MeterNumber:   &meter,
		DecimalNumber: &decimal,
		FullMeter:     r.FullMeter(),
		CanUpload:     pairing != nil,
	}

	info := &PairingInfo{
		TotalRoomsFound:    len(dets.Rooms),
		TotalMetersFound:   len(dets.Meters),
		TotalDecimalsFound: len(dets.Decimals),
		UnresolvedRegions:  dets.Unresolved,
	}
	if pairing != nil {
		roomCenter, meterCenter := pairing.Room.Center, pairing.Meter.Center
		info.PairingMethod = pairing.Method
		info.Distance = pairing.Distance
		info.Score = pairing.Score
		info.RoomCenter = &roomCenter
		info.MeterCenter = &meterCenter
	} else {
		info.PairingMethod = MethodInsufficientData
		info.Error = ErrMsgIncomplete
	}
	res.PairingInfo = info
	return res
}
