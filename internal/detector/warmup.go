package detector

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/mempool"
	"github.com/MeKo-Tech/meterocr/internal/onnx"
)

// Warmup runs a number of forward passes on a blank input so the first real
// image does not pay for lazy kernel and allocator setup.
func (d *Detector) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}
	if d.inputSize <= 0 {
		return ErrSessionClosed
	}

	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, d.inputSize, d.inputSize))
	lb := newLetterbox(img.Bounds(), d.inputSize)
	input := lb.tensorData(img)
	defer mempool.PutFloat32(input)

	tensor, err := onnx.NewImageTensor(input, 3, lb.Size, lb.Size)
	if err != nil {
		return fmt.Errorf("failed to build warmup tensor: %w", err)
	}

	for i := range iterations {
		data, _, err := d.run(tensor)
		if err != nil {
			return fmt.Errorf("warmup iteration %d failed: %w", i+1, err)
		}
		mempool.PutFloat32(data)
	}

	slog.Debug("Region detector warmed up",
		"iterations", iterations,
		"duration", time.Since(start).String())
	return nil
}
