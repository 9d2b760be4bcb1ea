package detector

import (
	"fmt"

	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// decodeOutput turns a YOLO head of shape [1, 4+C, N] (or [1, N, 4+C]) into regions.
// Boxes are cx, cy, w, h in letterbox space followed by one score per class.
func decodeOutput(data []float32, shape []int64, classes []Class, scoreThresh float64, lb letterbox) ([]Region, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("expected output shape [1, 4+C, N], got %v", shape)
	}
	nc := len(classes)
	attrs := int64(4 + nc)

	var n int
	var at func(anchor, attr int) float32
	switch {
	case shape[1] == attrs:
		n = int(shape[2])
		at = func(anchor, attr int) float32 { return data[attr*n+anchor] }
	case shape[2] == attrs:
		n = int(shape[1])
		at = func(anchor, attr int) float32 { return data[anchor*int(attrs)+attr] }
	default:
		return nil, fmt.Errorf("output shape %v does not match %d classes", shape, nc)
	}
	if len(data) < n*int(attrs) {
		return nil, fmt.Errorf("output data length %d too short for shape %v", len(data), shape)
	}

	var regions []Region
	for i := range n {
		best, bestScore := -1, float32(0)
		for c := range nc {
			if s := at(i, 4+c); best < 0 || s > bestScore {
				best, bestScore = c, s
			}
		}
		if float64(bestScore) < scoreThresh {
			continue
		}
		cx, cy, w, h := float64(at(i, 0)), float64(at(i, 1)), float64(at(i, 2)), float64(at(i, 3))
		x1, y1 := lb.toSource(cx-w/2, cy-h/2)
		x2, y2 := lb.toSource(cx+w/2, cy+h/2)
		box := utils.NewBox(
			clampF(x1, float64(lb.Origin.X), float64(lb.Origin.X+lb.SrcW)),
			clampF(y1, float64(lb.Origin.Y), float64(lb.Origin.Y+lb.SrcH)),
			clampF(x2, float64(lb.Origin.X), float64(lb.Origin.X+lb.SrcW)),
			clampF(y2, float64(lb.Origin.Y), float64(lb.Origin.Y+lb.SrcH)),
		)
		regions = append(regions, Region{
			Box:        box,
			Class:      classes[best],
			ClassIndex: best,
			Confidence: float64(bestScore),
		})
	}
	return regions, nil
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
