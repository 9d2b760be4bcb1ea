package detector

import (
	"sort"

	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// ComputeBoxIoU computes intersection over union of two float boxes.
func ComputeBoxIoU(a, b utils.Box) float64 {
	ix1, iy1 := max(a.MinX, b.MinX), max(a.MinY, b.MinY)
	ix2, iy2 := min(a.MaxX, b.MaxX), min(a.MaxY, b.MaxY)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// sortByConfidence orders regions by descending confidence, keeping input order on ties.
func sortByConfidence(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})
}

// NonMaxSuppression performs class-aware greedy NMS. Only boxes of the same class
// suppress each other. The result is sorted by descending confidence.
func NonMaxSuppression(regions []Region, iouThreshold float64) []Region {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sortByConfidence(sorted)
	if len(sorted) <= 1 {
		return sorted
	}

	suppressed := make([]bool, len(sorted))
	kept := make([]Region, 0, len(sorted))
	for a := range sorted {
		if suppressed[a] {
			continue
		}
		kept = append(kept, sorted[a])
		for b := a + 1; b < len(sorted); b++ {
			if suppressed[b] || sorted[b].ClassIndex != sorted[a].ClassIndex {
				continue
			}
			if ComputeBoxIoU(sorted[a].Box, sorted[b].Box) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}
