package utils

import (
	"image"
	"math"
)

// Point is a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// RectCenter returns the center of an integer rectangle.
func RectCenter(r image.Rectangle) Point {
	return Point{
		X: float64(r.Min.X+r.Max.X) / 2,
		Y: float64(r.Min.Y+r.Max.Y) / 2,
	}
}

// RectIoU computes intersection over union of two rectangles.
func RectIoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}

// Box is an axis-aligned box in float coordinates.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBox constructs a Box ensuring min <= max.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// ToRect truncates a Box to an integer rectangle clamped to bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(b.MinX), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(b.MinY), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(b.MaxX), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(b.MaxY), bounds.Min.Y, bounds.Max.Y)
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
