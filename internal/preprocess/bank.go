// Package preprocess builds the labeled image variants fed to the OCR ensemble.
// Each filter is an OpenCV transform of the cropped region.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// Variant is one transformed copy of a crop, labeled with the filter that made it.
type Variant struct {
	Name  string
	Image image.Image
}

// Filter transforms a BGR crop and its grayscale version into a new Mat.
// The returned Mat is owned by the caller.
type Filter struct {
	Name  string
	Apply func(src, gray gocv.Mat) (gocv.Mat, error)
}

// Bank applies a fixed ordered list of filters to each crop.
type Bank struct {
	filters []Filter
}

// NewBank returns the standard filter bank.
func NewBank() *Bank {
	return &Bank{filters: DefaultFilters()}
}

// NewBankWithFilters builds a bank from an explicit filter list.
func NewBankWithFilters(filters []Filter) *Bank {
	return &Bank{filters: filters}
}

// Names returns the variant labels in application order.
func (b *Bank) Names() []string {
	names := make([]string, len(b.filters))
	for i, f := range b.filters {
		names[i] = f.Name
	}
	return names
}

// Apply runs every filter on img. Filters that fail are logged and skipped,
// so the result may be shorter than Names but never errors.
func (b *Bank) Apply(img image.Image) []Variant {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		slog.Debug("filter bank: cannot convert crop", "error", err)
		return nil
	}
	defer closeMat(src)

	gray := gocv.NewMat()
	defer closeMat(gray)
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	variants := make([]Variant, 0, len(b.filters))
	for _, f := range b.filters {
		out, err := runFilter(f, src, gray)
		if err != nil {
			slog.Debug("filter bank: filter skipped", "filter", f.Name, "error", err)
			continue
		}
		variants = append(variants, Variant{Name: f.Name, Image: out})
	}
	return variants
}

// runFilter applies one filter and converts its Mat to an image, containing panics
// raised by the OpenCV bindings.
func runFilter(f Filter, src, gray gocv.Mat) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filter %s panicked: %v", f.Name, r)
		}
	}()

	m, err := f.Apply(src, gray)
	if err != nil {
		return nil, err
	}
	defer closeMat(m)
	if m.Empty() {
		return nil, errors.New("empty result")
	}
	return m.ToImage()
}

func closeMat(m gocv.Mat) {
	if err := m.Close(); err != nil {
		slog.Debug("failed to close mat", "error", err)
	}
}
