package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// RotationAngles are the small deskew angles tried for each crop, in degrees.
var RotationAngles = []float64{-3, -1, 1, 3}

// DefaultFilters returns the standard filters in the order their variants are emitted.
func DefaultFilters() []Filter {
	filters := []Filter{
		{Name: "original_enhanced", Apply: enhanceLightness},
		{Name: "gray", Apply: grayCopy},
		{Name: "clahe", Apply: claheGray},
		{Name: "enlarged", Apply: enlarge},
		{Name: "adjusted", Apply: adjust},
		{Name: "denoised", Apply: denoise},
		{Name: "otsu", Apply: otsu},
		{Name: "adaptive", Apply: adaptive},
		{Name: "binary", Apply: binary},
		{Name: "bg_removed", Apply: removeBackground},
	}
	for _, a := range RotationAngles {
		filters = append(filters, Filter{Name: fmt.Sprintf("rotated_%g", a), Apply: rotate(a)})
	}
	return filters
}

// enhanceLightness equalizes the L channel in LAB space and converts back to BGR.
func enhanceLightness(src, _ gocv.Mat) (gocv.Mat, error) {
	lab := gocv.NewMat()
	defer closeMat(lab)
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for _, c := range channels {
			closeMat(c)
		}
	}()
	if len(channels) != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3 LAB channels, got %d", len(channels))
	}

	clahe := gocv.NewCLAHEWithParams(3.0, image.Pt(8, 8))
	defer clahe.Close()
	l := gocv.NewMat()
	clahe.Apply(channels[0], &l)
	closeMat(channels[0])
	channels[0] = l

	merged := gocv.NewMat()
	defer closeMat(merged)
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out, nil
}

func grayCopy(_, gray gocv.Mat) (gocv.Mat, error) {
	return gray.Clone(), nil
}

func claheGray(_, gray gocv.Mat) (gocv.Mat, error) {
	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	out := gocv.NewMat()
	clahe.Apply(gray, &out)
	return out, nil
}

func enlarge(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.Resize(gray, &out, image.Pt(gray.Cols()*2, gray.Rows()*2), 0, 0, gocv.InterpolationCubic)
	return out, nil
}

// adjust applies saturate(1.2*p + 10).
func adjust(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.ConvertScaleAbs(gray, &out, 1.2, 10)
	return out, nil
}

func denoise(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.FastNlMeansDenoisingWithParams(gray, &out, 10, 7, 21)
	return out, nil
}

func otsu(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.Threshold(gray, &out, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
	return out, nil
}

func adaptive(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &out, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
	return out, nil
}

func binary(_, gray gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.Threshold(gray, &out, 127, 255, gocv.ThresholdBinary)
	return out, nil
}

// removeBackground blurs then applies an inverted Otsu threshold.
func removeBackground(_, gray gocv.Mat) (gocv.Mat, error) {
	blurred := gocv.NewMat()
	defer closeMat(blurred)
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	out := gocv.NewMat()
	gocv.Threshold(blurred, &out, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)
	return out, nil
}

// rotate turns the grayscale crop about its center, replicating edge pixels.
func rotate(angle float64) func(_, gray gocv.Mat) (gocv.Mat, error) {
	return func(_, gray gocv.Mat) (gocv.Mat, error) {
		w, h := gray.Cols(), gray.Rows()
		m := gocv.GetRotationMatrix2D(image.Pt(w/2, h/2), angle, 1.0)
		defer closeMat(m)

		out := gocv.NewMat()
		gocv.WarpAffineWithParams(gray, &out, m, image.Pt(w, h),
			gocv.InterpolationCubic, gocv.BorderReplicate, color.RGBA{})
		return out, nil
	}
}
