package pipeline

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/MeKo-Tech/meterocr/internal/ocr"
	"github.com/MeKo-Tech/meterocr/internal/testutil"
	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// fakeModel returns a fixed region list.
type fakeModel struct {
	regions []detector.Region
	err     error
	closed  atomic.Int32
}

func (m *fakeModel) Detect(image.Image) ([]detector.Region, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.regions, nil
}

func (m *fakeModel) Close() error {
	m.closed.Add(1)
	return nil
}

// sizeReader answers by crop size; regions in a test get distinct widths.
type sizeReader struct {
	answers map[image.Point]ocr.Selection
	priors  []ocr.Prior
}

func newSizeReader() *sizeReader {
	return &sizeReader{answers: map[image.Point]ocr.Selection{}}
}

func (r *sizeReader) Read(_ context.Context, crop image.Image, prior ocr.Prior) (ocr.Selection, bool) {
	r.priors = append(r.priors, prior)
	sel, ok := r.answers[crop.Bounds().Size()]
	return sel, ok
}

// scene accumulates regions and the reader answers for them.
type scene struct {
	model  *fakeModel
	reader *sizeReader
	next   int
}

func newScene() *scene {
	return &scene{model: &fakeModel{}, reader: newSizeReader()}
}

// add places a 20 px tall region centered on (cx, cy). Widths are even and
// unique so the center is exact and the reader can tell crops apart.
func (s *scene) add(class detector.Class, text string, ocrConf, detConf float64, cx, cy int) {
	w := 40 + 2*s.next
	s.next++
	h := 20
	x1, y1 := float64(cx-w/2), float64(cy-h/2)
	s.model.regions = append(s.model.regions, detector.Region{
		Box:        utils.NewBox(x1, y1, x1+float64(w), y1+float64(h)),
		Class:      class,
		Confidence: detConf,
	})
	if text != "" {
		s.reader.answers[image.Pt(w, h)] = ocr.Selection{Text: text, Confidence: ocrConf, Method: "gray_base"}
	}
}

func (s *scene) pipeline() *Pipeline {
	return New(DefaultConfig(), s.model, s.reader)
}

func sceneImage() *image.RGBA {
	return testutil.SolidImage(1200, 800, color.Gray{Y: 200})
}

func det(class detector.Class, number string, ocrConf, detConf, cx, cy float64) Detection {
	return Detection{
		Class:         class,
		Box:           image.Rect(int(cx)-20, int(cy)-10, int(cx)+20, int(cy)+10),
		Center:        utils.Point{X: cx, Y: cy},
		DetConfidence: detConf,
		Number:        number,
		OCRConfidence: ocrConf,
		Method:        "gray_base",
	}
}
