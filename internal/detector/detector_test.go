package detector

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/onnx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetectorRejectsMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "absent.onnx")
	_, err := NewDetector(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")
}

func TestNewDetectorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputSize = 0
	_, err := NewDetector(cfg)
	assert.Error(t, err)
}

func TestCheckOutputClasses(t *testing.T) {
	assert.NoError(t, checkOutputClasses([]int64{1, 7, 8400}, 3))
	assert.NoError(t, checkOutputClasses([]int64{1, 8400, 7}, 3))
	assert.NoError(t, checkOutputClasses([]int64{1, -1, -1}, 3))
	assert.Error(t, checkOutputClasses([]int64{1, 6, 8400}, 3))
}

func TestDetectorCloseIsIdempotent(t *testing.T) {
	d := &Detector{}
	assert.NoError(t, d.Close())
	_, _, err := d.run(mustTensor(t))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestDetectRealModel(t *testing.T) {
	path := models.GetRegionModelPath("")
	if _, err := os.Stat(path); err != nil {
		t.Skip("region model not available")
	}
	cfg := DefaultConfig()
	cfg.ModelPath = path
	d, err := NewDetector(cfg)
	if err != nil {
		t.Skipf("ONNX Runtime not available: %v", err)
	}
	defer func() { assert.NoError(t, d.Close()) }()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := range 240 {
		for x := range 320 {
			img.Set(x, y, color.White)
		}
	}
	regions, err := d.Detect(img)
	require.NoError(t, err)
	for _, r := range regions {
		assert.GreaterOrEqual(t, r.Confidence, cfg.ScoreThreshold)
		assert.NotEqual(t, ClassUnknown, r.Class)
	}
}

func mustTensor(t *testing.T) onnx.Tensor {
	t.Helper()
	tensor, err := onnx.NewImageTensor(make([]float32, 3*32*32), 3, 32, 32)
	require.NoError(t, err)
	return tensor
}
