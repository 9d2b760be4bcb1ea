package config

import (
	"testing"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "models", cfg.ModelsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 0.6, cfg.Detector.ConfThreshold, 1e-9)
	assert.Equal(t, 15, cfg.Detector.MinCropSize)
	assert.Equal(t, 640, cfg.Detector.InputSize)
	assert.Equal(t, detector.DefaultClassNames(), cfg.Detector.ClassNames)
	assert.Equal(t, 4, cfg.OCR.Workers)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.InDelta(t, 1000.0, cfg.Pairing.ProximityRange, 1e-9)
	assert.InDelta(t, 200.0, cfg.Pairing.DecimalRadius, 1e-9)
	assert.InDelta(t, 600.0, cfg.Pairing.FallbackDecimalRadius, 1e-9)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 95, cfg.Output.JPEGQuality)
	assert.Equal(t, "auto", cfg.GPU.MemoryLimit)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"format", func(c *Config) { c.Output.Format = "csv" }, "invalid output format"},
		{"conf threshold", func(c *Config) { c.Detector.ConfThreshold = 1.5 }, "detector.conf_threshold"},
		{"iou threshold", func(c *Config) { c.Detector.IOUThreshold = -0.1 }, "detector.iou_threshold"},
		{"input size", func(c *Config) { c.Detector.InputSize = 600 }, "input size"},
		{"min crop", func(c *Config) { c.Detector.MinCropSize = 0 }, "min crop size"},
		{"warmup", func(c *Config) { c.Detector.WarmupIterations = -1 }, "warmup iterations"},
		{"class names", func(c *Config) { c.Detector.ClassNames = []string{"room", "gas"} }, "class names"},
		{"workers", func(c *Config) { c.OCR.Workers = 0 }, "ocr workers"},
		{"timeout", func(c *Config) { c.OCR.TaskTimeoutMS = -1 }, "task timeout"},
		{"proximity", func(c *Config) { c.Pairing.ProximityRange = 0 }, "proximity range"},
		{"radius", func(c *Config) { c.Pairing.DecimalRadius = -1 }, "decimal radius"},
		{"jpeg", func(c *Config) { c.Output.JPEGQuality = 101 }, "jpeg quality"},
		{"gpu device", func(c *Config) { c.GPU.Device = -1 }, "GPU device"},
		{"memory limit", func(c *Config) { c.GPU.MemoryLimit = "lots" }, "memory limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"auto", 0, false},
		{"512MB", 512 << 20, false},
		{"1gb", 1 << 30, false},
		{"2048", 0, true},
		{"xMB", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMemoryLimit(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = t.TempDir()
	cfg.Detector.ConfThreshold = 0.7
	cfg.Detector.MinCropSize = 20
	cfg.Detector.NumThreads = 2
	cfg.Detector.WarmupIterations = 3
	cfg.OCR.Workers = 6
	cfg.OCR.TaskTimeoutMS = 1500
	cfg.OCR.Language = "deu"
	cfg.Pairing.DecimalRadius = 150
	cfg.Output.JPEGQuality = 80
	cfg.GPU.Enabled = true
	cfg.GPU.Device = 1
	cfg.GPU.MemoryLimit = "1GB"

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, cfg.ModelsDir, pc.ModelsDir)
	assert.Contains(t, pc.Detector.ModelPath, cfg.ModelsDir)
	assert.InDelta(t, 0.7, pc.ConfThreshold, 1e-9)
	assert.Equal(t, 20, pc.MinCropSize)
	assert.Equal(t, 2, pc.Detector.NumThreads)
	assert.Equal(t, 3, pc.WarmupIterations)
	assert.Equal(t, 6, pc.Runner.Workers)
	assert.Equal(t, 6, pc.Tesseract.PoolSize)
	assert.Equal(t, 1500*time.Millisecond, pc.Runner.TaskTimeout)
	assert.Equal(t, "deu", pc.Tesseract.Language)
	assert.InDelta(t, 150.0, pc.Pairing.DecimalRadius, 1e-9)
	assert.Equal(t, 80, pc.JPEGQuality)
	assert.True(t, pc.Detector.GPU.UseGPU)
	assert.Equal(t, 1, pc.Detector.GPU.DeviceID)
	assert.Equal(t, uint64(1<<30), pc.Detector.GPU.GPUMemLimit)
	require.NoError(t, pc.Validate())
}

func TestToPipelineConfigExplicitModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.ModelPath = "/opt/models/custom.onnx"
	assert.Equal(t, "/opt/models/custom.onnx", cfg.ToPipelineConfig().Detector.ModelPath)
}
