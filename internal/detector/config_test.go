package detector

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 640, cfg.InputSize)
	assert.InDelta(t, 0.7, cfg.IOUThreshold, 1e-9)
	assert.Equal(t, models.RegionModel, filepath.Base(cfg.ModelPath))
}

func TestUpdateModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpdateModelPath("/opt/meterocr/models")
	assert.Equal(t, filepath.Join("/opt/meterocr/models", models.RegionModel), cfg.ModelPath)
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model path", func(c *Config) { c.ModelPath = "" }},
		{"input not multiple of 32", func(c *Config) { c.InputSize = 600 }},
		{"score above one", func(c *Config) { c.ScoreThreshold = 1.5 }},
		{"zero iou", func(c *Config) { c.IOUThreshold = 0 }},
		{"negative max", func(c *Config) { c.MaxDetections = -1 }},
		{"no classes", func(c *Config) { c.ClassNames = nil }},
		{"bad class", func(c *Config) { c.ClassNames = []string{"meter", "clock"} }},
		{"bad gpu", func(c *Config) { c.GPU.UseGPU = true; c.GPU.DeviceID = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
