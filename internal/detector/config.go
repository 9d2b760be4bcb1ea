package detector

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/onnx"
)

// Config holds configuration for the region model.
type Config struct {
	ModelPath      string         // Path to the ONNX region model
	InputSize      int            // Square letterbox size used when the model input is dynamic
	ScoreThreshold float64        // Pre-NMS class score floor
	IOUThreshold   float64        // Per-class NMS overlap threshold
	MaxDetections  int            // Upper bound on returned regions (0 = unlimited)
	NumThreads     int            // Intra-op threads (0 = runtime default)
	ClassNames     []string       // Model output index to class name
	GPU            onnx.GPUConfig // CUDA execution provider settings
}

// DefaultConfig returns the detector defaults for the bundled model.
func DefaultConfig() Config {
	return Config{
		ModelPath:      models.GetRegionModelPath(""),
		InputSize:      640,
		ScoreThreshold: 0.25,
		IOUThreshold:   0.7,
		MaxDetections:  300,
		ClassNames:     DefaultClassNames(),
		GPU:            onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath points ModelPath at the region model inside modelsDir.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetRegionModelPath(modelsDir)
}

// Validate checks the configuration without touching the filesystem.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		return fmt.Errorf("input size must be a positive multiple of 32, got %d", c.InputSize)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold must be in [0,1], got %f", c.ScoreThreshold)
	}
	if c.IOUThreshold <= 0 || c.IOUThreshold > 1 {
		return fmt.Errorf("IoU threshold must be in (0,1], got %f", c.IOUThreshold)
	}
	if c.MaxDetections < 0 {
		return fmt.Errorf("max detections must be >= 0, got %d", c.MaxDetections)
	}
	if len(c.ClassNames) == 0 {
		return errors.New("class names cannot be empty")
	}
	if _, err := classTable(c.ClassNames); err != nil {
		return err
	}
	return c.GPU.Validate()
}
