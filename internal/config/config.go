// Package config loads meterocr settings from defaults, a config file,
// METEROCR_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/ocr"
	"github.com/MeKo-Tech/meterocr/internal/pipeline"
)

// Config represents the complete configuration for the meterocr application.
type Config struct {
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level"  yaml:"log_level"  json:"log_level"`
	Verbose   bool   `mapstructure:"verbose"    yaml:"verbose"    json:"verbose"`

	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	OCR      OCRConfig      `mapstructure:"ocr"      yaml:"ocr"      json:"ocr"`
	Pairing  PairingConfig  `mapstructure:"pairing"  yaml:"pairing"  json:"pairing"`
	Output   OutputConfig   `mapstructure:"output"   yaml:"output"   json:"output"`
	Batch    BatchConfig    `mapstructure:"batch"    yaml:"batch"    json:"batch"`
	GPU      GPUConfig      `mapstructure:"gpu"      yaml:"gpu"      json:"gpu"`
}

// DetectorConfig contains region detection settings.
type DetectorConfig struct {
	ModelPath        string   `mapstructure:"model_path"        yaml:"model_path"        json:"model_path"`
	ConfThreshold    float64  `mapstructure:"conf_threshold"    yaml:"conf_threshold"    json:"conf_threshold"`
	ScoreThreshold   float64  `mapstructure:"score_threshold"   yaml:"score_threshold"   json:"score_threshold"`
	IOUThreshold     float64  `mapstructure:"iou_threshold"     yaml:"iou_threshold"     json:"iou_threshold"`
	InputSize        int      `mapstructure:"input_size"        yaml:"input_size"        json:"input_size"`
	NumThreads       int      `mapstructure:"num_threads"       yaml:"num_threads"       json:"num_threads"`
	MinCropSize      int      `mapstructure:"min_crop_size"     yaml:"min_crop_size"     json:"min_crop_size"`
	ClassNames       []string `mapstructure:"class_names"       yaml:"class_names"       json:"class_names"`
	WarmupIterations int      `mapstructure:"warmup_iterations" yaml:"warmup_iterations" json:"warmup_iterations"`
}

// OCRConfig contains Tesseract and ensemble settings.
type OCRConfig struct {
	Language       string `mapstructure:"language"        yaml:"language"        json:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	Workers        int    `mapstructure:"workers"         yaml:"workers"         json:"workers"`
	TaskTimeoutMS  int    `mapstructure:"task_timeout_ms" yaml:"task_timeout_ms" json:"task_timeout_ms"`
}

// PairingConfig contains the pairing geometry.
type PairingConfig struct {
	ProximityRange        float64 `mapstructure:"proximity_range"         yaml:"proximity_range"         json:"proximity_range"`
	DecimalRadius         float64 `mapstructure:"decimal_radius"          yaml:"decimal_radius"          json:"decimal_radius"`
	FallbackDecimalRadius float64 `mapstructure:"fallback_decimal_radius" yaml:"fallback_decimal_radius" json:"fallback_decimal_radius"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format      string `mapstructure:"format"       yaml:"format"       json:"format"`
	Dir         string `mapstructure:"dir"          yaml:"dir"          json:"dir"`
	File        string `mapstructure:"file"         yaml:"file"         json:"file"`
	JPEGQuality int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// BatchConfig contains folder evaluation settings.
type BatchConfig struct {
	ReportDir       string `mapstructure:"report_dir"        yaml:"report_dir"        json:"report_dir"`
	Recursive       bool   `mapstructure:"recursive"         yaml:"recursive"         json:"recursive"`
	MetricsFile     string `mapstructure:"metrics_file"      yaml:"metrics_file"      json:"metrics_file"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Progress        bool   `mapstructure:"progress"          yaml:"progress"          json:"progress"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"      json:"enabled"`
	Device      int    `mapstructure:"device"       yaml:"device"       json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	pl := pipeline.DefaultConfig()
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Detector: DetectorConfig{
			ConfThreshold:  pl.ConfThreshold,
			ScoreThreshold: det.ScoreThreshold,
			IOUThreshold:   det.IOUThreshold,
			InputSize:      det.InputSize,
			NumThreads:     det.NumThreads,
			MinCropSize:    pl.MinCropSize,
			ClassNames:     det.ClassNames,
		},
		OCR: OCRConfig{
			Language: models.DefaultLanguage,
			Workers:  ocr.DefaultWorkers,
		},
		Pairing: PairingConfig{
			ProximityRange:        pl.Pairing.ProximityRange,
			DecimalRadius:         pl.Pairing.DecimalRadius,
			FallbackDecimalRadius: pl.Pairing.FallbackDecimalRadius,
		},
		Output: OutputConfig{
			Format:      "text",
			JPEGQuality: pl.JPEGQuality,
		},
		Batch: BatchConfig{
			ReportDir:       "results",
			ContinueOnError: true,
		},
		GPU: GPUConfig{
			MemoryLimit: "auto",
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	for name, v := range map[string]float64{
		"detector.conf_threshold":  c.Detector.ConfThreshold,
		"detector.score_threshold": c.Detector.ScoreThreshold,
		"detector.iou_threshold":   c.Detector.IOUThreshold,
	} {
		if err := validateThreshold(v, name); err != nil {
			return err
		}
	}

	if c.Detector.InputSize < 32 || c.Detector.InputSize%32 != 0 {
		return fmt.Errorf("invalid detector input size: %d (must be a positive multiple of 32)", c.Detector.InputSize)
	}
	if c.Detector.MinCropSize <= 0 {
		return fmt.Errorf("invalid detector min crop size: %d (must be positive)", c.Detector.MinCropSize)
	}
	if c.Detector.WarmupIterations < 0 {
		return fmt.Errorf("invalid detector warmup iterations: %d (must not be negative)", c.Detector.WarmupIterations)
	}
	if c.Detector.NumThreads < 0 {
		return fmt.Errorf("invalid detector threads: %d (must not be negative)", c.Detector.NumThreads)
	}
	for _, name := range c.Detector.ClassNames {
		if _, err := detector.ParseClass(name); err != nil {
			return fmt.Errorf("invalid detector class names: %w", err)
		}
	}
	if c.OCR.Workers <= 0 {
		return fmt.Errorf("invalid ocr workers: %d (must be positive)", c.OCR.Workers)
	}
	if c.OCR.TaskTimeoutMS < 0 {
		return fmt.Errorf("invalid ocr task timeout: %d (must not be negative)", c.OCR.TaskTimeoutMS)
	}
	if c.Pairing.ProximityRange <= 0 {
		return fmt.Errorf("invalid pairing proximity range: %.1f (must be positive)", c.Pairing.ProximityRange)
	}
	if c.Pairing.DecimalRadius < 0 || c.Pairing.FallbackDecimalRadius < 0 {
		return fmt.Errorf("invalid pairing decimal radius (must not be negative)")
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1 and 100)", c.Output.JPEGQuality)
	}
	if c.GPU.Device < 0 {
		return fmt.Errorf("invalid GPU device: %d (must not be negative)", c.GPU.Device)
	}
	if _, err := parseMemoryLimit(c.GPU.MemoryLimit); err != nil {
		return fmt.Errorf("invalid GPU memory limit: %w", err)
	}
	return nil
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ModelsDir = models.GetModelsDir(c.ModelsDir)
	cfg.Detector = c.toDetectorConfig(cfg.ModelsDir)
	cfg.ConfThreshold = c.Detector.ConfThreshold
	cfg.MinCropSize = c.Detector.MinCropSize
	cfg.WarmupIterations = c.Detector.WarmupIterations

	cfg.Tesseract.Language = c.OCR.Language
	cfg.Tesseract.TessdataPrefix = c.OCR.TessdataPrefix
	cfg.Tesseract.PoolSize = c.OCR.Workers
	cfg.Runner.Workers = c.OCR.Workers
	cfg.Runner.TaskTimeout = time.Duration(c.OCR.TaskTimeoutMS) * time.Millisecond

	cfg.Pairing = pipeline.PairingConfig{
		ProximityRange:        c.Pairing.ProximityRange,
		DecimalRadius:         c.Pairing.DecimalRadius,
		FallbackDecimalRadius: c.Pairing.FallbackDecimalRadius,
	}
	cfg.JPEGQuality = c.Output.JPEGQuality
	return cfg
}

func (c *Config) toDetectorConfig(modelsDir string) detector.Config {
	cfg := detector.DefaultConfig()
	cfg.UpdateModelPath(modelsDir)
	if c.Detector.ModelPath != "" {
		cfg.ModelPath = c.Detector.ModelPath
	}
	cfg.ScoreThreshold = c.Detector.ScoreThreshold
	cfg.IOUThreshold = c.Detector.IOUThreshold
	cfg.InputSize = c.Detector.InputSize
	cfg.NumThreads = c.Detector.NumThreads
	if len(c.Detector.ClassNames) > 0 {
		cfg.ClassNames = c.Detector.ClassNames
	}
	cfg.GPU.UseGPU = c.GPU.Enabled
	cfg.GPU.DeviceID = c.GPU.Device
	cfg.GPU.GPUMemLimit, _ = parseMemoryLimit(c.GPU.MemoryLimit)
	return cfg
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// parseMemoryLimit converts "auto", "" or a size like "512MB" to bytes.
// Zero means unlimited.
func parseMemoryLimit(limit string) (uint64, error) {
	limit = strings.ToUpper(strings.TrimSpace(limit))
	if limit == "" || limit == "AUTO" {
		return 0, nil
	}
	units := []struct {
		suffix string
		scale  float64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(limit, u.suffix) {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(limit, u.suffix), 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid number in memory limit: %s", limit)
		}
		return uint64(n * u.scale), nil
	}
	return 0, fmt.Errorf("memory limit must end with one of: B, KB, MB, GB")
}
