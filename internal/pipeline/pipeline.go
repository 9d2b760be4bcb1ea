// Package pipeline turns a meter photograph into a room number and a meter
// reading: region detection, per-region OCR, pairing, rendering.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/ocr"
	"github.com/MeKo-Tech/meterocr/internal/preprocess"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	ModelsDir     string
	Detector      detector.Config
	Tesseract     ocr.TesseractConfig
	Runner        ocr.RunnerConfig
	ConfThreshold float64 // regions below this detection confidence are dropped
	MinCropSize   int     // regions narrower or shorter than this are dropped
	Pairing       PairingConfig
	JPEGQuality   int

	WarmupIterations int // blank detector runs at Build to reduce first-image latency
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir:     models.GetModelsDir(""),
		Detector:      detector.DefaultConfig(),
		Tesseract:     ocr.DefaultTesseractConfig(),
		Runner:        ocr.DefaultRunnerConfig(),
		ConfThreshold: 0.6,
		MinCropSize:   15,
		Pairing:       DefaultPairingConfig(),
		JPEGQuality:   95,
	}
}

// Validate checks the values that do not depend on the filesystem.
func (c Config) Validate() error {
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %f", c.ConfThreshold)
	}
	if c.MinCropSize < 1 {
		return fmt.Errorf("minimum crop size must be >= 1, got %d", c.MinCropSize)
	}
	if c.Pairing.ProximityRange <= 0 {
		return errors.New("proximity range must be > 0")
	}
	if c.Pairing.DecimalRadius < 0 || c.Pairing.FallbackDecimalRadius < 0 {
		return errors.New("decimal radii must be >= 0")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in [1,100], got %d", c.JPEGQuality)
	}
	if c.WarmupIterations < 0 {
		return fmt.Errorf("warmup iterations must be >= 0, got %d", c.WarmupIterations)
	}
	if c.Runner.Workers < 1 {
		return fmt.Errorf("ocr workers must be >= 1, got %d", c.Runner.Workers)
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// NewBuilderFromConfig starts from an explicit configuration.
func NewBuilderFromConfig(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithModelsDir sets the models directory and updates the region model path.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	b.cfg.Detector.UpdateModelPath(b.cfg.ModelsDir)
	return b
}

// WithDetectorModelPath overrides the region model path directly.
func (b *Builder) WithDetectorModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Detector.ModelPath = path
	}
	return b
}

// WithConfThreshold sets the detection confidence gate.
func (b *Builder) WithConfThreshold(th float64) *Builder {
	if th > 0 {
		b.cfg.ConfThreshold = th
	}
	return b
}

// WithMinCropSize sets the smallest accepted crop edge in pixels.
func (b *Builder) WithMinCropSize(px int) *Builder {
	if px > 0 {
		b.cfg.MinCropSize = px
	}
	return b
}

// WithOCRWorkers sets the ensemble width and the Tesseract pool size.
func (b *Builder) WithOCRWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Runner.Workers = n
		b.cfg.Tesseract.PoolSize = n
	}
	return b
}

// WithLanguage sets the Tesseract traineddata name.
func (b *Builder) WithLanguage(lang string) *Builder {
	if lang != "" {
		b.cfg.Tesseract.Language = lang
	}
	return b
}

// WithTessdataPrefix points Tesseract at a traineddata directory.
func (b *Builder) WithTessdataPrefix(dir string) *Builder {
	b.cfg.Tesseract.TessdataPrefix = dir
	return b
}

// WithPairing replaces the pairing constants.
func (b *Builder) WithPairing(cfg PairingConfig) *Builder {
	b.cfg.Pairing = cfg
	return b
}

// WithThreads sets the detector intra-op thread count (if >0).
func (b *Builder) WithThreads(n int) *Builder {
	if n > 0 {
		b.cfg.Detector.NumThreads = n
	}
	return b
}

// WithGPU enables the CUDA provider for the region model.
func (b *Builder) WithGPU(enabled bool) *Builder {
	b.cfg.Detector.GPU.UseGPU = enabled
	return b
}

// WithGPUDevice sets the CUDA device ID.
func (b *Builder) WithGPUDevice(deviceID int) *Builder {
	b.cfg.Detector.GPU.DeviceID = deviceID
	return b
}

// WithWarmupIterations sets blank detector runs performed by Build.
func (b *Builder) WithWarmupIterations(n int) *Builder {
	if n >= 0 {
		b.cfg.WarmupIterations = n
	}
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the model exists and the configuration looks sane.
func (b *Builder) Validate() error {
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	if err := b.cfg.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}
	if _, err := os.Stat(b.cfg.Detector.ModelPath); err != nil {
		return fmt.Errorf("region model not found: %s", b.cfg.Detector.ModelPath)
	}
	return nil
}

// Build loads the region model and the OCR engine. Both live until Close.
func (b *Builder) Build() (*Pipeline, error) {
	if b.cfg.Detector.ModelPath == "" {
		b.cfg.Detector.UpdateModelPath(b.cfg.ModelsDir)
	}
	if b.cfg.Tesseract.TessdataPrefix == "" {
		b.cfg.Tesseract.TessdataPrefix = models.ResolveTessdataPrefix(b.cfg.ModelsDir)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	det, err := detector.NewDetector(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	if err := det.Warmup(b.cfg.WarmupIterations); err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("detector warmup failed: %w", err)
	}
	engine, err := ocr.NewTesseractEngine(b.cfg.Tesseract)
	if err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("init ocr engine: %w", err)
	}

	reader := ocr.NewReader(preprocess.NewBank(), ocr.NewRunner(engine, b.cfg.Runner))
	p := New(b.cfg, det, reader)
	p.engine = engine
	return p, nil
}

// Pipeline owns the region model and OCR reader for the life of the process.
// Process is safe to call from one goroutine at a time per image; the model
// serializes its own sessions.
type Pipeline struct {
	cfg    Config
	model  detector.Model
	reader RegionReader
	engine ocr.Engine
	closed atomic.Bool
}

// New assembles a pipeline from already constructed components.
func New(cfg Config, model detector.Model, reader RegionReader) *Pipeline {
	return &Pipeline{cfg: cfg, model: model, reader: reader}
}

// Close releases the model and the OCR engine. Later calls are no-ops, and
// processing after Close fails with detector.ErrSessionClosed.
func (p *Pipeline) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	var firstErr error
	if p.engine != nil {
		if err := p.engine.Close(); err != nil {
			firstErr = err
		}
	}
	if p.model != nil {
		if err := p.model.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info returns key pipeline properties and model info.
func (p *Pipeline) Info() map[string]any {
	info := map[string]any{
		"models_dir":     p.cfg.ModelsDir,
		"conf_threshold": p.cfg.ConfThreshold,
		"min_crop_size":  p.cfg.MinCropSize,
		"pairing": map[string]any{
			"proximity_range":         p.cfg.Pairing.ProximityRange,
			"decimal_radius":          p.cfg.Pairing.DecimalRadius,
			"fallback_decimal_radius": p.cfg.Pairing.FallbackDecimalRadius,
		},
		"ocr": map[string]any{
			"language":     p.cfg.Tesseract.Language,
			"tessdata":     p.cfg.Tesseract.TessdataPrefix,
			"workers":      p.cfg.Runner.Workers,
			"task_timeout": p.cfg.Runner.TaskTimeout.String(),
			"passes":       len(p.cfg.Runner.Passes),
		},
	}
	if d, ok := p.model.(*detector.Detector); ok {
		info["detector"] = d.ModelInfo()
	}
	return info
}
