// Package detector runs the YOLO region model that locates room numbers,
// meter integer digits and meter decimal digits in a photograph.
package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/mempool"
	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// ErrSessionClosed is returned by Detect after Close.
var ErrSessionClosed = errors.New("detector session is closed")

// Detector wraps an ONNX Runtime session for the region model. The session is
// created once and inference calls are serialized.
type Detector struct {
	config     Config
	classes    []Class
	inputSize  int
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
	mu         sync.Mutex
}

// NewDetector loads the region model and prepares an inference session.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateModelExists(cfg.ModelPath); err != nil {
		return nil, err
	}
	classes, err := classTable(cfg.ClassNames)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	slog.Debug("Initializing region detector",
		"model_path", cfg.ModelPath,
		"gpu_enabled", cfg.GPU.UseGPU,
		"classes", cfg.ClassNames)

	if err := onnx.InitializeEnvironment(cfg.GPU.UseGPU); err != nil {
		return nil, fmt.Errorf("failed to set up ONNX Runtime: %w", err)
	}

	in, out, err := validateModelInfo(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := checkOutputClasses(out.Dimensions, len(classes)); err != nil {
		return nil, err
	}

	session, err := createSession(cfg, in, out)
	if err != nil {
		return nil, err
	}

	size := staticInputSize(in)
	if size == 0 {
		size = cfg.InputSize
	}

	slog.Info("Region detector ready",
		"model_path", cfg.ModelPath,
		"input_size", size,
		"load_time", time.Since(start).String())

	return &Detector{
		config:     cfg,
		classes:    classes,
		inputSize:  size,
		session:    session,
		inputInfo:  in,
		outputInfo: out,
	}, nil
}

// Detect runs the model once on img and returns class-aware NMS survivors in
// descending confidence order. Coordinates are in img's pixel space.
func (d *Detector) Detect(img image.Image) ([]Region, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if img.Bounds().Empty() {
		return nil, errors.New("input image is empty")
	}

	lb := newLetterbox(img.Bounds(), d.inputSize)
	input := lb.tensorData(img)
	defer mempool.PutFloat32(input)
	tensor, err := onnx.NewImageTensor(input, 3, lb.Size, lb.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to build input tensor: %w", err)
	}

	data, shape, err := d.run(tensor)
	if err != nil {
		return nil, err
	}
	defer mempool.PutFloat32(data)

	regions, err := decodeOutput(data, shape, d.classes, d.config.ScoreThreshold, lb)
	if err != nil {
		return nil, err
	}
	kept := NonMaxSuppression(regions, d.config.IOUThreshold)
	if d.config.MaxDetections > 0 && len(kept) > d.config.MaxDetections {
		kept = kept[:d.config.MaxDetections]
	}

	slog.Debug("Region detection complete", "candidates", len(regions), "kept", len(kept))
	return kept, nil
}

// run executes the session under the mutex and copies the output into a pooled buffer.
func (d *Detector) run(tensor onnx.Tensor) ([]float32, []int64, error) {
	if err := tensor.Verify(); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, nil, ErrSessionClosed
	}

	input, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := input.Destroy(); err != nil {
			slog.Warn("failed to destroy input tensor", "error", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := d.session.Run([]onnxruntime_go.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		if err := outputs[0].Destroy(); err != nil {
			slog.Warn("failed to destroy output tensor", "error", err)
		}
	}()

	out, ok := outputs[0].(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}
	data := mempool.GetFloat32(len(out.GetData()))
	copy(data, out.GetData())
	return data, []int64(out.GetShape()), nil
}

// Close releases the inference session. The runtime environment stays initialized
// for the life of the process.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	if err != nil {
		return fmt.Errorf("failed to destroy detector session: %w", err)
	}
	return nil
}

// ModelInfo summarizes the loaded model for diagnostics.
func (d *Detector) ModelInfo() map[string]any {
	return map[string]any{
		"model_path":   d.config.ModelPath,
		"input_name":   d.inputInfo.Name,
		"output_name":  d.outputInfo.Name,
		"input_shape":  d.inputInfo.Dimensions,
		"output_shape": d.outputInfo.Dimensions,
		"input_size":   d.inputSize,
		"classes":      d.config.ClassNames,
		"gpu":          d.config.GPU.UseGPU,
	}
}
