package detector

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/meterocr/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// validateModelInfo reads the model signature and checks it is a single-input,
// single-output image model.
func validateModelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	var none onnxruntime_go.InputOutputInfo
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return none, none, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return none, none, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return none, none, fmt.Errorf("expected at least 1 output, got %d", len(outputs))
	}
	if len(inputs[0].Dimensions) != 4 {
		return none, none, fmt.Errorf("expected 4D input tensor, got %dD", len(inputs[0].Dimensions))
	}
	if len(outputs[0].Dimensions) != 3 {
		return none, none, fmt.Errorf("expected 3D output tensor, got %dD", len(outputs[0].Dimensions))
	}
	return inputs[0], outputs[0], nil
}

// createSession builds the inference session for the region model.
func createSession(cfg Config, in, out onnxruntime_go.InputOutputInfo) (*onnxruntime_go.DynamicAdvancedSession, error) {
	opts, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			slog.Warn("failed to destroy session options", "error", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(opts, cfg.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}

// staticInputSize returns the square input side declared by the model, or 0 if dynamic.
func staticInputSize(in onnxruntime_go.InputOutputInfo) int {
	h, w := in.Dimensions[2], in.Dimensions[3]
	if h > 0 && h == w {
		return int(h)
	}
	return 0
}

// checkOutputClasses verifies a static output head carries 4 box values plus one
// score per configured class. Dynamic dimensions are checked at decode time.
func checkOutputClasses(dims onnxruntime_go.Shape, numClasses int) error {
	a, b := dims[1], dims[2]
	if a <= 0 || b <= 0 {
		return nil
	}
	want := int64(4 + numClasses)
	if a != want && b != want {
		return fmt.Errorf("model output %v does not match %d configured classes", dims, numClasses)
	}
	return nil
}
