package cmd

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/ocr"
	"github.com/MeKo-Tech/meterocr/internal/onnx"
	"github.com/spf13/cobra"
)

// checkCmd verifies the runtime dependencies.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check ONNX Runtime, Tesseract and model setup",
	Long: `Verify that the ONNX Runtime library can be loaded, that Tesseract
can be initialized for the configured language and that the region model
exists in the models directory.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()
	pc := cfg.ToPipelineConfig()
	out := cmd.OutOrStdout()
	failed := 0

	report := func(name string, err error, detail string) {
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "FAIL  %-14s %v\n", name, err)
			return
		}
		_, _ = fmt.Fprintf(out, "ok    %-14s %s\n", name, detail)
	}

	lib, err := onnx.FindLibrary(pc.Detector.GPU.UseGPU)
	if err == nil {
		err = onnx.InitializeEnvironment(pc.Detector.GPU.UseGPU)
	}
	report("ONNX Runtime", err, fmt.Sprintf("%s (version %s)", lib, onnx.RuntimeVersion()))

	tess := pc.Tesseract
	tess.PoolSize = 1
	if tess.TessdataPrefix == "" {
		tess.TessdataPrefix = models.ResolveTessdataPrefix(pc.ModelsDir)
	}
	engine, err := ocr.NewTesseractEngine(tess)
	if err == nil {
		err = engine.Close()
	}
	report("Tesseract", err, "language "+tess.Language)

	report("Region model", models.ValidateModelExists(pc.Detector.ModelPath), pc.Detector.ModelPath)

	if failed > 0 {
		return errors.New("one or more checks failed")
	}
	_, _ = fmt.Fprintln(out, "All checks passed.")
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
