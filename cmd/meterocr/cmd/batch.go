package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/meterocr/internal/batch"
	"github.com/MeKo-Tech/meterocr/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// batchCmd evaluates the pipeline over a folder.
var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Evaluate a folder of images and write report files",
	Long: `Run detection, reading and pairing over every image in a folder, in
natural file name order, and append the results to report files:

  roomN.txt    room detections, one line per region
  meter.txt    meter detections
  meter1.txt   decimal detections
  summary.txt  the best pair per image, or "no complete pair"

Existing report files are appended to.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	bc := batch.Config{
		ReportDir:       cfg.Batch.ReportDir,
		Recursive:       cfg.Batch.Recursive,
		ContinueOnError: cfg.Batch.ContinueOnError,
		MetricsFile:     cfg.Batch.MetricsFile,
	}
	if cfg.Batch.Progress {
		bc.Progress = batch.NewConsoleProgressCallback(cmd.ErrOrStderr())
	}

	files, err := batch.DiscoverImages(args[0], bc.Recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", args[0])
	}

	pl, err := pipeline.NewBuilderFromConfig(cfg.ToPipelineConfig()).Build()
	if err != nil {
		return fmt.Errorf("failed to build meter pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			slog.Warn("Error closing pipeline", "error", err)
		}
	}()

	slog.Info("Starting batch", "folder", args[0], "files", len(files), "reports", bc.ReportDir)
	stats, runErr := batch.Run(cmd.Context(), pl, files, bc)
	if stats != nil {
		batch.FormatStats(cmd.OutOrStdout(), stats, bc.ReportDir)
	}
	if bc.MetricsFile != "" {
		if err := batch.WriteMetrics(bc.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics", "file", bc.MetricsFile, "error", err)
		}
	}
	return runErr
}

func init() {
	rootCmd.AddCommand(batchCmd)

	d := batch.DefaultConfig()
	batchCmd.Flags().String("report-dir", d.ReportDir, "directory for the report files")
	batchCmd.Flags().BoolP("recursive", "r", d.Recursive, "descend into subdirectories")
	batchCmd.Flags().String("metrics-file", d.MetricsFile, "write Prometheus metrics in text format after the run")
	batchCmd.Flags().Bool("continue-on-error", d.ContinueOnError, "keep going when detection fails for a file")
	batchCmd.Flags().Bool("progress", false, "draw a progress bar on stderr instead of logging progress")

	for key, flag := range map[string]string{
		"batch.report_dir":        "report-dir",
		"batch.recursive":         "recursive",
		"batch.metrics_file":      "metrics-file",
		"batch.continue_on_error": "continue-on-error",
		"batch.progress":          "progress",
	} {
		if err := viper.BindPFlag(key, batchCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}
