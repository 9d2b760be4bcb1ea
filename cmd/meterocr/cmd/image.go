package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/meterocr/internal/pipeline"
	"github.com/MeKo-Tech/meterocr/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [image files...]",
	Short: "Read room number and meter value from images",
	Long: `Detect the room, meter and decimal regions in one or more photographs,
read them and pair the room with the nearest meter.

A record is printed for every file. Files that cannot be decoded produce an
error record instead of aborting the run.

Examples:
  meterocr image photo.jpg
  meterocr image *.jpg --format json --output results.json
  meterocr image photo.jpg --output-dir annotated`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImage,
}

func runImage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	outDir := cfg.Output.Dir
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
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

	results := make([]*pipeline.ProcessingResult, 0, len(args))
	for _, path := range args {
		if !utils.IsSupportedImage(path) {
			slog.Warn("Unsupported image extension", "path", path)
		}
		res, err := pl.ProcessFile(cmd.Context(), path, outDir)
		if err != nil {
			return fmt.Errorf("processing failed for %s: %w", path, err)
		}
		results = append(results, res)
	}

	final, err := formatResults(results, cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, final, cfg.Output.File)
}

func formatResults(results []*pipeline.ProcessingResult, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		return pipeline.ToJSON(results)
	case outputFormatYAML:
		return pipeline.ToYAML(results)
	case outputFormatText, "":
		var sb strings.Builder
		for _, r := range results {
			sb.WriteString(pipeline.ToPlainText(r))
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeOutput(cmd *cobra.Command, final, outputFile string) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), final)
	return err
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json, yaml)")
	imageCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	imageCmd.Flags().String("output-dir", "", "directory for annotated copies (<uuid>.jpg)")

	for key, flag := range map[string]string{
		"output.format": "format",
		"output.file":   "output",
		"output.dir":    "output-dir",
	} {
		if err := viper.BindPFlag(key, imageCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}
