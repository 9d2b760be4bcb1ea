package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/meterocr/internal/config"
	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/MeKo-Tech/meterocr/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meterocr",
	Short: "Read room numbers and meter readings from photographs",
	Long: `meterocr locates the room number, the meter counter and the decimal
digit in a photograph of a utility meter, reads each region with an ensemble
of Tesseract passes and pairs the room with the nearest meter.

Regions are found by a YOLO model executed with ONNX Runtime.

Examples:
  meterocr image photo.jpg
  meterocr image photo.jpg --format json --output-dir annotated
  meterocr batch ./photos --report-dir results
  meterocr check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/meterocr, /etc/meterocr)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	pf.String("models-dir", defaultModelsDir,
		"directory containing the region model and tessdata (also "+models.EnvModelsDir+")")
	pf.Bool("version", false, "print version information and exit")

	// Pipeline flags shared by image and batch.
	pf.String("model", "", "override region model path (defaults to <models-dir>/"+models.RegionModel+")")
	pf.Float64("conf-threshold", 0.6, "minimum detection confidence for a region")
	pf.Int("min-crop-size", 15, "minimum region width and height in pixels")
	pf.Int("workers", 4, "concurrent OCR passes per region")
	pf.StringP("language", "l", models.DefaultLanguage, "Tesseract language")
	pf.Bool("gpu", false, "enable GPU acceleration using CUDA")
	pf.Int("gpu-device", 0, "CUDA device ID to use")

	bindFlag("verbose", "verbose")
	bindFlag("log_level", "log-level")
	bindFlag("models_dir", "models-dir")
	bindFlag("detector.model_path", "model")
	bindFlag("detector.conf_threshold", "conf-threshold")
	bindFlag("detector.min_crop_size", "min-crop-size")
	bindFlag("ocr.workers", "workers")
	bindFlag("ocr.language", "language")
	bindFlag("gpu.enabled", "gpu")
	bindFlag("gpu.device", "gpu-device")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		cfg := GetConfig()

		logLevel := parseLogLevel(cfg.LogLevel)
		if cfg.Verbose {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initConfig reads in config file and ENV variables if set. Flags are already
// bound at this point, so validation is left to the commands that need a
// usable configuration.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFileWithoutValidation(cfgFile)
	} else {
		globalConfig, err = configLoader.LoadWithoutValidation()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration with command-line flags applied.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Flags bound after the first load only show up on a fresh unmarshal.
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
