// Package batch evaluates the pipeline over a folder of meter photographs and
// writes per-class and summary report files.
package batch

import (
	"errors"
)

// Report file names inside the report directory.
const (
	RoomReportFile    = "roomN.txt"
	MeterReportFile   = "meter.txt"
	DecimalReportFile = "meter1.txt"
	SummaryReportFile = "summary.txt"
)

// Config holds batch evaluation settings.
type Config struct {
	ReportDir       string // where the report files are written
	Recursive       bool   // descend into subdirectories
	ContinueOnError bool   // keep going after a detection failure
	MetricsFile     string // optional Prometheus textfile written after the run

	// Progress receives per-file updates; nil logs them through slog.
	Progress ProgressCallback
}

// DefaultConfig returns the batch defaults.
func DefaultConfig() Config {
	return Config{
		ReportDir:       "results",
		ContinueOnError: true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ReportDir == "" {
		return errors.New("report directory cannot be empty")
	}
	return nil
}
