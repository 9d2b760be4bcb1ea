package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/common"
	"github.com/MeKo-Tech/meterocr/internal/pipeline"
	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// Analyzer detects, reads and pairs the regions of one image.
// *pipeline.Pipeline implements it.
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image) (pipeline.Analysis, error)
}

// Stats summarizes a batch run.
type Stats struct {
	Total     int
	Processed int
	Errors    int
	Paired    int
	TotalTime time.Duration
}

// AverageTime is the mean processing time of successfully processed files.
func (s Stats) AverageTime() time.Duration {
	if s.Processed == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Processed)
}

// Run evaluates every file in order and appends report lines as each completes.
// Unreadable files count as errors and are skipped. Detection failures stop the
// run unless ContinueOnError is set.
func Run(ctx context.Context, an Analyzer, files []string, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	reports, err := OpenReports(cfg.ReportDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reports.Close(); err != nil {
			slog.Warn("Error closing reports", "error", err)
		}
	}()

	progress := cfg.Progress
	if progress == nil {
		progress = NewLogProgressCallback(nil, slog.LevelInfo)
	}

	stats := &Stats{Total: len(files)}
	progress.OnStart(stats.Total)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		name := filepath.Base(path)

		timer := common.NewNamedTimer(name)
		img, _, err := utils.LoadImage(path)
		if err != nil {
			stats.Errors++
			filesTotal.WithLabelValues("unreadable").Inc()
			slog.Warn("Unreadable image", "file", name, "error", err)
			progress.OnError(i+1, err)
			progress.OnProgress(i+1, stats.Total)
			continue
		}
		a, err := an.Analyze(ctx, img)
		if err != nil {
			stats.Errors++
			filesTotal.WithLabelValues("failed").Inc()
			progress.OnError(i+1, err)
			if !cfg.ContinueOnError {
				return stats, fmt.Errorf("analyze %s: %w", name, err)
			}
			slog.Error("Analysis failed", "file", name, "error", err)
			progress.OnProgress(i+1, stats.Total)
			continue
		}
		elapsed := timer.Stop()

		if err := reports.Write(name, a); err != nil {
			return stats, err
		}
		stats.Processed++
		stats.TotalTime += elapsed
		status := "unpaired"
		if a.Pairing != nil {
			stats.Paired++
			status = "paired"
		}
		filesTotal.WithLabelValues(status).Inc()

		slog.Debug("Image evaluated",
			"file", name,
			"rooms", len(a.Detections.Rooms),
			"meters", len(a.Detections.Meters),
			"decimals", len(a.Detections.Decimals),
			"paired", a.Pairing != nil,
			"elapsed", elapsed)
		progress.OnProgress(i+1, stats.Total)
	}
	progress.OnComplete()
	return stats, nil
}

// FormatStats prints the end-of-run summary.
func FormatStats(w io.Writer, s *Stats, reportDir string) {
	_, _ = fmt.Fprintf(w, "Files:      %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Processed:  %d\n", s.Processed)
	_, _ = fmt.Fprintf(w, "Paired:     %d\n", s.Paired)
	_, _ = fmt.Fprintf(w, "Errors:     %d\n", s.Errors)
	_, _ = fmt.Fprintf(w, "Total time: %.2fs\n", s.TotalTime.Seconds())
	_, _ = fmt.Fprintf(w, "Average:    %.2fs\n", s.AverageTime().Seconds())
	_, _ = fmt.Fprintf(w, "Reports:    %s\n", reportDir)
}
