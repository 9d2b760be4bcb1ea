package batch

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/meterocr/internal/pipeline"
)

// ClassLines renders one report line per detection: "<base>_<j><ext> = <number>".
func ClassLines(filename string, dets []pipeline.Detection) []string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	lines := make([]string, len(dets))
	for j, d := range dets {
		lines[j] = fmt.Sprintf("%s_%d%s = %s", base, j+1, ext, d.Number)
	}
	return lines
}

// SummaryLine renders the best pairing of one image, or notes its absence.
func SummaryLine(filename string, p *pipeline.Pairing) string {
	if p == nil {
		return filename + " = no complete pair"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s = Room: %s, Meter: %s", filename, p.Room.Number, p.Meter.Number)
	if p.Decimal != nil {
		fmt.Fprintf(&b, ", Decimal: %s", p.Decimal.Number)
	}
	fmt.Fprintf(&b, ", Full: %s (score: %.3f, distance: %.1f)", p.FullMeter(), p.Score, p.Distance)
	return b.String()
}

type reportFile struct {
	f *os.File
	w *bufio.Writer
}

// Reports appends evaluation lines to the report files as images complete.
type Reports struct {
	rooms, meters, decimals, summary reportFile
}

// OpenReports creates dir and truncates the four report files.
func OpenReports(dir string) (*Reports, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	r := &Reports{}
	targets := []struct {
		dst  *reportFile
		name string
	}{
		{&r.rooms, RoomReportFile},
		{&r.meters, MeterReportFile},
		{&r.decimals, DecimalReportFile},
		{&r.summary, SummaryReportFile},
	}
	for _, t := range targets {
		f, err := os.Create(filepath.Join(dir, t.name)) //nolint:gosec // G304: report path under the configured directory
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("create %s: %w", t.name, err)
		}
		*t.dst = reportFile{f: f, w: bufio.NewWriter(f)}
	}
	return r, nil
}

// Write appends the lines of one image and flushes them.
func (r *Reports) Write(filename string, a pipeline.Analysis) error {
	err := errors.Join(
		r.rooms.append(ClassLines(filename, a.Detections.Rooms)),
		r.meters.append(ClassLines(filename, a.Detections.Meters)),
		r.decimals.append(ClassLines(filename, a.Detections.Decimals)),
		r.summary.append([]string{SummaryLine(filename, a.Pairing)}),
	)
	if err != nil {
		return fmt.Errorf("write report for %s: %w", filename, err)
	}
	return nil
}

func (rf reportFile) append(lines []string) error {
	for _, l := range lines {
		if _, err := rf.w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return rf.w.Flush()
}

// Close flushes and closes every report file.
func (r *Reports) Close() error {
	var errs []error
	for _, rf := range []reportFile{r.rooms, r.meters, r.decimals, r.summary} {
		if rf.f == nil {
			continue
		}
		errs = append(errs, rf.w.Flush(), rf.f.Close())
	}
	return errors.Join(errs...)
}
