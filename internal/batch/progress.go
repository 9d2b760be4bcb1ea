package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives progress notifications from Run. current is the
// 1-based index of the file just finished.
type ProgressCallback interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnError(current int, err error)
	OnComplete()
}

// NoOpProgressCallback discards all progress updates.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnError(int, error)  {}
func (NoOpProgressCallback) OnComplete()         {}

// eta extrapolates the remaining time from the mean time per finished file.
func eta(elapsed time.Duration, current, total int) time.Duration {
	if current <= 0 || current >= total {
		return 0
	}
	return elapsed / time.Duration(current) * time.Duration(total-current)
}

// LogProgressCallback reports progress through slog.
type LogProgressCallback struct {
	logger    *slog.Logger
	level     slog.Level
	interval  int // log every N files
	lastLog   int
	startTime time.Time
	now       func() time.Time
}

// NewLogProgressCallback creates a log based reporter. A nil logger uses slog.Default.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 1, now: time.Now}
}

// WithInterval sets how often progress is logged (every N files).
func (l *LogProgressCallback) WithInterval(n int) *LogProgressCallback {
	if n > 0 {
		l.interval = n
	}
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.startTime = l.now()
	l.lastLog = 0
	l.logger.Log(context.Background(), l.level, "Batch started", "total", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	elapsed := l.now().Sub(l.startTime)
	l.logger.Log(context.Background(), l.level, "Batch progress",
		"current", current,
		"total", total,
		"percent", fmt.Sprintf("%.1f", float64(current)/float64(total)*100),
		"elapsed", elapsed.Round(time.Millisecond),
		"eta", eta(elapsed, current, total).Round(time.Second))
}

func (l *LogProgressCallback) OnError(current int, err error) {
	l.logger.Log(context.Background(), slog.LevelWarn, "Batch file failed", "current", current, "error", err)
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Log(context.Background(), l.level, "Batch completed", "elapsed", l.now().Sub(l.startTime).Round(time.Millisecond))
}

// ConsoleProgressCallback draws a single-line progress bar.
type ConsoleProgressCallback struct {
	mu         sync.Mutex
	writer     io.Writer
	width      int
	minGap     time.Duration
	startTime  time.Time
	lastUpdate time.Time
	now        func() time.Time
}

// NewConsoleProgressCallback creates a bar reporter writing to w.
func NewConsoleProgressCallback(w io.Writer) *ConsoleProgressCallback {
	return &ConsoleProgressCallback{
		writer: w,
		width:  30,
		minGap: 100 * time.Millisecond,
		now:    time.Now,
	}
}

// WithWidth sets the bar width in characters.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	if width > 0 {
		c.width = width
	}
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = c.now()
	c.lastUpdate = time.Time{}
	c.draw(0, total, c.startTime)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if current < total && now.Sub(c.lastUpdate) < c.minGap {
		return
	}
	c.lastUpdate = now
	c.draw(current, total, now)
}

func (c *ConsoleProgressCallback) OnError(current int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\nfile %d failed: %v\n", current, err)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\ncompleted in %v\n", c.now().Sub(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) draw(current, total int, now time.Time) {
	if total <= 0 {
		return
	}
	filled := c.width * current / total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", c.width-filled)
	status := fmt.Sprintf("\r[%s] %d/%d (%.1f%%)", bar, current, total, float64(current)/float64(total)*100)
	if left := eta(now.Sub(c.startTime), current, total); left > 0 {
		status += fmt.Sprintf(" ETA %v", left.Round(time.Second))
	}
	_, _ = fmt.Fprint(c.writer, status)
}
