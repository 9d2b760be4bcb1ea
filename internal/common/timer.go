// Package common provides shared timing helpers.
package common

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Lap is the duration of one named stage.
type Lap struct {
	Name     string
	Duration time.Duration
}

// Timer measures wall-clock time with optional per-stage laps.
type Timer struct {
	name     string
	start    time.Time
	lapStart time.Time
	laps     []Lap
	duration time.Duration
	stopped  bool
}

// NewTimer creates a running timer.
func NewTimer() *Timer {
	return NewNamedTimer("")
}

// NewNamedTimer creates a running timer with the given name.
func NewNamedTimer(name string) *Timer {
	now := time.Now()
	return &Timer{name: name, start: now, lapStart: now}
}

// Lap closes the current stage under name and starts the next one.
func (t *Timer) Lap(name string) time.Duration {
	now := time.Now()
	d := now.Sub(t.lapStart)
	t.laps = append(t.laps, Lap{Name: name, Duration: d})
	t.lapStart = now
	return d
}

// Laps returns the recorded stages in order.
func (t *Timer) Laps() []Lap {
	return append([]Lap(nil), t.laps...)
}

// Stop freezes the total duration. Later calls return the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.duration = time.Since(t.start)
		t.stopped = true
	}
	return t.duration
}

// Elapsed is the running time, or the frozen total after Stop.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.duration
	}
	return time.Since(t.start)
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// LogValue renders the timer as a slog group.
func (t *Timer) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Duration("total", t.Elapsed())}
	for _, l := range t.laps {
		attrs = append(attrs, slog.Duration(l.Name, l.Duration))
	}
	return slog.GroupValue(attrs...)
}

// String returns "name: total (lap=d, ...)".
func (t *Timer) String() string {
	var b strings.Builder
	if t.name != "" {
		b.WriteString(t.name)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%v", t.Elapsed())
	if len(t.laps) > 0 {
		parts := make([]string, len(t.laps))
		for i, l := range t.laps {
			parts[i] = fmt.Sprintf("%s=%v", l.Name, l.Duration)
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}
