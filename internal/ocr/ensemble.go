package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/preprocess"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers is the number of variants read concurrently per region.
const DefaultWorkers = 4

// RunnerConfig configures the ensemble runner.
type RunnerConfig struct {
	Workers     int           // concurrent variant tasks
	TaskTimeout time.Duration // per-pass deadline (0 = none)
	Passes      []Pass
}

// DefaultRunnerConfig returns four workers, no timeout and the default passes.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers: DefaultWorkers,
		Passes:  DefaultPasses(),
	}
}

// Runner fans a region's variants out to a bounded pool, runs every pass on each,
// and merges the observations after all tasks finish.
type Runner struct {
	engine Engine
	cfg    RunnerConfig
}

// NewRunner builds a runner around engine.
func NewRunner(engine Engine, cfg RunnerConfig) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if len(cfg.Passes) == 0 {
		cfg.Passes = DefaultPasses()
	}
	return &Runner{engine: engine, cfg: cfg}
}

type variantResult struct {
	index        int
	observations []Observation
}

// Run reads every variant and returns all accepted observations ordered by
// variant, then pass, then engine order. Pass failures never fail the run.
func (r *Runner) Run(ctx context.Context, variants []preprocess.Variant, decimal bool) []Observation {
	p := pool.NewWithResults[variantResult]().WithMaxGoroutines(r.cfg.Workers)
	for i, v := range variants {
		p.Go(func() variantResult {
			return variantResult{index: i, observations: r.runVariant(ctx, v, decimal)}
		})
	}
	results := p.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	var all []Observation
	for _, res := range results {
		all = append(all, res.observations...)
	}
	return all
}

// runVariant applies every pass to one variant.
func (r *Runner) runVariant(ctx context.Context, v preprocess.Variant, decimal bool) []Observation {
	start := time.Now()
	defer func() { variantDuration.Observe(time.Since(start).Seconds()) }()

	var out []Observation
	for _, pass := range r.cfg.Passes {
		words, err := r.recognize(ctx, v.Image, pass, decimal)
		if err != nil {
			passFailures.WithLabelValues(pass.Name).Inc()
			slog.Debug("OCR pass failed", "variant", v.Name, "pass", pass.Name, "error", err)
			continue
		}
		source := v.Name + "_" + pass.Name
		for _, w := range words {
			if !pass.Accept(w) {
				continue
			}
			observationsAccepted.WithLabelValues(pass.Name).Inc()
			out = append(out, Observation{Text: w.Text, Confidence: w.Confidence, Source: source})
		}
	}
	return out
}

type recognizeResult struct {
	words []Word
	err   error
}

// recognize runs one pass, converting engine panics to errors and enforcing the
// optional per-task timeout.
func (r *Runner) recognize(ctx context.Context, img image.Image, pass Pass, decimal bool) ([]Word, error) {
	if r.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TaskTimeout)
		defer cancel()
	}

	done := make(chan recognizeResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- recognizeResult{err: fmt.Errorf("engine panic: %v", rec)}
			}
		}()
		words, err := r.readPass(ctx, img, pass, decimal)
		done <- recognizeResult{words: words, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.words, res.err
	}
}

// readPass reads the prepared crop and, when the pass asks for it, a
// contrast-stretched copy, keeping whichever read is more confident.
func (r *Runner) readPass(ctx context.Context, img image.Image, pass Pass, decimal bool) ([]Word, error) {
	words, err := r.engine.Recognize(ctx, pass.Prepare(img, decimal), pass)
	if err != nil || !pass.NeedsContrastRetry(words) {
		return words, err
	}
	adjusted, ok := pass.PrepareAdjusted(img, decimal)
	if !ok {
		return words, nil
	}
	retry, err := r.engine.Recognize(ctx, adjusted, pass)
	if err != nil {
		slog.Debug("Contrast re-read failed", "pass", pass.Name, "error", err)
		return words, nil
	}
	if bestConfidence(retry) > bestConfidence(words) {
		return retry, nil
	}
	return words, nil
}
