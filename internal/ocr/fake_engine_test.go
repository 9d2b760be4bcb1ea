package ocr

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
)

// scriptedEngine answers each pass with a fixed word list.
type scriptedEngine struct {
	byPass   map[string][]Word
	fail     map[string]error
	panicOn  string
	blockOn  string
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (e *scriptedEngine) Recognize(ctx context.Context, _ image.Image, pass Pass) ([]Word, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if pass.Name == e.panicOn {
		panic("engine crashed")
	}
	if pass.Name == e.blockOn {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := e.fail[pass.Name]; err != nil {
		return nil, err
	}
	return e.byPass[pass.Name], nil
}

func (e *scriptedEngine) Close() error { return nil }

var errEngine = errors.New("tesseract fault")

func word(text string, conf float64) Word {
	return Word{Text: text, Confidence: conf, Box: image.Rect(0, 0, 20, 20)}
}
