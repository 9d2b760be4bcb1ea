package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/MeKo-Tech/meterocr/internal/models"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DigitWhitelist restricts recognition to decimal digits.
const DigitWhitelist = "0123456789"

// TesseractConfig configures the Tesseract client pool.
type TesseractConfig struct {
	Language       string // traineddata name, e.g. "eng"
	TessdataPrefix string // directory holding traineddata (empty = system default)
	PoolSize       int    // number of clients, one per concurrent pass
}

// DefaultTesseractConfig returns a pool sized to the ensemble width.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Language: models.DefaultLanguage,
		PoolSize: DefaultWorkers,
	}
}

// tessClient is the part of *gosseract.Client the engine drives.
type tessClient interface {
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetImageFromBytes(data []byte) error
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// ErrEngineClosed is returned by Recognize after Close.
var ErrEngineClosed = errors.New("tesseract engine is closed")

// TesseractEngine recognizes digits with a fixed pool of gosseract clients.
// Clients are created once and checked out per call.
type TesseractEngine struct {
	clients   chan tessClient
	size      int
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newPooledEngine(size int) *TesseractEngine {
	return &TesseractEngine{
		clients: make(chan tessClient, size),
		done:    make(chan struct{}),
	}
}

func (e *TesseractEngine) add(c tessClient) {
	e.size++
	e.clients <- c
}

// NewTesseractEngine creates PoolSize configured clients.
func NewTesseractEngine(cfg TesseractConfig) (*TesseractEngine, error) {
	if cfg.PoolSize < 1 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", cfg.PoolSize)
	}
	if cfg.Language == "" {
		cfg.Language = models.DefaultLanguage
	}

	e := newPooledEngine(cfg.PoolSize)
	for range cfg.PoolSize {
		c, err := newClient(cfg)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.add(c)
	}

	slog.Debug("Tesseract engine ready",
		"language", cfg.Language,
		"tessdata", cfg.TessdataPrefix,
		"pool_size", cfg.PoolSize,
		"version", gosseract.Version())
	return e, nil
}

func newClient(cfg TesseractConfig) (*gosseract.Client, error) {
	c := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(cfg.Language); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", cfg.Language, err)
	}
	if err := c.SetWhitelist(DigitWhitelist); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	return c, nil
}

// Recognize reads word boxes from img using the pass page segmentation mode.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, pass Pass) ([]Word, error) {
	var c tessClient
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrEngineClosed
	case c = <-e.clients:
	}
	defer func() { e.clients <- c }()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode variant: %w", err)
	}
	if err := c.SetPageSegMode(pass.PageSegMode); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{Text: text, Confidence: b.Confidence / 100, Box: b.Box})
	}
	return words, nil
}

// Close stops handing out clients, waits until every checked-out client is
// back (including ones held by calls abandoned after a timeout) and then
// releases them all. Later calls return the first result.
func (e *TesseractEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		var errs []error
		for range e.size {
			c := <-e.clients
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}
