package ocr

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/meterocr/internal/preprocess"
	"github.com/MeKo-Tech/meterocr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variants(names ...string) []preprocess.Variant {
	out := make([]preprocess.Variant, len(names))
	for i, n := range names {
		out[i] = preprocess.Variant{Name: n, Image: testutil.GenerateDigitsImage("12", 1)}
	}
	return out
}

func TestRunnerTagsAndOrdersObservations(t *testing.T) {
	engine := &scriptedEngine{byPass: map[string][]Word{
		"base":    {word("1203", 0.9)},
		"segment": {word("1208", 0.5)},
		"clear":   {word("1203", 0.15)},
		"blur":    {word("1203", 0.06)},
	}}
	r := NewRunner(engine, DefaultRunnerConfig())

	got := r.Run(context.Background(), variants("gray", "otsu", "clahe", "binary", "enlarged"), false)

	// clear drops 0.15 (floor is strict), blur keeps 0.06.
	require.Len(t, got, 15)
	assert.Equal(t, Observation{Text: "1203", Confidence: 0.9, Source: "gray_base"}, got[0])
	assert.Equal(t, "gray_segment", got[1].Source)
	assert.Equal(t, "gray_blur", got[2].Source)
	assert.Equal(t, "otsu_base", got[3].Source)
	assert.Equal(t, "enlarged_blur", got[14].Source)
	assert.EqualValues(t, 20, engine.calls.Load())
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	engine := &scriptedEngine{byPass: map[string][]Word{}}
	r := NewRunner(engine, RunnerConfig{Workers: 2})
	r.Run(context.Background(), variants("a", "b", "c", "d", "e", "f", "g", "h"), false)
	assert.LessOrEqual(t, engine.peak.Load(), int64(2))
}

func TestRunnerSwallowsFailuresAndPanics(t *testing.T) {
	engine := &scriptedEngine{
		byPass:  map[string][]Word{"blur": {word("7", 0.4)}},
		fail:    map[string]error{"base": errEngine},
		panicOn: "segment",
	}
	r := NewRunner(engine, DefaultRunnerConfig())

	got := r.Run(context.Background(), variants("gray", "otsu"), true)
	require.Len(t, got, 2)
	assert.Equal(t, "gray_blur", got[0].Source)
	assert.Equal(t, "otsu_blur", got[1].Source)
}

func TestRunnerTaskTimeout(t *testing.T) {
	engine := &scriptedEngine{
		byPass:  map[string][]Word{"base": {word("004521", 0.8)}},
		blockOn: "clear",
	}
	r := NewRunner(engine, RunnerConfig{Workers: 4, TaskTimeout: 20 * time.Millisecond})

	start := time.Now()
	got := r.Run(context.Background(), variants("gray"), false)
	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, "gray_base", got[0].Source)
}

func TestRunnerNoVariants(t *testing.T) {
	r := NewRunner(&scriptedEngine{}, DefaultRunnerConfig())
	assert.Empty(t, r.Run(context.Background(), nil, false))
}

type fixedBank struct{ names []string }

func (b fixedBank) Apply(image.Image) []preprocess.Variant { return variants(b.names...) }

func TestReaderFusesEnsembleOutput(t *testing.T) {
	engine := &scriptedEngine{byPass: map[string][]Word{
		"base":    {word("0045 21", 0.7)},
		"segment": {word("004527", 0.9)},
		"blur":    {word("004521", 0.3)},
	}}
	reader := NewReader(fixedBank{names: []string{"gray", "otsu"}}, NewRunner(engine, DefaultRunnerConfig()))

	sel, ok := reader.Read(context.Background(), testutil.GenerateDigitsImage("004521", 1), MeterPrior)
	require.True(t, ok)
	assert.Equal(t, "004521", sel.Text)
	assert.InDelta(t, 0.7, sel.Confidence, 1e-9)
	assert.Equal(t, "gray_base", sel.Method)
}

func TestReaderNothingRead(t *testing.T) {
	reader := NewReader(fixedBank{names: []string{"gray"}}, NewRunner(&scriptedEngine{}, DefaultRunnerConfig()))
	_, ok := reader.Read(context.Background(), testutil.GenerateDigitsImage("7", 1), DecimalPrior)
	assert.False(t, ok)
}

// contrastEngine is as confident as the image it is given is contrasty.
type contrastEngine struct {
	calls atomic.Int64
}

func (e *contrastEngine) Recognize(_ context.Context, img image.Image, _ Pass) ([]Word, error) {
	e.calls.Add(1)
	return []Word{word("12", contrast(img))}, nil
}

func (e *contrastEngine) Close() error { return nil }

func TestRunnerKeepsMoreConfidentContrastRead(t *testing.T) {
	img := lowContrastImage()
	segment := DefaultPasses()[1]
	plain := contrast(segment.Prepare(img, false))
	require.Less(t, plain, segment.ContrastGate)

	engine := &contrastEngine{}
	r := NewRunner(engine, DefaultRunnerConfig())
	words, err := r.readPass(context.Background(), img, segment, false)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Greater(t, words[0].Confidence, plain)
	assert.EqualValues(t, 2, engine.calls.Load())

	engine = &contrastEngine{}
	r = NewRunner(engine, DefaultRunnerConfig())
	words, err = r.readPass(context.Background(), img, DefaultPasses()[0], false)
	require.NoError(t, err)
	assert.InDelta(t, contrast(DefaultPasses()[0].Prepare(img, false)), words[0].Confidence, 1e-9)
	assert.EqualValues(t, 1, engine.calls.Load(), "no re-read without a contrast gate")
}
