package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCommandHelp(t *testing.T) {
	out, err := execute(t, "image", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--format")
	assert.Contains(t, out, "--output-dir")
}

func TestImageCommandRequiresArgs(t *testing.T) {
	_, err := execute(t, "image")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestImageCommandRejectsFormat(t *testing.T) {
	_, err := execute(t, "image", "x.jpg", "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestImageCommandMissingModel(t *testing.T) {
	_, err := execute(t, "image", "x.jpg", "--models-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build meter pipeline")
}

func TestFormatResults(t *testing.T) {
	results := []*pipeline.ProcessingResult{
		pipeline.ErrorResult("a.jpg", pipeline.ErrMsgUnreadableImage),
		pipeline.ErrorResult("b.jpg", pipeline.ErrMsgUnreadableImage),
	}

	text, err := formatResults(results, outputFormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "a.jpg:")
	assert.Contains(t, text, "b.jpg:")

	js, err := formatResults(results, outputFormatJSON)
	require.NoError(t, err)
	assert.Contains(t, js, `"error": "unable to read image file"`)

	y, err := formatResults(results, outputFormatYAML)
	require.NoError(t, err)
	assert.Contains(t, y, "image_path: a.jpg")

	_, err = formatResults(results, "csv")
	require.Error(t, err)
}

func TestWriteOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeOutput(imageCmd, "hello", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
