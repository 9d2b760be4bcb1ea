package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommandReportsMissingModel(t *testing.T) {
	out, err := execute(t, "check", "--models-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "ONNX Runtime")
	assert.Contains(t, out, "Tesseract")
	assert.Contains(t, out, "FAIL  Region model")
}
