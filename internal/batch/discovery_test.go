package batch

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/meterocr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverImagesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	img := testutil.SolidImage(4, 4, color.White)
	for _, name := range []string{"m10.png", "m2.png", "m1.png", "M3.PNG"} {
		testutil.WritePNG(t, dir, name, img)
	}
	testutil.WriteFile(t, dir, "notes.txt", []byte("x"))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	testutil.WritePNG(t, sub, "m4.png", img)

	files, err := DiscoverImages(dir, false)
	require.NoError(t, err)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{"m1.png", "m2.png", "M3.PNG", "m10.png"}, names)

	files, err = DiscoverImages(dir, true)
	require.NoError(t, err)
	assert.Len(t, files, 5)
	assert.Equal(t, filepath.Join(sub, "m4.png"), files[3])
}

func TestDiscoverImagesSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePNG(t, dir, "a.png", testutil.SolidImage(4, 4, color.White))
	files, err := DiscoverImages(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	txt := testutil.WriteFile(t, dir, "a.txt", []byte("x"))
	files, err = DiscoverImages(txt, false)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImagesMissing(t *testing.T) {
	_, err := DiscoverImages(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}
