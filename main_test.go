package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromFlags(true, false))
	assert.Equal(t, slog.LevelDebug, levelFromFlags(true, true))
	assert.Equal(t, slog.LevelError, levelFromFlags(false, true))
	assert.Equal(t, slog.LevelInfo, levelFromFlags(false, false))
}

func TestWritePreview(t *testing.T) {
	img, err := NewImage(4, 3)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, writePreview(img, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Width())
	assert.Equal(t, 3, loaded.Height())

	assert.Error(t, writePreview(img, filepath.Join(t.TempDir(), "missing", "preview.png")))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
