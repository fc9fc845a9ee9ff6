package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHashStageComputesContentHashAndDHash(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(src, encodeTestJPEG(t, 64, 64), 0o644))

	it := &item{path: src, previewJPG: encodeTestJPEG(t, 64, 64)}
	err := runHashStage(it)
	require.NoError(t, err)
	require.NotEmpty(t, it.photo.ContentHash)
	require.NotNil(t, it.photo.DHash)
}

func TestRunHashStageWithoutPreviewLeavesDHashNil(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photo.cr2")
	require.NoError(t, os.WriteFile(src, []byte("raw bytes"), 0o644))

	it := &item{path: src}
	err := runHashStage(it)
	require.NoError(t, err)
	require.NotEmpty(t, it.photo.ContentHash)
	require.Nil(t, it.photo.DHash)
}

func TestRunHashStageErrorsWhenSourceMissing(t *testing.T) {
	it := &item{path: filepath.Join(t.TempDir(), "missing.jpg")}
	err := runHashStage(it)
	require.Error(t, err)
}
