package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverCreatesSubdirs(t *testing.T) {
	root := t.TempDir()

	p, err := Discover(root, "", "")
	require.NoError(t, err)

	require.Equal(t, root, p.Root)
	require.Equal(t, filepath.Join(root, "library.db"), p.DBPath)
	for _, dir := range []string{p.ThumbsDir, p.PreviewsDir, p.ModelsDir, p.BinDir} {
		require.DirExists(t, dir)
	}
}

func TestDiscoverHonorsOverrides(t *testing.T) {
	root := t.TempDir()
	models := t.TempDir()
	bin := t.TempDir()

	p, err := Discover(root, models, bin)
	require.NoError(t, err)

	require.Equal(t, models, p.ModelsDir)
	require.Equal(t, bin, p.BinDir)
}

func TestResolveModelAbsoluteVsRelative(t *testing.T) {
	root := t.TempDir()
	p, err := Discover(root, "", "")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(p.ModelsDir, "scene.onnx"), p.ResolveModel("scene.onnx"))

	abs := filepath.Join(t.TempDir(), "custom.onnx")
	require.Equal(t, abs, p.ResolveModel(abs))
}

func TestResolveBinFallsBackToPrimaryWhenMissing(t *testing.T) {
	root := t.TempDir()
	p, err := Discover(root, "", "")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(p.BinDir, "exiftool"), p.ResolveBin("exiftool"))
}
