package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRenditionPaths struct {
	previewsDir string
	thumbsDir   string
}

func (f fakeRenditionPaths) PreviewsDirPath() string { return f.previewsDir }
func (f fakeRenditionPaths) ThumbsDirPath() string   { return f.thumbsDir }

func newFakeRenditionPaths(t *testing.T) fakeRenditionPaths {
	t.Helper()
	root := t.TempDir()
	previews := filepath.Join(root, "previews")
	thumbs := filepath.Join(root, "thumbs")
	require.NoError(t, os.MkdirAll(previews, 0o755))
	require.NoError(t, os.MkdirAll(thumbs, 0o755))
	return fakeRenditionPaths{previewsDir: previews, thumbsDir: thumbs}
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestRunRenditionStageUsesEmbeddedPreviewWhenPresent(t *testing.T) {
	rp := newFakeRenditionPaths(t)
	preview := encodeTestJPEG(t, 400, 300)
	ext := &fakeExtractor{preview: preview}
	it := &item{path: filepath.Join(t.TempDir(), "source.cr2")}

	err := runRenditionStage(it, ext, rp)
	require.NoError(t, err)
	require.NotEmpty(t, it.previewJPG)
	require.NotEmpty(t, it.thumbJPG)
	require.FileExists(t, it.photo.PreviewPath)
	require.FileExists(t, it.photo.ThumbnailPath)
}

func TestRunRenditionStageDecodesSourceWhenNoEmbeddedPreview(t *testing.T) {
	rp := newFakeRenditionPaths(t)
	src := filepath.Join(t.TempDir(), "source.jpg")
	require.NoError(t, os.WriteFile(src, encodeTestJPEG(t, 200, 150), 0o644))
	ext := &fakeExtractor{}
	it := &item{path: src}

	err := runRenditionStage(it, ext, rp)
	require.NoError(t, err)
	require.NotEmpty(t, it.previewJPG)
	require.NotEmpty(t, it.thumbJPG)
}

func TestRunRenditionStageToleratesUndecodableSource(t *testing.T) {
	rp := newFakeRenditionPaths(t)
	src := filepath.Join(t.TempDir(), "source.cr2")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))
	ext := &fakeExtractor{}
	it := &item{path: src}

	err := runRenditionStage(it, ext, rp)
	require.NoError(t, err)
	require.Empty(t, it.previewJPG)
	require.Empty(t, it.thumbJPG)
}
