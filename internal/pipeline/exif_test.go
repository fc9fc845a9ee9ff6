package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/phototag/internal/models"
)

type fakeLookup struct {
	modTime int64
	size    int64
	ok      bool
}

func (f fakeLookup) LookupByPath(path string) (int64, int64, bool, error) {
	return f.modTime, f.size, f.ok, nil
}

type fakeExtractor struct {
	meta          models.ExifMetadata
	extractErr    error
	preview       []byte
	previewErr    error
	extractCalled int
}

func (f *fakeExtractor) Extract(path string) (models.ExifMetadata, error) {
	f.extractCalled++
	return f.meta, f.extractErr
}

func (f *fakeExtractor) ExtractEmbeddedPreview(path string) ([]byte, error) {
	return f.preview, f.previewErr
}

func TestRunExifStageSkipsUnchangedFile(t *testing.T) {
	it := &item{path: "/a/b.jpg", modTime: 100, size: 200}
	store := fakeLookup{modTime: 100, size: 200, ok: true}
	ext := &fakeExtractor{}

	skip, err := runExifStage(it, store, ext)
	require.NoError(t, err)
	require.True(t, skip)
	require.Equal(t, 0, ext.extractCalled)
}

func TestRunExifStageExtractsChangedFile(t *testing.T) {
	it := &item{path: "/a/b.jpg", modTime: 100, size: 200}
	store := fakeLookup{modTime: 50, size: 10, ok: true}
	ext := &fakeExtractor{meta: models.ExifMetadata{Make: "Canon"}}

	skip, err := runExifStage(it, store, ext)
	require.NoError(t, err)
	require.False(t, skip)
	require.Equal(t, 1, ext.extractCalled)
	require.Equal(t, "Canon", it.exif.Make)
}

func TestRunExifStageExtractsUnknownFile(t *testing.T) {
	it := &item{path: "/a/new.jpg", modTime: 100, size: 200}
	store := fakeLookup{ok: false}
	ext := &fakeExtractor{meta: models.ExifMetadata{Make: "Nikon"}}

	skip, err := runExifStage(it, store, ext)
	require.NoError(t, err)
	require.False(t, skip)
	require.Equal(t, "Nikon", it.exif.Make)
}

func TestRunExifStageToleratesExtractorFailure(t *testing.T) {
	it := &item{path: "/a/bad.jpg"}
	store := fakeLookup{ok: false}
	ext := &fakeExtractor{extractErr: errors.New("exiftool: no such file")}

	skip, err := runExifStage(it, store, ext)
	require.NoError(t, err)
	require.False(t, skip)
	require.Equal(t, models.ExifMetadata{}, it.exif)
}

func TestExtensionLowercasesAndStripsDot(t *testing.T) {
	require.Equal(t, "jpg", extension("/a/b/IMG_0001.JPG"))
	require.Equal(t, "", extension("/a/b/noext"))
}
