package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/models"
)

func defaultFilter() models.Filter { return models.Filter{} }

func openTestStore(t *testing.T) *catalogstore.Store {
	t.Helper()
	s, err := catalogstore.Open(filepath.Join(t.TempDir(), "library.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRunIngestsDiscoverableFiles walks a small tree of one decodable JPEG
// and one unsupported text file, exercising every stage end to end with
// no ONNX models loaded (the engine degrades to an empty tag map).
func TestRunIngestsDiscoverableFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), encodeTestJPEG(t, 128, 96), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	store := openTestStore(t)
	engine := inference.NewEngine(inference.DeviceAuto)
	rp := newFakeRenditionPaths(t)
	ext := &fakeExtractor{}
	cancel := NewCancelToken()

	var events []ProgressEvent
	tracker := NewTracker(func(e ProgressEvent) { events = append(events, e) })

	Run(root, store, engine, ext, rp, inference.DefaultThresholds(), Config{}, cancel, tracker, "batch-1")

	require.NotEmpty(t, events)
	final := events[len(events)-1]
	require.Equal(t, int64(1), final.Discovered)
	require.Equal(t, int64(1), final.Processed)

	photos, err := store.QueryPhotos(defaultFilter())
	require.NoError(t, err)
	require.Len(t, photos, 1)
	require.Equal(t, filepath.Join(root, "a.jpg"), photos[0].Path)
	require.NotEmpty(t, photos[0].ContentHash)
}

// TestRunSkipsUnchangedFilesOnReimport exercises spec's "re-running an
// import over an unchanged tree discovers nothing new" property: a second
// Run over the same root with no filesystem changes must report zero
// newly discovered files and leave the catalog at one row.
func TestRunSkipsUnchangedFilesOnReimport(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), encodeTestJPEG(t, 128, 96), 0o644))

	store := openTestStore(t)
	engine := inference.NewEngine(inference.DeviceAuto)
	rp := newFakeRenditionPaths(t)
	ext := &fakeExtractor{}

	var firstEvents []ProgressEvent
	Run(root, store, engine, ext, rp, inference.DefaultThresholds(), Config{}, NewCancelToken(), NewTracker(func(e ProgressEvent) { firstEvents = append(firstEvents, e) }), "batch-1")
	require.Equal(t, int64(1), firstEvents[len(firstEvents)-1].Discovered)

	var secondEvents []ProgressEvent
	Run(root, store, engine, ext, rp, inference.DefaultThresholds(), Config{}, NewCancelToken(), NewTracker(func(e ProgressEvent) { secondEvents = append(secondEvents, e) }), "batch-2")
	require.NotEmpty(t, secondEvents)
	require.Equal(t, int64(0), secondEvents[len(secondEvents)-1].Discovered)

	photos, err := store.QueryPhotos(defaultFilter())
	require.NoError(t, err)
	require.Len(t, photos, 1)
}

// TestRunHonorsGlobalCancellation checks that canceling before the walk
// starts still drains every stage cleanly with zero items processed.
func TestRunHonorsGlobalCancellation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), encodeTestJPEG(t, 64, 64), 0o644))

	store := openTestStore(t)
	engine := inference.NewEngine(inference.DeviceAuto)
	rp := newFakeRenditionPaths(t)
	ext := &fakeExtractor{}
	cancel := NewCancelToken()
	cancel.CancelAll()

	tracker := NewTracker(func(ProgressEvent) {})
	Run(root, store, engine, ext, rp, inference.DefaultThresholds(), Config{}, cancel, tracker, "batch-2")

	photos, err := store.QueryPhotos(defaultFilter())
	require.NoError(t, err)
	require.Empty(t, photos)
}
