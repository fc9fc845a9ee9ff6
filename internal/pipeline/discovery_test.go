package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverSkipsCatalogedUnchangedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	lookup := fakeLookup{modTime: info.ModTime().Unix(), size: info.Size(), ok: true}
	cancel := NewCancelToken()
	var events []ProgressEvent
	tracker := NewTracker(func(e ProgressEvent) { events = append(events, e) })
	out := make(chan *item, 4)

	discover(root, cancel, tracker, lookup, out, "batch-1")
	tracker.Finish()

	var items []*item
	for it := range out {
		items = append(items, it)
	}
	require.Empty(t, items)
	require.NotEmpty(t, events)
	require.Equal(t, int64(0), events[len(events)-1].Discovered)
}

func TestDiscoverEnqueuesChangedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))

	lookup := fakeLookup{modTime: 1, size: 1, ok: true}
	cancel := NewCancelToken()
	tracker := NewTracker(func(ProgressEvent) {})
	out := make(chan *item, 4)

	discover(root, cancel, tracker, lookup, out, "batch-1")

	var items []*item
	for it := range out {
		items = append(items, it)
	}
	require.Len(t, items, 1)
	require.Equal(t, path, items[0].path)
}

func TestDiscoverEnqueuesUnknownFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	lookup := fakeLookup{ok: false}
	cancel := NewCancelToken()
	tracker := NewTracker(func(ProgressEvent) {})
	out := make(chan *item, 4)

	discover(root, cancel, tracker, lookup, out, "batch-1")

	var items []*item
	for it := range out {
		items = append(items, it)
	}
	require.Len(t, items, 1)
	require.Equal(t, path, items[0].path)
}
