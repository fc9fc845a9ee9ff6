package jobmanager

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/paths"
	"github.com/your-org/phototag/internal/pipeline"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	store, err := catalogstore.Open(filepath.Join(t.TempDir(), "library.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := paths.Discover(t.TempDir(), "", "")
	require.NoError(t, err)

	engine := inference.NewEngine(inference.DeviceAuto)
	m := New(store, engine, p, pipeline.Config{}, inference.DefaultThresholds())

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), []byte("not really a jpeg"), 0o644))
	return m, root
}

func TestStartImportRejectsConcurrentImport(t *testing.T) {
	m, root := newTestManager(t)

	var mu sync.Mutex
	var events []pipeline.ProgressEvent
	_, err := m.StartImport(root, func(e pipeline.ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.True(t, m.IsImporting())

	_, err = m.StartImport(root, func(pipeline.ProgressEvent) {})
	require.Error(t, err)

	require.Eventually(t, func() bool { return !m.IsImporting() }, 5*time.Second, 10*time.Millisecond)
}

func TestCancelCurrentWithNoActiveJobErrors(t *testing.T) {
	m, _ := newTestManager(t)
	require.Error(t, m.CancelCurrent())
	require.Error(t, m.CancelFile("/a/b.jpg"))
}

func TestCancelCurrentStopsActiveJob(t *testing.T) {
	m, root := newTestManager(t)

	_, err := m.StartImport(root, func(pipeline.ProgressEvent) {})
	require.NoError(t, err)

	require.NoError(t, m.CancelCurrent())
	require.Eventually(t, func() bool { return !m.IsImporting() }, 5*time.Second, 10*time.Millisecond)
}
