// Package jobmanager enforces the single-active-import policy and drives
// one internal/pipeline.Run per job on its own goroutine, exposing
// start/cancel/status operations to the API layer.
package jobmanager

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/observability"
	"github.com/your-org/phototag/internal/paths"
	"github.com/your-org/phototag/internal/pipeline"
)

// Manager tracks at most one active import at a time.
type Manager struct {
	mu      sync.Mutex
	current *jobHandle

	store  *catalogstore.Store
	engine *inference.Engine
	paths  *paths.AppPaths
	pCfg   pipeline.Config
	thCfg  inference.Thresholds
}

type jobHandle struct {
	id     string
	cancel *pipeline.CancelToken
}

// New builds a Manager bound to the catalog, inference engine, and
// resolved paths it will drive each import against.
func New(store *catalogstore.Store, engine *inference.Engine, p *paths.AppPaths, pCfg pipeline.Config, thCfg inference.Thresholds) *Manager {
	return &Manager{store: store, engine: engine, paths: p, pCfg: pCfg, thCfg: thCfg}
}

// StartImport begins walking root in the background, returning the new
// job id. Emit is called from pipeline worker goroutines on every
// throttled progress tick; it must not block for long.
func (m *Manager) StartImport(root string, emit func(pipeline.ProgressEvent)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return "", fmt.Errorf("import already running; cancel before starting a new one")
	}

	jobID := uuid.New().String()
	cancel := pipeline.NewCancelToken()
	m.current = &jobHandle{id: jobID, cancel: cancel}
	observability.ActiveImports.Set(1)

	ext := pipeline.NewExecExtractor(m.paths.ResolveBin("exiftool"))
	tracker := pipeline.NewTracker(emit)

	go func() {
		pipeline.Run(root, m.store, m.engine, ext, m.paths, m.thCfg, m.pCfg, cancel, tracker, jobID)
		m.finish(jobID)
	}()

	if err := m.store.TouchImportRoot(root, time.Now().Unix()); err != nil {
		slog.Warn("import root bookkeeping failed", "root", root, "error", err)
	}

	return jobID, nil
}

func (m *Manager) finish(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.id == jobID {
		m.current = nil
		observability.ActiveImports.Set(0)
	}
}

// CancelCurrent signals the active job's global cancel flag.
func (m *Manager) CancelCurrent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("no import running")
	}
	m.current.cancel.CancelAll()
	return nil
}

// CancelFile adds path to the active job's per-path cancel set.
func (m *Manager) CancelFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("no import running")
	}
	m.current.cancel.CancelPath(path)
	return nil
}

// IsImporting reports whether a job is currently active.
func (m *Manager) IsImporting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}
