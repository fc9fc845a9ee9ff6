package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/your-org/phototag/internal/observability"
)

// Stage names the pipeline stage a StageStats belongs to.
type Stage string

const (
	StageExif      Stage = "exif"
	StageRendition Stage = "rendition"
	StageHash      Stage = "hash"
	StageTag       Stage = "tag"
	StageEmbed     Stage = "embed"
)

var stageOrder = []Stage{StageExif, StageRendition, StageHash, StageTag, StageEmbed}

// stageCounters holds one stage's atomic progress counters.
type stageCounters struct {
	pending    int64
	inProgress int64
	completed  int64
	errors     int64
	startedAt  time.Time
}

// StageStats is the point-in-time snapshot of one stage's progress.
type StageStats struct {
	Stage       Stage   `json:"stage"`
	Pending     int64   `json:"pending"`
	InProgress  int64   `json:"in_progress"`
	Completed   int64   `json:"completed"`
	Errors      int64   `json:"errors"`
	ItemsPerSec float64 `json:"items_per_sec"`
}

// ProgressEvent mirrors the `import-progress` event described in the
// external interface: overall counters plus a per-stage breakdown.
type ProgressEvent struct {
	Discovered   int64        `json:"discovered"`
	Processed    int64        `json:"processed"`
	Errors       int64        `json:"errors"`
	CurrentFile  string       `json:"current_file"`
	CurrentStage Stage        `json:"current_stage"`
	Throughput   float64      `json:"throughput"`
	Stages       []StageStats `json:"stages"`
	Canceled     bool         `json:"canceled"`
}

// Tracker accumulates atomic progress counters across the whole job plus
// per-stage breakdowns, and throttles emission per §4.B ("a tracker
// object holds atomic counters ... an event is emitted ... when >=200ms
// elapsed since the last emission, or forced").
type Tracker struct {
	discovered int64
	processed  int64
	errors     int64
	canceled   int32

	stages map[Stage]*stageCounters

	mu          sync.Mutex
	currentFile string
	currentStg  Stage
	lastEmit    time.Time
	startedAt   time.Time
	emit        func(ProgressEvent)
}

const emitInterval = 200 * time.Millisecond

// NewTracker builds a tracker that calls emit on each throttled or forced
// progress event. emit must not block for long; it runs on a worker
// goroutine.
func NewTracker(emit func(ProgressEvent)) *Tracker {
	t := &Tracker{
		stages:    make(map[Stage]*stageCounters),
		startedAt: time.Now(),
		emit:      emit,
	}
	for _, s := range stageOrder {
		t.stages[s] = &stageCounters{startedAt: t.startedAt}
	}
	return t
}

func (t *Tracker) IncDiscovered() {
	atomic.AddInt64(&t.discovered, 1)
	observability.PhotosDiscovered.Inc()
}

func (t *Tracker) IncPending(s Stage) {
	n := atomic.AddInt64(&t.stages[s].pending, 1)
	observability.QueueDepth.WithLabelValues(string(s)).Set(float64(n))
}
func (t *Tracker) DecPending(s Stage) {
	n := atomic.AddInt64(&t.stages[s].pending, -1)
	observability.QueueDepth.WithLabelValues(string(s)).Set(float64(n))
}
func (t *Tracker) StartItem(s Stage) { atomic.AddInt64(&t.stages[s].inProgress, 1) }
func (t *Tracker) CompleteItem(s Stage) {
	atomic.AddInt64(&t.stages[s].inProgress, -1)
	atomic.AddInt64(&t.stages[s].completed, 1)
	if s == StageEmbed {
		atomic.AddInt64(&t.processed, 1)
	}
	observability.PhotosProcessed.WithLabelValues(string(s)).Inc()
	t.maybeEmit(false)
}
func (t *Tracker) ErrorItem(s Stage) {
	atomic.AddInt64(&t.stages[s].inProgress, -1)
	atomic.AddInt64(&t.stages[s].errors, 1)
	atomic.AddInt64(&t.errors, 1)
	observability.PhotosErrored.WithLabelValues(string(s)).Inc()
	t.maybeEmit(false)
}

func (t *Tracker) SetCurrent(file string, s Stage) {
	t.mu.Lock()
	t.currentFile = file
	t.currentStg = s
	t.mu.Unlock()
}

func (t *Tracker) MarkCanceled() {
	atomic.StoreInt32(&t.canceled, 1)
}

// Finish forces a final emission; call once all workers have terminated.
func (t *Tracker) Finish() {
	t.maybeEmit(true)
}

func (t *Tracker) maybeEmit(force bool) {
	t.mu.Lock()
	now := time.Now()
	due := force || now.Sub(t.lastEmit) >= emitInterval
	if !due {
		t.mu.Unlock()
		return
	}
	t.lastEmit = now
	file := t.currentFile
	stg := t.currentStg
	t.mu.Unlock()

	if t.emit == nil {
		return
	}
	t.emit(t.snapshot(file, stg))
}

func (t *Tracker) snapshot(file string, stg Stage) ProgressEvent {
	elapsed := time.Since(t.startedAt).Seconds()
	processed := atomic.LoadInt64(&t.processed)
	var throughput float64
	if elapsed > 0 {
		throughput = float64(processed) / elapsed
	}

	stats := make([]StageStats, 0, len(stageOrder))
	for _, s := range stageOrder {
		c := t.stages[s]
		stageElapsed := time.Since(c.startedAt).Seconds()
		completed := atomic.LoadInt64(&c.completed)
		var ips float64
		if stageElapsed > 0 {
			ips = float64(completed) / stageElapsed
		}
		stats = append(stats, StageStats{
			Stage:       s,
			Pending:     atomic.LoadInt64(&c.pending),
			InProgress:  atomic.LoadInt64(&c.inProgress),
			Completed:   completed,
			Errors:      atomic.LoadInt64(&c.errors),
			ItemsPerSec: ips,
		})
	}

	return ProgressEvent{
		Discovered:   atomic.LoadInt64(&t.discovered),
		Processed:    processed,
		Errors:       atomic.LoadInt64(&t.errors),
		CurrentFile:  file,
		CurrentStage: stg,
		Throughput:   throughput,
		Stages:       stats,
		Canceled:     atomic.LoadInt32(&t.canceled) == 1,
	}
}
