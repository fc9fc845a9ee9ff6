// Package pipeline implements the five-stage bounded worker mesh that
// turns a directory walk into cataloged, tagged, embedded photo rows:
// discovery -> exif -> rendition -> hash -> tag -> embed, each stage its
// own small worker pool connected by bounded channels, per §4.B and §5.
package pipeline

import (
	"path/filepath"
	"sync"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/inference"
)

// Config tunes worker counts and queue capacities, mirroring
// config.PipelineConfig; zero fields fall back to §5's documented
// defaults via WithDefaults.
type Config struct {
	ExifWorkers, RenditionWorkers, HashWorkers, TagWorkers, EmbedWorkers int
	ExifQueueCap, RenditionQueueCap, HashQueueCap, TagQueueCap, EmbedQueueCap int
}

// WithDefaults fills any zero field with §5's concurrency model defaults.
func (c Config) WithDefaults() Config {
	def := Config{
		ExifWorkers: 2, RenditionWorkers: 2, HashWorkers: 2, TagWorkers: 1, EmbedWorkers: 1,
		ExifQueueCap: 256, RenditionQueueCap: 128, HashQueueCap: 128, TagQueueCap: 64, EmbedQueueCap: 64,
	}
	if c.ExifWorkers == 0 {
		c.ExifWorkers = def.ExifWorkers
	}
	if c.RenditionWorkers == 0 {
		c.RenditionWorkers = def.RenditionWorkers
	}
	if c.HashWorkers == 0 {
		c.HashWorkers = def.HashWorkers
	}
	if c.TagWorkers == 0 {
		c.TagWorkers = def.TagWorkers
	}
	if c.EmbedWorkers == 0 {
		c.EmbedWorkers = def.EmbedWorkers
	}
	if c.ExifQueueCap == 0 {
		c.ExifQueueCap = def.ExifQueueCap
	}
	if c.RenditionQueueCap == 0 {
		c.RenditionQueueCap = def.RenditionQueueCap
	}
	if c.HashQueueCap == 0 {
		c.HashQueueCap = def.HashQueueCap
	}
	if c.TagQueueCap == 0 {
		c.TagQueueCap = def.TagQueueCap
	}
	if c.EmbedQueueCap == 0 {
		c.EmbedQueueCap = def.EmbedQueueCap
	}
	return c
}

// Run walks root, processing every supported file through all five
// stages, and blocks until the walk and every stage has drained. Progress
// is reported through tracker's emit callback; cancellation is observed
// at dequeue time in every stage via cancel.
func Run(root string, store *catalogstore.Store, engine *inference.Engine, ext extractor, rp renditionPaths, th inference.Thresholds, cfg Config, cancel *CancelToken, tracker *Tracker, importBatchID string) {
	cfg = cfg.WithDefaults()

	discoverCh := make(chan *item, cfg.ExifQueueCap)
	renditionCh := make(chan *item, cfg.RenditionQueueCap)
	hashCh := make(chan *item, cfg.HashQueueCap)
	tagCh := make(chan *item, cfg.TagQueueCap)
	embedCh := make(chan *item, cfg.EmbedQueueCap)

	go discover(root, cancel, tracker, store, discoverCh, importBatchID)

	runStage(discoverCh, renditionCh, cfg.ExifWorkers, func(it *item) bool {
		return runExifWorker(it, store, ext, cancel, tracker)
	})
	runStage(renditionCh, hashCh, cfg.RenditionWorkers, func(it *item) bool {
		return runRenditionWorker(it, ext, rp, cancel, tracker)
	})
	runStage(hashCh, tagCh, cfg.HashWorkers, func(it *item) bool {
		return runHashWorker(it, cancel, tracker)
	})
	runStage(tagCh, embedCh, cfg.TagWorkers, func(it *item) bool {
		return runTagWorker(it, store, engine, th, cancel, tracker)
	})
	drainStage(embedCh, cfg.EmbedWorkers, func(it *item) {
		runEmbedWorker(it, store, cancel, tracker)
	})

	tracker.Finish()
}

// runStage spawns workerCount goroutines consuming in and forwarding
// surviving items to out, closing out once every worker has drained in.
func runStage(in <-chan *item, out chan<- *item, workerCount int, fn func(*item) bool) {
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for it := range in {
				if fn(it) {
					out <- it
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
}

// drainStage is runStage's terminal form: no downstream channel to close.
func drainStage(in <-chan *item, workerCount int, fn func(*item)) {
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for it := range in {
				fn(it)
			}
		}()
	}
	wg.Wait()
}

func runExifWorker(it *item, store *catalogstore.Store, ext extractor, cancel *CancelToken, tracker *Tracker) bool {
	tracker.DecPending(StageExif)
	if cancel.PathCanceled(it.path) {
		return false
	}
	tracker.StartItem(StageExif)
	tracker.SetCurrent(it.path, StageExif)

	skip, err := runExifStage(it, store, ext)
	if err != nil {
		tracker.ErrorItem(StageExif)
		return false
	}
	if skip {
		tracker.CompleteItem(StageExif)
		return false
	}

	populatePhotoFromExif(it)
	tracker.CompleteItem(StageExif)
	tracker.IncPending(StageRendition)
	return true
}

func runRenditionWorker(it *item, ext extractor, rp renditionPaths, cancel *CancelToken, tracker *Tracker) bool {
	tracker.DecPending(StageRendition)
	if cancel.PathCanceled(it.path) {
		return false
	}
	tracker.StartItem(StageRendition)
	tracker.SetCurrent(it.path, StageRendition)

	if err := runRenditionStage(it, ext, rp); err != nil {
		tracker.ErrorItem(StageRendition)
		return false
	}
	tracker.CompleteItem(StageRendition)
	tracker.IncPending(StageHash)
	return true
}

func runHashWorker(it *item, cancel *CancelToken, tracker *Tracker) bool {
	tracker.DecPending(StageHash)
	if cancel.PathCanceled(it.path) {
		return false
	}
	tracker.StartItem(StageHash)
	tracker.SetCurrent(it.path, StageHash)

	if err := runHashStage(it); err != nil {
		tracker.ErrorItem(StageHash)
		return false
	}
	tracker.CompleteItem(StageHash)
	tracker.IncPending(StageTag)
	return true
}

func runTagWorker(it *item, store *catalogstore.Store, engine *inference.Engine, th inference.Thresholds, cancel *CancelToken, tracker *Tracker) bool {
	tracker.DecPending(StageTag)
	if cancel.PathCanceled(it.path) {
		return false
	}
	tracker.StartItem(StageTag)
	tracker.SetCurrent(it.path, StageTag)

	photoID, err := store.UpsertPhoto(&it.photo, it.importBatchID)
	if err != nil {
		tracker.ErrorItem(StageTag)
		return false
	}
	it.photoID = photoID

	tags := runTagStage(it, engine, th)
	floatTags := make(map[string]float64, len(tags))
	for k, v := range tags {
		floatTags[k] = float64(v)
	}
	if err := store.ReplaceAutoTags(photoID, floatTags); err != nil {
		tracker.ErrorItem(StageTag)
		return false
	}

	tracker.CompleteItem(StageTag)
	tracker.IncPending(StageEmbed)
	return true
}

func runEmbedWorker(it *item, store *catalogstore.Store, cancel *CancelToken, tracker *Tracker) {
	tracker.DecPending(StageEmbed)
	if cancel.PathCanceled(it.path) {
		return
	}
	tracker.StartItem(StageEmbed)
	tracker.SetCurrent(it.path, StageEmbed)

	vec, norm, ok := runEmbedStage(it)
	if !ok {
		tracker.CompleteItem(StageEmbed)
		return
	}
	if err := store.WriteEmbedding(it.photoID, vec, norm); err != nil {
		tracker.ErrorItem(StageEmbed)
		return
	}
	tracker.CompleteItem(StageEmbed)
}

// populatePhotoFromExif fills the photo row's filesystem and metadata
// columns ahead of the upsert that happens once rendition/hash stages
// have run.
func populatePhotoFromExif(it *item) {
	it.photo.Path = it.path
	it.photo.Extension = extension(it.path)
	it.photo.FileName = filepath.Base(it.path)
	it.photo.ByteSize = it.size
	it.photo.ModTime = it.modTime
	it.photo.ImportBatchID = it.importBatchID

	e := it.exif
	it.photo.Make = e.Make
	it.photo.Model = e.Model
	it.photo.Lens = e.Lens
	it.photo.DateTaken = e.DateTaken
	it.photo.ISO = e.ISO
	it.photo.FNumber = e.FNumber
	it.photo.FocalLength = e.FocalLength
	it.photo.ExposureTime = e.ExposureTime
	it.photo.ExposureCompensation = e.ExposureCompensation
	it.photo.GPSLat = e.GPSLat
	it.photo.GPSLng = e.GPSLng
	it.photo.Width = e.Width
	it.photo.Height = e.Height
}
