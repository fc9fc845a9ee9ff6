package pipeline

import (
	"bytes"
	"image"

	"github.com/your-org/phototag/internal/inference"
)

// runTagStage classifies the item's preview and returns the resulting
// auto-tag confidence map. Absent a preview, or on any decode failure, it
// returns an empty map rather than erroring the item — the engine's own
// panic barriers already isolate model failures, so a tag-less row is the
// worst case here, never a pipeline crash.
func runTagStage(it *item, engine *inference.Engine, th inference.Thresholds) map[string]float32 {
	if len(it.previewJPG) == 0 {
		return map[string]float32{}
	}
	img, _, err := image.Decode(bytes.NewReader(it.previewJPG))
	if err != nil {
		return map[string]float32{}
	}
	return engine.Classify(img, it.path, it.exif, th)
}
