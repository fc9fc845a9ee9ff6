package pipeline

import (
	"bytes"
	"image"

	"github.com/your-org/phototag/internal/embedding"
)

// runEmbedStage computes the color-histogram embedding for the item's
// preview (or thumbnail, if no preview was rendered) and L2-normalizes it.
// Absent any rendered image, it returns (nil, 0, false): no embedding row
// is written for that photo.
func runEmbedStage(it *item) (vec []float32, norm float64, ok bool) {
	raw := it.previewJPG
	if len(raw) == 0 {
		raw = it.thumbJPG
	}
	if len(raw) == 0 {
		return nil, 0, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, false
	}
	vec = embedding.Compute(img)
	norm = embedding.Normalize(vec)
	return vec, norm, true
}
