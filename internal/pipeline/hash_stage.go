package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/your-org/phototag/internal/rendition"
)

// runHashStage computes the source file's content hash (required; failure
// aborts the item with an error tick) and, when a preview was rendered,
// its perceptual dHash (best-effort; failure just leaves DHash unset).
func runHashStage(it *item) error {
	f, err := os.Open(it.path)
	if err != nil {
		return fmt.Errorf("open for content hash: %w", err)
	}
	defer f.Close()

	hash, err := rendition.ContentHash(f)
	if err != nil {
		return fmt.Errorf("content hash: %w", err)
	}
	it.photo.ContentHash = hash

	if len(it.previewJPG) == 0 {
		return nil
	}
	img, _, decodeErr := image.Decode(bytes.NewReader(it.previewJPG))
	if decodeErr != nil {
		return nil
	}
	d := rendition.DHash(img)
	it.photo.DHash = &d
	return nil
}
