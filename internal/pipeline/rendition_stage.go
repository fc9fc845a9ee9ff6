package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/your-org/phototag/internal/rendition"
)

// renditionPaths is the subset of paths.AppPaths the rendition stage needs.
type renditionPaths interface {
	PreviewsDirPath() string
	ThumbsDirPath() string
}

// runRenditionStage obtains a full-size preview (embedded, when the
// extractor supplies one; otherwise decoded from the source file itself
// for directly decodable formats) and a thumbnail derived from it. Neither
// an absent preview nor an absent thumbnail aborts the item — per §4.B a
// photo row with no rendition output is still cataloged.
func runRenditionStage(it *item, ext extractor, rp renditionPaths) error {
	stem := strconv.FormatUint(xxhash.Sum64String(it.path), 16)

	preview, err := ext.ExtractEmbeddedPreview(it.path)
	if err != nil {
		preview = nil
	}

	var previewImg image.Image
	if len(preview) > 0 {
		if img, _, decodeErr := image.Decode(bytes.NewReader(preview)); decodeErr == nil {
			previewImg = rendition.ResizeLongEdge(img, rendition.PreviewLongEdge)
		}
	}

	if previewImg == nil {
		if img, decodeErr := decodeSourceFile(it.path); decodeErr == nil {
			previewImg = rendition.ResizeLongEdge(img, rendition.PreviewLongEdge)
		}
	}

	if previewImg == nil {
		// Neither an embedded preview nor a directly decodable source;
		// leave previewJPG/thumbJPG empty and continue.
		return nil
	}

	it.previewJPG = rendition.EncodeJPEG(previewImg)
	previewPath := filepath.Join(rp.PreviewsDirPath(), stem+".jpg")
	if err := os.WriteFile(previewPath, it.previewJPG, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	it.photo.PreviewPath = previewPath

	var thumbImg image.Image
	if gpuImg, ok := rendition.GPUResizeLongEdge(previewImg, rendition.ThumbnailLongEdge); ok {
		thumbImg = gpuImg
	} else {
		thumbImg = rendition.ResizeLongEdge(previewImg, rendition.ThumbnailLongEdge)
	}
	it.thumbJPG = rendition.EncodeJPEG(thumbImg)
	thumbPath := filepath.Join(rp.ThumbsDirPath(), stem+".jpg")
	if err := os.WriteFile(thumbPath, it.thumbJPG, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	it.photo.ThumbnailPath = thumbPath

	return nil
}

// decodeSourceFile decodes path with the standard library's registered
// codecs (jpeg/png/gif); raw formats without an embedded preview are left
// un-rendered rather than attempted here.
func decodeSourceFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
