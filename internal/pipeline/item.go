package pipeline

import (
	"time"

	"github.com/your-org/phototag/internal/models"
)

// supportedExtensions is the set of file extensions (lowercase, no dot)
// discovery will enqueue.
var supportedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "tiff": true, "tif": true,
	"cr2": true, "nef": true, "arw": true, "dng": true, "raf": true,
}

// item threads one photo through the exif -> rendition -> hash -> tag ->
// embed stage sequence. Stages execute strictly in order for a given
// item; concurrent items are not ordered relative to each other.
type item struct {
	path    string
	modTime int64
	size    int64

	exif       models.ExifMetadata
	photo      models.Photo
	photoID    int64
	previewJPG []byte
	thumbJPG   []byte

	importBatchID string
	enqueuedAt    time.Time
}
