package pipeline

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/your-org/phototag/internal/models"
)

// exifLookup is the subset of catalogstore.Store the exif stage needs, to
// decide whether an unchanged file can be skipped entirely.
type exifLookup interface {
	LookupByPath(path string) (modTime int64, byteSize int64, ok bool, err error)
}

// extractor invokes the external EXIF tool and parses its JSON output. It
// is isolated behind an interface so tests can substitute a fake without
// spawning a process.
type extractor interface {
	Extract(path string) (models.ExifMetadata, error)
	// ExtractEmbeddedPreview asks the tool for a stored preview image
	// (e.g. raw-file embedded JPEG); returns nil, nil when none exists.
	ExtractEmbeddedPreview(path string) ([]byte, error)
}

// execExtractor shells out to an exiftool-compatible binary (resolved via
// internal/paths) the way the ingestion pipeline this corpus generalizes
// reads metadata: `-json -n`, first array element, tolerant of missing
// fields.
type execExtractor struct {
	binPath string
}

func newExecExtractor(binPath string) *execExtractor {
	return &execExtractor{binPath: binPath}
}

// NewExecExtractor builds the exiftool-backed extractor Run expects, given
// the resolved path to the extractor binary (internal/paths.ResolveBin).
func NewExecExtractor(binPath string) *execExtractor {
	return newExecExtractor(binPath)
}

type exifToolEntry struct {
	Make                 string      `json:"Make"`
	Model                string      `json:"Model"`
	LensModel            string      `json:"LensModel"`
	Lens                 string      `json:"Lens"`
	DateTimeOriginal     string      `json:"DateTimeOriginal"`
	CreateDate           string      `json:"CreateDate"`
	ISO                  json.Number `json:"ISO"`
	FNumber              json.Number `json:"FNumber"`
	FocalLength          json.Number `json:"FocalLength"`
	ExposureTime         json.Number `json:"ExposureTime"`
	ExposureCompensation json.Number `json:"ExposureCompensation"`
	GPSLatitude          json.Number `json:"GPSLatitude"`
	GPSLongitude         json.Number `json:"GPSLongitude"`
	ImageWidth           json.Number `json:"ImageWidth"`
	ImageHeight          json.Number `json:"ImageHeight"`
}

// Extract runs the extractor binary against path and parses its JSON
// document into an ExifMetadata, tolerant of any missing field.
func (e *execExtractor) Extract(path string) (models.ExifMetadata, error) {
	cmd := exec.Command(e.binPath, "-json", "-n", path)
	stdout, err := cmd.Output()
	if err != nil {
		return models.ExifMetadata{}, fmt.Errorf("run exif extractor: %w", err)
	}

	var entries []exifToolEntry
	if err := json.Unmarshal(stdout, &entries); err != nil {
		return models.ExifMetadata{}, fmt.Errorf("parse exif json: %w", err)
	}
	if len(entries) == 0 {
		return models.ExifMetadata{}, nil
	}
	entry := entries[0]

	meta := models.ExifMetadata{
		Make:  entry.Make,
		Model: entry.Model,
		Lens:  firstNonEmpty(entry.LensModel, entry.Lens),
	}
	meta.ISO = numToIntPtr(entry.ISO)
	meta.FNumber = numToFloatPtr(entry.FNumber)
	meta.FocalLength = numToFloatPtr(entry.FocalLength)
	meta.ExposureTime = numToFloatPtr(entry.ExposureTime)
	meta.ExposureCompensation = numToFloatPtr(entry.ExposureCompensation)
	meta.GPSLat = numToFloatPtr(entry.GPSLatitude)
	meta.GPSLng = numToFloatPtr(entry.GPSLongitude)
	meta.Width = numToIntPtr(entry.ImageWidth)
	meta.Height = numToIntPtr(entry.ImageHeight)
	meta.DateTaken = parseExifDate(firstNonEmpty(entry.DateTimeOriginal, entry.CreateDate))

	return meta, nil
}

// ExtractEmbeddedPreview asks the tool for an embedded full-size preview
// (common on raw formats); a non-zero exit or empty stdout means none
// exists, which is not an error — the rendition stage falls back to
// decoding the source file itself.
func (e *execExtractor) ExtractEmbeddedPreview(path string) ([]byte, error) {
	cmd := exec.Command(e.binPath, "-b", "-PreviewImage", path)
	stdout, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	if len(stdout) == 0 {
		return nil, nil
	}
	return stdout, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func numToIntPtr(n json.Number) *int {
	if n == "" {
		return nil
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return nil
		}
		v = int64(f)
	}
	i := int(v)
	return &i
}

func numToFloatPtr(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	return &v
}

func parseExifDate(raw string) *int64 {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006:01:02 15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			unix := t.Unix()
			return &unix
		}
	}
	return nil
}

// runExifStage reads filesystem stat (already captured in it by
// discovery), skips unchanged files against the catalog, and otherwise
// invokes the extractor.
func runExifStage(it *item, store exifLookup, ext extractor) (skip bool, err error) {
	if modTime, size, ok, lookupErr := store.LookupByPath(it.path); lookupErr == nil && ok {
		if modTime == it.modTime && size == it.size {
			return true, nil
		}
	}

	meta, extractErr := ext.Extract(it.path)
	if extractErr != nil {
		// Tolerant of missing fields, not of extractor failure to run;
		// continue with an empty record so later stages still produce
		// a row, per the boundary property "no exif still produces a row".
		meta = models.ExifMetadata{}
	}
	it.exif = meta
	return false, nil
}

// extension returns the lowercase extension (no dot) of path, used by
// the rendition stage to decide decodability.
func extension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}
