package inference

import (
	"path/filepath"
	"strings"

	"github.com/your-org/phototag/internal/models"
)

// sceneUnrelatedPenalty scales a scene tag's score when detection ran but
// didn't confirm it.
const sceneUnrelatedPenalty = 0.5

// detectionTagBoost is added to a detection-derived tag score, capped at 1.0.
const detectionTagBoost = 0.20

// requiredCategoryTags lists scene tags that must be confirmed by
// detection whenever detection produced any output at all; otherwise
// they are dropped, per §4.C rule 2.
var requiredCategoryTags = map[string]bool{
	"amphibian": true, "bird": true, "cat": true, "dog": true,
	"food": true, "furniture": true, "vehicle": true,
}

// fuse combines scene, detection and face-derived scores into the final
// tag map per §4.C's six fusion rules.
func fuse(sceneTags, detectionTags map[string]float32, portraitScore float32, onnxEnabled bool, previewPath string, exif models.ExifMetadata) map[string]float32 {
	tags := make(map[string]float32, len(sceneTags)+len(detectionTags)+1)

	hasDetectionOutput := len(detectionTags) > 0
	for tag, score := range sceneTags {
		_, confirmed := detectionTags[tag]
		if hasDetectionOutput && requiredCategoryTags[tag] && !confirmed {
			continue
		}
		adjusted := score
		if hasDetectionOutput && !confirmed {
			adjusted *= sceneUnrelatedPenalty
		}
		tags[tag] = adjusted
	}

	for tag, score := range detectionTags {
		boosted := score + detectionTagBoost
		if boosted > 1.0 {
			boosted = 1.0
		}
		if boosted > tags[tag] {
			tags[tag] = boosted
		}
	}

	if portraitScore > 0 {
		if portraitScore > tags["portrait"] {
			tags["portrait"] = portraitScore
		}
	}

	if len(tags) == 0 && !onnxEnabled {
		for tag, score := range heuristicTags(previewPath, exif) {
			tags[tag] = score
		}
	}

	return tags
}

// heuristicTags is the degraded-mode fallback applied when no ONNX model
// is loaded at all, per §4.C rule 6.
func heuristicTags(previewPath string, exif models.ExifMetadata) map[string]float32 {
	tags := make(map[string]float32)

	name := strings.ToLower(filepath.Base(previewPath))
	if strings.Contains(name, "street") {
		tags["street"] = 0.6
	}

	if exif.Width != nil && exif.Height != nil {
		w, h := *exif.Width, *exif.Height
		if w > h+h/5 {
			tags["landscape"] = 0.5
		} else if h > w+w/5 {
			tags["portrait"] = 0.5
		}
	}

	if exif.FocalLength != nil && *exif.FocalLength > portraitFocalLengthMM {
		tags["portrait"] = 0.6
	}

	if exif.GPSLat != nil || exif.GPSLng != nil {
		tags["nature"] = 0.4
	}

	return tags
}
