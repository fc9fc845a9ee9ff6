package inference

import (
	"image"
	"log/slog"
	"strings"

	"github.com/your-org/phototag/internal/models"
)

// Thresholds bundles the tunable confidence knobs §4.C names, all
// defaulted from config.
type Thresholds struct {
	PrimaryThreshold    float32
	SecondaryThreshold  float32
	DetectionConfidence float32
	DetectionIOU        float32
	FaceMinScore        float32
}

// LoadModels wires up the scene/detection/face sessions plus their label
// and tag-map sidecars. The sidecars are read from `<model>.labels.txt`
// and `<model>.tags.txt` beside the scene and detection model files; a
// sidecar that cannot be read is logged once and left empty.
func (e *Engine) LoadModels(sceneModelPath, detectionModelPath, faceModelPath string, deviceID int) {
	e.LoadModel(ModelScene, sceneModelPath, deviceID)
	e.LoadModel(ModelDetection, detectionModelPath, deviceID)
	e.LoadModel(ModelFace, faceModelPath, deviceID)

	e.loadSidecars(sceneModelPath, detectionModelPath)
}

func (e *Engine) loadSidecars(sceneModelPath, detectionModelPath string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sceneModelPath != "" {
		labels, err := loadLabels(sidecarPath(sceneModelPath, ".labels.txt"))
		if err != nil {
			e.warnSidecarOnce("scene labels", err)
		}
		e.sceneLabels = labels

		tags, err := loadTagMap(sidecarPath(sceneModelPath, ".tags.txt"))
		if err != nil {
			e.warnSidecarOnce("scene tag map", err)
		}
		e.sceneTagMap = tags
	}

	if detectionModelPath != "" {
		labels, err := loadLabels(sidecarPath(detectionModelPath, ".labels.txt"))
		if err != nil {
			e.warnSidecarOnce("detection labels", err)
		}
		e.detectionLabels = labels

		tags, err := loadTagMap(sidecarPath(detectionModelPath, ".tags.txt"))
		if err != nil {
			e.warnSidecarOnce("detection tag map", err)
		}
		e.detectionTagMap = tags
	}
}

func (e *Engine) warnSidecarOnce(what string, err error) {
	if e.sidecarWarned {
		return
	}
	e.sidecarWarned = true
	slog.Warn("sidecar file could not be read, degrading gracefully", "what", what, "error", err)
}

func sidecarPath(modelPath, suffix string) string {
	base := strings.TrimSuffix(modelPath, ".onnx")
	return base + suffix
}

// Classify produces the fused tag->confidence map for one photo's
// preview image, per §4.C's three-model-plus-fusion pipeline.
func (e *Engine) Classify(preview image.Image, previewPath string, exif models.ExifMetadata, th Thresholds) map[string]float32 {
	sceneTags, err := e.runScene(preview, th.PrimaryThreshold, th.SecondaryThreshold)
	if err != nil {
		slog.Warn("scene model failed, continuing without scene tags", "path", previewPath, "error", err)
		sceneTags = map[string]float32{}
	}

	detectionTags, err := e.runDetection(preview, th.DetectionConfidence, th.DetectionIOU)
	if err != nil {
		slog.Warn("detection model failed, continuing without detection tags", "path", previewPath, "error", err)
		detectionTags = map[string]float32{}
	}

	var focalLength float64
	if exif.FocalLength != nil {
		focalLength = *exif.FocalLength
	}
	portraitScore, err := e.runFace(preview, focalLength, th.FaceMinScore)
	if err != nil {
		slog.Warn("face model failed, continuing without portrait score", "path", previewPath, "error", err)
		portraitScore = 0
	}

	tags := fuse(sceneTags, detectionTags, portraitScore, e.Enabled(), previewPath, exif)
	if len(tags) == 0 {
		slog.Info("no tags produced", "path", previewPath)
	}
	return tags
}

// DefaultThresholds returns §4.C's documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PrimaryThreshold:    0.70,
		SecondaryThreshold:  0.50,
		DetectionConfidence: DefaultDetectionConfidence,
		DetectionIOU:        DefaultDetectionIOU,
		FaceMinScore:        DefaultFaceMinScore,
	}
}
