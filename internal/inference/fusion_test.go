package inference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/phototag/internal/models"
)

func ptrInt(v int) *int          { return &v }
func ptrFloat(v float64) *float64 { return &v }

func TestFuseRemovesUnconfirmedRequiredCategory(t *testing.T) {
	scene := map[string]float32{"dog": 0.9, "street": 0.8}
	detection := map[string]float32{"cat": 0.5}

	tags := fuse(scene, detection, 0, true, "x.jpg", models.ExifMetadata{})

	_, hasDog := tags["dog"]
	require.False(t, hasDog, "dog is a required-category tag that detection did not confirm")
	require.Contains(t, tags, "street")
}

func TestFusePenalizesUnconfirmedNonRequiredSceneTag(t *testing.T) {
	scene := map[string]float32{"street": 0.8}
	detection := map[string]float32{"person": 0.5}

	tags := fuse(scene, detection, 0, true, "x.jpg", models.ExifMetadata{})

	require.InDelta(t, 0.4, tags["street"], 1e-6)
}

func TestFuseDetectionBoostCapsAtOne(t *testing.T) {
	tags := fuse(nil, map[string]float32{"person": 0.9}, 0, true, "x.jpg", models.ExifMetadata{})
	require.InDelta(t, 1.0, tags["person"], 1e-6)
}

func TestFusePortraitMergedByMax(t *testing.T) {
	scene := map[string]float32{"portrait": 0.3}
	tags := fuse(scene, nil, 0.9, true, "x.jpg", models.ExifMetadata{})
	require.InDelta(t, 0.9, tags["portrait"], 1e-6)
}

func TestFuseHeuristicFallbackWhenDisabled(t *testing.T) {
	exif := models.ExifMetadata{
		Width: ptrInt(4000), Height: ptrInt(3000),
		GPSLat: ptrFloat(1.0),
	}
	tags := fuse(nil, nil, 0, false, "street_scene.jpg", exif)

	require.InDelta(t, 0.6, tags["street"], 1e-6)
	require.InDelta(t, 0.5, tags["landscape"], 1e-6)
	require.InDelta(t, 0.4, tags["nature"], 1e-6)
}

func TestFuseNoHeuristicWhenONNXEnabled(t *testing.T) {
	tags := fuse(nil, nil, 0, true, "street_scene.jpg", models.ExifMetadata{})
	require.Empty(t, tags)
}
