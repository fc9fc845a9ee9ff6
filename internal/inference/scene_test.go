package inference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectSceneTagsPrefersPrimaryThenFillsSecondary(t *testing.T) {
	scores := map[string]float32{
		"beach":    0.8,
		"mountain": 0.6,
		"forest":   0.55,
		"desert":   0.1,
	}
	tags := selectSceneTags(scores, 0.7, 0.5)

	require.Contains(t, tags, "beach")
	require.Contains(t, tags, "mountain")
	require.Contains(t, tags, "forest")
	require.NotContains(t, tags, "desert")
}

func TestSelectSceneTagsCapsAtMax(t *testing.T) {
	scores := map[string]float32{
		"a": 0.9, "b": 0.9, "c": 0.9, "d": 0.9, "e": 0.9, "f": 0.9,
	}
	tags := selectSceneTags(scores, 0.7, 0.5)
	require.LessOrEqual(t, len(tags), MaxSceneTags)
}

func TestSelectSceneTagsFallsBackWhenNoneClearThresholds(t *testing.T) {
	scores := map[string]float32{"a": 0.1, "b": 0.05}
	tags := selectSceneTags(scores, 0.7, 0.5)
	require.NotEmpty(t, tags)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{1, 2, 3})
	var sum float32
	for _, p := range probs {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-4)
}
