package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunEmbedStageComputesFromPreview(t *testing.T) {
	it := &item{previewJPG: encodeTestJPEG(t, 64, 64)}
	vec, norm, ok := runEmbedStage(it)
	require.True(t, ok)
	require.NotEmpty(t, vec)
	require.GreaterOrEqual(t, norm, 0.0)
}

func TestRunEmbedStageFallsBackToThumbnail(t *testing.T) {
	it := &item{thumbJPG: encodeTestJPEG(t, 32, 32)}
	vec, _, ok := runEmbedStage(it)
	require.True(t, ok)
	require.NotEmpty(t, vec)
}

func TestRunEmbedStageNoImageReturnsNotOK(t *testing.T) {
	it := &item{}
	_, _, ok := runEmbedStage(it)
	require.False(t, ok)
}
