package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLabelStripsLeadingIndex(t *testing.T) {
	require.Equal(t, "golden retriever", normalizeLabel("12: Golden Retriever"))
	require.Equal(t, "tabby cat", normalizeLabel("3 Tabby Cat"))
	require.Equal(t, "beach", normalizeLabel("beach"))
	require.Equal(t, "", normalizeLabel("   "))
}

func TestLoadLabelsMissingFileIsNotError(t *testing.T) {
	labels, err := loadLabels(filepath.Join(t.TempDir(), "missing.labels.txt"))
	require.NoError(t, err)
	require.Nil(t, labels)
}

func TestLoadLabelsParsesOneLabelPerLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("0: beach\n1: mountain\nforest\n"), 0o644))

	labels, err := loadLabels(path)
	require.NoError(t, err)
	require.Equal(t, labelVocab{"beach", "mountain", "forest"}, labels)
}

func TestLoadTagMapParsesColonAndEqualsForms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.tags.txt")
	content := "# comment\nbeach: shoreline, sand\nforest = woods\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tags, err := loadTagMap(path)
	require.NoError(t, err)
	require.Equal(t, []string{"beach"}, tags["shoreline"])
	require.Equal(t, []string{"beach"}, tags["sand"])
	require.Equal(t, []string{"forest"}, tags["woods"])
}
