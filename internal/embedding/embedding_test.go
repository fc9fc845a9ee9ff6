package embedding

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeDimensions(t *testing.T) {
	vec := Compute(solidImage(color.RGBA{R: 200, G: 10, B: 10, A: 255}, 32, 32))
	require.Len(t, vec, Dimensions)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	vec := []float32{0.1, -0.2, 0.3, 1.0, -1.0, 0}
	buf := Serialize(vec)
	out, err := Deserialize(buf)
	require.NoError(t, err)
	require.Equal(t, vec, out)
}

func TestDeserializeRejectsMisalignedBuffer(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNormalizeFloorsNearZeroVectors(t *testing.T) {
	vec := make([]float32, Dimensions)
	norm := Normalize(vec)
	require.Equal(t, 0.0, norm)
	for _, v := range vec {
		require.Equal(t, float32(0), v)
	}
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	vec := []float32{1, 0, 0, 0}
	require.InDelta(t, 1.0, CosineSimilarity(vec, vec), 1e-9)
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	require.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityWithinBounds(t *testing.T) {
	a := solidImage(color.RGBA{R: 10, G: 200, B: 30, A: 255}, 40, 40)
	b := solidImage(color.RGBA{R: 250, G: 5, B: 220, A: 255}, 40, 40)

	va := Compute(a)
	vb := Compute(b)
	Normalize(va)
	Normalize(vb)

	score := CosineSimilarity(va, vb)
	require.GreaterOrEqual(t, score, -1.0)
	require.LessOrEqual(t, score, 1.0)
}
