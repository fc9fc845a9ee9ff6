package rendition

import (
	"bytes"
	"image"
	"image/color"
	"math/bits"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestResizeLongEdgePreservesAspectRatio(t *testing.T) {
	src := checkerboard(4000, 3000)
	dst := ResizeLongEdge(src, PreviewLongEdge)
	b := dst.Bounds()
	require.Equal(t, PreviewLongEdge, b.Dx())
	require.InDelta(t, 3000.0/4000.0, float64(b.Dy())/float64(b.Dx()), 0.01)
}

func TestResizeLongEdgeNeverUpscales(t *testing.T) {
	src := checkerboard(100, 80)
	dst := ResizeLongEdge(src, PreviewLongEdge)
	require.Equal(t, src.Bounds(), dst.Bounds())
}

func TestContentHashIsDeterministic(t *testing.T) {
	data := []byte("some file bytes")
	h1, err := ContentHash(bytes.NewReader(data))
	require.NoError(t, err)
	h2, err := ContentHash(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 32) // 128 bits as hex
	require.Equal(t, strings.ToLower(h1), h1)
}

func TestContentHashDiffersOnDifferentInput(t *testing.T) {
	h1, _ := ContentHash(bytes.NewReader([]byte("a")))
	h2, _ := ContentHash(bytes.NewReader([]byte("b")))
	require.NotEqual(t, h1, h2)
}

func TestDHashIdenticalImagesMatch(t *testing.T) {
	img := checkerboard(64, 64)
	require.Equal(t, DHash(img), DHash(img))
}

func TestDHashSingleAdjacentPixelFlipChangesExactlyOneBit(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 9, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 9; x++ {
			base.Set(x, y, color.Gray{Y: uint8(x * 20)})
		}
	}
	h1 := DHash(base)

	flipped := image.NewRGBA(base.Bounds())
	copy(flipped.Pix, base.Pix)
	// Flip the comparison outcome at (x=0,y=0) vs (x=1,y=0) by pushing pixel 0 above pixel 1.
	flipped.Set(0, 0, color.Gray{Y: 255})

	h2 := DHash(flipped)
	diff := bits.OnesCount64(uint64(h1 ^ h2))
	require.Equal(t, 1, diff)
}

func TestGPUResizeFallsBackWhenUnavailable(t *testing.T) {
	_, ok := GPUResizeLongEdge(checkerboard(10, 10), 5)
	require.False(t, ok)
}
