package rendition

import (
	"encoding/hex"
	"fmt"
	"image"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes a non-cryptographic 128-bit hash of r's full
// contents, rendered as lowercase hex. It is used only for cache keying and
// audit, never for photo identity comparison (that's the (path, mtime,
// size) triple). Two independent 64-bit xxhash digests (of the stream
// unseeded and with a fixed non-zero seed) are concatenated to reach 128 bits; xxhash
// is already the fast non-cryptographic hash this pack's storage layer
// relies on for index keys.
func ContentHash(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content for hashing: %w", err)
	}

	h1 := xxhash.Sum64(data)
	h2 := xxhash.Sum64WithSeed(data, 0x9e3779b97f4a7c15)

	buf := make([]byte, 16)
	putUint64(buf[0:8], h1)
	putUint64(buf[8:16], h2)
	return hex.EncodeToString(buf), nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}

// DHash computes the 64-bit difference hash of img: resize to 9x8 luma,
// then for each of 8 rows emit 8 bits where bit i = luma[i] > luma[i+1].
// The result is returned as the signed 64-bit bit pattern the catalog
// column stores.
func DHash(img image.Image) int64 {
	const w, h = 9, 8
	luma := lumaGrid(img, w, h)

	var bitsOut uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w-1; x++ {
			bitsOut <<= 1
			if luma[y*w+x] > luma[y*w+x+1] {
				bitsOut |= 1
			}
		}
	}
	return int64(bitsOut)
}

func lumaGrid(img image.Image, w, h int) []uint8 {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	out := make([]uint8, w*h)
	if srcW == 0 || srcH == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			// ITU-R BT.601 luma, inputs are 16-bit per RGBA().
			l := (299*r + 587*g + 114*b) / 1000
			out[y*w+x] = uint8(l >> 8)
		}
	}
	return out
}
