// Package embedding computes the 48-D color-histogram embedding used for
// similarity search, and the little-endian serialization it is stored in.
package embedding

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
)

const (
	// Dimensions is the embedding vector length: 16 bins per channel, 3 channels.
	Dimensions = 48
	bins       = 16
	sampleSize = 64

	// normFloor is the minimum L2 norm used when normalizing, to avoid
	// dividing by (near) zero for degenerate all-black images.
	normFloor = 1e-6
)

// Compute resizes img to 64x64 and builds three 16-bin R/G/B histograms,
// concatenated as (R-bins | G-bins | B-bins), counts as floats.
func Compute(img image.Image) []float32 {
	vec := make([]float32, Dimensions)
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return vec
	}

	for y := 0; y < sampleSize; y++ {
		srcY := bounds.Min.Y + y*srcH/sampleSize
		for x := 0; x < sampleSize; x++ {
			srcX := bounds.Min.X + x*srcW/sampleSize
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			vec[bucket(uint8(r>>8))]++
			vec[bins+bucket(uint8(g>>8))]++
			vec[2*bins+bucket(uint8(b>>8))]++
		}
	}
	return vec
}

func bucket(v uint8) int {
	b := int(v) / (256 / bins)
	if b >= bins {
		b = bins - 1
	}
	return b
}

// Normalize divides vec by its L2 norm (floored at normFloor) in place and
// returns the original (pre-normalization) norm.
func Normalize(vec []float32) float64 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	divisor := norm
	if divisor < normFloor {
		divisor = normFloor
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / divisor)
	}
	return norm
}

// Serialize packs vec as little-endian float32.
func Serialize(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Deserialize unpacks a little-endian float32 vector.
func Deserialize(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding buffer length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors. Both inputs are expected to already be L2-normalized, in which
// case this reduces to a dot product, but the full formula is used so it
// stays correct for non-normalized callers (e.g. tests).
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
