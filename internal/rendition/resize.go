// Package rendition produces preview/thumbnail JPEGs and the content-hash
// and perceptual-hash fingerprints derived from them.
package rendition

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
)

const (
	// PreviewLongEdge is the target long-edge size for the preview rendition.
	PreviewLongEdge = 1600
	// ThumbnailLongEdge is the target long-edge size for the thumbnail.
	ThumbnailLongEdge = 320

	jpegQuality = 90
)

// ResizeLongEdge scales img down so its longer side equals longEdge,
// preserving aspect ratio, using a Catmull-Rom resampling filter. An image
// whose longer side is already at most longEdge is returned unchanged. The CPU path
// implemented here is the reference for correctness; an optional GPU
// offload (Windows, behind a capability check) must match it within ±1 per
// channel.
func ResizeLongEdge(img image.Image, longEdge int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}

	var dstW, dstH int
	if srcW >= srcH {
		dstW = longEdge
		dstH = max1(int(float64(srcH) * float64(longEdge) / float64(srcW)))
	} else {
		dstH = longEdge
		dstW = max1(int(float64(srcW) * float64(longEdge) / float64(srcH)))
	}
	if dstW >= srcW && dstH >= srcH {
		return img // never upscale
	}

	return catmullRomResize(img, dstW, dstH)
}

// ResizeExact resamples img to exactly dstW x dstH, ignoring aspect ratio.
// Used to feed network input tensors, which require a fixed size.
func ResizeExact(img image.Image, dstW, dstH int) image.Image {
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	return catmullRomResize(img, dstW, dstH)
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// EncodeJPEG encodes img as a JPEG at a fixed quality suitable for previews
// and thumbnails.
func EncodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	return buf.Bytes()
}

// catmullRomResize performs a separable Catmull-Rom (cubic) resample: one
// pass over rows, one pass over columns. No external imaging library is
// used in this corpus (the nearest-neighbor resize in the face-recognition
// pipeline this package generalizes is the only resize precedent), so the
// kernel is implemented directly against image.Image/image.RGBA.
func catmullRomResize(src image.Image, dstW, dstH int) *image.RGBA {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	rgba := toRGBA(src)

	// Horizontal pass: srcW x srcH -> dstW x srcH
	tmp := image.NewRGBA(image.Rect(0, 0, dstW, srcH))
	for y := 0; y < srcH; y++ {
		for x := 0; x < dstW; x++ {
			srcX := (float64(x) + 0.5) * float64(srcW) / float64(dstW) - 0.5
			r, g, bl, a := catmullRomSampleRow(rgba, srcX, y, srcW)
			tmp.SetRGBA(x, y, rgbaColor(r, g, bl, a))
		}
	}

	// Vertical pass: dstW x srcH -> dstW x dstH
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for x := 0; x < dstW; x++ {
		for y := 0; y < dstH; y++ {
			srcY := (float64(y) + 0.5) * float64(srcH) / float64(dstH) - 0.5
			r, g, bl, a := catmullRomSampleCol(tmp, x, srcY, srcH)
			dst.SetRGBA(x, y, rgbaColor(r, g, bl, a))
		}
	}

	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return rgba
}

func catmullRom(t float64) float64 {
	t = abs(t)
	if t <= 1 {
		return (1.5*t-2.5)*t*t + 1
	}
	if t <= 2 {
		return ((-0.5*t+2.5)*t-4)*t + 2
	}
	return 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func catmullRomSampleRow(img *image.RGBA, srcX float64, y, srcW int) (r, g, b, a float64) {
	x0 := int(srcX)
	for k := -1; k <= 2; k++ {
		xi := clampIdx(x0+k, srcW)
		w := catmullRom(srcX - float64(x0+k))
		off := img.PixOffset(xi, y)
		r += w * float64(img.Pix[off])
		g += w * float64(img.Pix[off+1])
		b += w * float64(img.Pix[off+2])
		a += w * float64(img.Pix[off+3])
	}
	return clamp255(r), clamp255(g), clamp255(b), clamp255(a)
}

func catmullRomSampleCol(img *image.RGBA, x int, srcY float64, srcH int) (r, g, b, a float64) {
	y0 := int(srcY)
	for k := -1; k <= 2; k++ {
		yi := clampIdx(y0+k, srcH)
		w := catmullRom(srcY - float64(y0+k))
		off := img.PixOffset(x, yi)
		r += w * float64(img.Pix[off])
		g += w * float64(img.Pix[off+1])
		b += w * float64(img.Pix[off+2])
		a += w * float64(img.Pix[off+3])
	}
	return clamp255(r), clamp255(g), clamp255(b), clamp255(a)
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func rgbaColor(r, g, b, a float64) color.RGBA {
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}
}
