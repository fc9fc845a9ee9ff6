package inference

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/your-org/phototag/internal/rendition"
)

func resizeForLetterbox(img image.Image, w, h int) image.Image {
	return rendition.ResizeExact(img, w, h)
}

func fillGray(canvas *image.RGBA, v uint8) {
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.RGBA{R: v, G: v, B: v, A: 255}}, image.Point{}, draw.Src)
}

func drawInto(canvas *image.RGBA, img image.Image, offX, offY int) {
	b := img.Bounds()
	dstRect := image.Rect(offX, offY, offX+b.Dx(), offY+b.Dy())
	draw.Draw(canvas, dstRect, img, b.Min, draw.Src)
}
