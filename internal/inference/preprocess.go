package inference

import (
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/phototag/internal/rendition"
)

// normalizeMode selects one of the three pixel-scaling conventions the
// scene classifier is probed with.
type normalizeMode int

const (
	normalizeImageNet normalizeMode = iota
	normalizeRaw01
	normalizeMinus1To1
)

var imageNetMean = [3]float32{0.485, 0.456, 0.406}
var imageNetStd = [3]float32{0.229, 0.224, 0.225}

// buildInputTensor resizes img to the binding's declared size and packs it
// into a float32 tensor in the binding's layout (planar NCHW or
// interleaved NHWC), scaled per mode.
func buildInputTensor(img image.Image, binding ModelBinding, mode normalizeMode) (*ort.Tensor[float32], error) {
	resized := rendition.ResizeExact(img, binding.Width, binding.Height)

	var shape ort.Shape
	if binding.Planar {
		shape = ort.NewShape(1, 3, int64(binding.Height), int64(binding.Width))
	} else {
		shape = ort.NewShape(1, int64(binding.Height), int64(binding.Width), 3)
	}

	tensor, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, err
	}
	data := tensor.GetData()

	w, h := binding.Width, binding.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			rf := scalePixel(uint8(r>>8), 0, mode)
			gf := scalePixel(uint8(g>>8), 1, mode)
			bf := scalePixel(uint8(b>>8), 2, mode)
			if binding.Planar {
				data[0*h*w+y*w+x] = rf
				data[1*h*w+y*w+x] = gf
				data[2*h*w+y*w+x] = bf
			} else {
				off := (y*w + x) * 3
				data[off] = rf
				data[off+1] = gf
				data[off+2] = bf
			}
		}
	}
	return tensor, nil
}

func scalePixel(v uint8, channel int, mode normalizeMode) float32 {
	f := float32(v) / 255.0
	switch mode {
	case normalizeImageNet:
		return (f - imageNetMean[channel]) / imageNetStd[channel]
	case normalizeMinus1To1:
		return f*2 - 1
	default: // normalizeRaw01
		return f
	}
}

// softmax returns a numerically stable softmax over values.
func softmax(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float32, len(values))
	var sum float32
	for i, v := range values {
		e := float32(math.Exp(float64(v - max)))
		out[i] = e
		sum += e
	}
	if sum <= 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
