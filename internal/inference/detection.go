package inference

import (
	"image"
	"math"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// DefaultDetectionConfidence is the score floor for a YOLO-style box.
	DefaultDetectionConfidence = 0.25
	// DefaultDetectionIOU is the NMS suppression threshold.
	DefaultDetectionIOU = 0.45
	// letterboxPad is the fill value used outside the source image when
	// letterboxing to the network's square input.
	letterboxPad = 114
)

type detectedBox struct {
	classID        int
	score          float32
	x1, y1, x2, y2 float32
}

// floatOutput pairs a decoded output tensor's shape with its flat data.
type floatOutput struct {
	shape []int64
	data  []float32
}

var fallbackDetectionLabels = map[string]string{
	"person": "person",
	"cat":    "cat",
	"dog":    "dog",
	"bird":   "bird",
}

var fallbackAnimalLabels = map[string]bool{
	"horse": true, "sheep": true, "cow": true, "elephant": true,
	"bear": true, "zebra": true, "giraffe": true,
}

var fallbackVehicleLabels = map[string]bool{
	"bicycle": true, "car": true, "motorcycle": true, "airplane": true,
	"bus": true, "train": true, "truck": true, "boat": true,
}

// runDetection runs the object detector, returning tag->confidence. An
// empty map (no error) means no detection model is loaded.
func (e *Engine) runDetection(img image.Image, confidenceThreshold, iouThreshold float32) (map[string]float32, error) {
	e.mu.Lock()
	s, ok := e.cache[ModelDetection]
	labels := e.detectionLabels
	tagsByLabel := e.detectionTagMap
	e.mu.Unlock()
	if !ok {
		return map[string]float32{}, nil
	}

	letter, offX, offY, scale := letterbox(img, s.binding.Width, s.binding.Height)
	input, err := buildInputTensor(letter, s.binding, normalizeRaw01)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	outputs, err := runSession(s, input)
	if err != nil {
		return nil, err
	}
	tensors := collectFloatOutputs(outputs)

	if boxes, ok := decodeYOLO(tensors, confidenceThreshold); ok {
		boxes = unletterbox(boxes, offX, offY, scale)
		boxes = classAwareNMS(boxes, iouThreshold)
		return boxesToTags(boxes, labels, tagsByLabel), nil
	}

	if tags, ok := decodeScorePair(tensors, confidenceThreshold); ok {
		return tags, nil
	}

	return perClassMaxima(tensors, labels, tagsByLabel), nil
}

func collectFloatOutputs(outputs []ort.Value) []floatOutput {
	out := make([]floatOutput, 0, len(outputs))
	for _, v := range outputs {
		t, ok := asFloatTensor(v)
		if !ok {
			continue
		}
		shape := t.GetShape()
		data := t.GetData()
		cp := make([]float32, len(data))
		copy(cp, data)
		dims := make([]int64, len(shape))
		copy(dims, shape)
		out = append(out, floatOutput{shape: dims, data: cp})
		t.Destroy()
	}
	return out
}

// decodeYOLO handles the `[1,N,5+C]` (row-major per-detection) or
// `[1,5+C,N]` (channel-major) YOLOv5-style output shapes.
func decodeYOLO(tensors []floatOutput, confidenceThreshold float32) ([]detectedBox, bool) {
	for _, t := range tensors {
		dims := trimBatchDim(t.shape)
		if len(dims) != 2 {
			continue
		}
		a, b := int(dims[0]), int(dims[1])
		if b == 2 || b == 4 {
			// [N, 2] scores or [N, 4] boxes: the binary form, left to decodeScorePair.
			continue
		}

		if b >= 6 {
			// [N, 5+C] layout.
			return decodeRows(t.data, a, b, confidenceThreshold), true
		}
		if a >= 6 {
			// [5+C, N] layout, transpose on read.
			return decodeCols(t.data, a, b, confidenceThreshold), true
		}
	}
	return nil, false
}

func trimBatchDim(shape []int64) []int64 {
	if len(shape) == 3 && shape[0] == 1 {
		return shape[1:]
	}
	return shape
}

func decodeRows(data []float32, n, stride int, confidenceThreshold float32) []detectedBox {
	numClasses := stride - 5
	var boxes []detectedBox
	for i := 0; i < n; i++ {
		row := data[i*stride : (i+1)*stride]
		cx, cy, w, h := row[0], row[1], row[2], row[3]
		obj := sigmoid(row[4])
		classID, classProb := argmaxSigmoid(row[5 : 5+numClasses])
		score := obj * classProb
		if score < confidenceThreshold {
			continue
		}
		boxes = append(boxes, detectedBox{
			classID: classID,
			score:   score,
			x1:      cx - w/2, y1: cy - h/2,
			x2: cx + w/2, y2: cy + h/2,
		})
	}
	return boxes
}

func decodeCols(data []float32, stride, n int, confidenceThreshold float32) []detectedBox {
	numClasses := stride - 5
	at := func(row, col int) float32 { return data[row*n+col] }
	var boxes []detectedBox
	for i := 0; i < n; i++ {
		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		obj := sigmoid(at(4, i))
		classVals := make([]float32, numClasses)
		for c := 0; c < numClasses; c++ {
			classVals[c] = at(5+c, i)
		}
		classID, classProb := argmaxSigmoid(classVals)
		score := obj * classProb
		if score < confidenceThreshold {
			continue
		}
		boxes = append(boxes, detectedBox{
			classID: classID,
			score:   score,
			x1:      cx - w/2, y1: cy - h/2,
			x2: cx + w/2, y2: cy + h/2,
		})
	}
	return boxes
}

func argmaxSigmoid(vals []float32) (int, float32) {
	best, bestIdx := float32(-1), 0
	for i, v := range vals {
		s := sigmoid(v)
		if s > best {
			best = s
			bestIdx = i
		}
	}
	return bestIdx, best
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(float64(-x))))
}

// decodeScorePair handles the binary form: two outputs, one `[1,N,2]`
// (column 1 is foreground probability) and one `[1,N,4]` (boxes), folded
// down to a single "person" tag per §4.C.
func decodeScorePair(tensors []floatOutput, confidenceThreshold float32) (map[string]float32, bool) {
	var scores *floatOutput
	for i := range tensors {
		dims := trimBatchDim(tensors[i].shape)
		if len(dims) == 2 && dims[1] == 2 {
			scores = &tensors[i]
			break
		}
	}
	if scores == nil {
		return nil, false
	}

	n := len(scores.data) / 2
	var best float32
	for i := 0; i < n; i++ {
		fg := sigmoid(scores.data[i*2+1])
		if fg > best {
			best = fg
		}
	}
	if best < confidenceThreshold {
		return map[string]float32{}, true
	}
	return map[string]float32{"person": best}, true
}

// perClassMaxima is the last-resort fallback when the output shape
// matches neither known form: collapse every tensor to a flat vector and
// take per-class maxima modulo the label count.
func perClassMaxima(tensors []floatOutput, labels labelVocab, tagsByLabel tagMap) map[string]float32 {
	if len(labels) == 0 {
		return map[string]float32{}
	}
	maxima := make([]float32, len(labels))
	for _, t := range tensors {
		for i, v := range t.data {
			idx := i % len(labels)
			s := sigmoid(v)
			if s > maxima[idx] {
				maxima[idx] = s
			}
		}
	}
	tags := make(map[string]float32)
	for i, score := range maxima {
		if score <= 0 {
			continue
		}
		tag := mapDetectionLabel(labels[i], tagsByLabel)
		if tag == "" {
			continue
		}
		if score > tags[tag] {
			tags[tag] = score
		}
	}
	return tags
}

func boxesToTags(boxes []detectedBox, labels labelVocab, tagsByLabel tagMap) map[string]float32 {
	tags := make(map[string]float32)
	for _, b := range boxes {
		label := classLabel(labels, b.classID)
		if label == "" {
			continue
		}
		tag := mapDetectionLabel(label, tagsByLabel)
		if tag == "" {
			continue
		}
		if b.score > tags[tag] {
			tags[tag] = b.score
		}
	}
	return tags
}

func classLabel(labels labelVocab, classID int) string {
	if classID < 0 || classID >= len(labels) {
		return ""
	}
	return labels[classID]
}

func mapDetectionLabel(label string, tagsByLabel tagMap) string {
	if len(tagsByLabel) > 0 {
		if tags, ok := tagsByLabel[label]; ok && len(tags) > 0 {
			return tags[0]
		}
		return ""
	}
	if tag, ok := fallbackDetectionLabels[label]; ok {
		return tag
	}
	if fallbackAnimalLabels[label] {
		return "animal"
	}
	if fallbackVehicleLabels[label] {
		return "vehicle"
	}
	return ""
}

// letterbox scales img to fit within (w,h) preserving aspect ratio, pads
// with letterboxPad, and returns the offsets/scale needed to map boxes
// back to source coordinates.
func letterbox(img image.Image, w, h int) (image.Image, int, int, float64) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	scale := math.Min(float64(w)/float64(srcW), float64(h)/float64(srcH))
	newW := int(float64(srcW) * scale)
	newH := int(float64(srcH) * scale)

	resized := resizeForLetterbox(img, newW, newH)
	padX := (w - newW) / 2
	padY := (h - newH) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	fillGray(canvas, letterboxPad)
	drawInto(canvas, resized, padX, padY)
	return canvas, padX, padY, scale
}

func unletterbox(boxes []detectedBox, offX, offY int, scale float64) []detectedBox {
	out := make([]detectedBox, len(boxes))
	for i, b := range boxes {
		out[i] = detectedBox{
			classID: b.classID,
			score:   b.score,
			x1:      float32((float64(b.x1) - float64(offX)) / scale),
			y1:      float32((float64(b.y1) - float64(offY)) / scale),
			x2:      float32((float64(b.x2) - float64(offX)) / scale),
			y2:      float32((float64(b.y2) - float64(offY)) / scale),
		}
	}
	return out
}

func classAwareNMS(boxes []detectedBox, iouThreshold float32) []detectedBox {
	byClass := make(map[int][]detectedBox)
	for _, b := range boxes {
		byClass[b.classID] = append(byClass[b.classID], b)
	}
	var kept []detectedBox
	for _, group := range byClass {
		kept = append(kept, nms(group, iouThreshold)...)
	}
	return kept
}

// nms is a classic greedy non-max suppression pass, adapted from the
// teacher's face-detection NMS to generic detectedBox values.
func nms(boxes []detectedBox, iouThreshold float32) []detectedBox {
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].score > boxes[j].score })
	kept := make([]detectedBox, 0, len(boxes))
	suppressed := make([]bool, len(boxes))
	for i := range boxes {
		if suppressed[i] {
			continue
		}
		kept = append(kept, boxes[i])
		for j := i + 1; j < len(boxes); j++ {
			if suppressed[j] {
				continue
			}
			if iou(boxes[i], boxes[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b detectedBox) float32 {
	ix1, iy1 := maxF(a.x1, b.x1), maxF(a.y1, b.y1)
	ix2, iy2 := minF(a.x2, b.x2), minF(a.y2, b.y2)
	iw, ih := maxF(0, ix2-ix1), maxF(0, iy2-iy1)
	inter := iw * ih
	areaA := (a.x2 - a.x1) * (a.y2 - a.y1)
	areaB := (b.x2 - b.x1) * (b.y2 - b.y1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
