package inference

import "image"

// DefaultFaceMinScore is the score floor below which a face score is
// reported as zero, per §4.C.
const DefaultFaceMinScore = 0.75

// portraitFocalLengthMM is the focal length above which a detected face
// contributes a portrait boost.
const portraitFocalLengthMM = 70.0

// portraitBoost is added to the portrait tag when focal length crosses
// portraitFocalLengthMM, capped at 1.0.
const portraitBoost = 0.1

// runFace runs the face detector and returns the resulting portrait
// score in [0,1], or 0 if no model is loaded or no face score clears
// faceMinScore.
func (e *Engine) runFace(img image.Image, focalLengthMM float64, faceMinScore float32) (float32, error) {
	e.mu.Lock()
	s, ok := e.cache[ModelFace]
	e.mu.Unlock()
	if !ok {
		return 0, nil
	}

	input, err := buildInputTensor(img, s.binding, normalizeRaw01)
	if err != nil {
		return 0, err
	}
	defer input.Destroy()

	outputs, err := runSession(s, input)
	if err != nil {
		return 0, err
	}
	tensors := collectFloatOutputs(outputs)

	score := extractFaceScore(tensors)
	score = clamp01(score)
	if score < faceMinScore {
		return 0, nil
	}

	if focalLengthMM > portraitFocalLengthMM {
		score += portraitBoost
	}
	return clamp01(score), nil
}

// extractFaceScore reads either a `[*,2]` score-pair tensor (column 1 is
// face score) or a YOLO-style tensor (row[4] * max class prob), taking
// the maximum candidate across all detections.
func extractFaceScore(tensors []floatOutput) float32 {
	var best float32
	for _, t := range tensors {
		dims := trimBatchDim(t.shape)
		if len(dims) != 2 {
			continue
		}
		n, stride := int(dims[0]), int(dims[1])

		if stride == 2 {
			for i := 0; i < n; i++ {
				s := sigmoid(t.data[i*2+1])
				if s > best {
					best = s
				}
			}
			continue
		}
		if stride >= 6 {
			numClasses := stride - 5
			for i := 0; i < n; i++ {
				row := t.data[i*stride : (i+1)*stride]
				obj := sigmoid(row[4])
				_, classProb := argmaxSigmoid(row[5 : 5+numClasses])
				s := obj * classProb
				if s > best {
					best = s
				}
			}
		}
	}
	return best
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
