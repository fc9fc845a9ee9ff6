package inference

import (
	"image"
	"sort"
)

const (
	// MaxSceneTags caps how many scene-derived tags survive into the fused map.
	MaxSceneTags = 5
	// sceneGroupTopK is how many highest-probability raw labels vote for tags.
	sceneGroupTopK = 10
	// sceneGroupMinLabels is the minimum number of distinct mapped labels
	// required for a tag to be admitted at all.
	sceneGroupMinLabels = 3
)

// sceneScore pairs a raw model label with its softmax probability.
type sceneScore struct {
	label string
	prob  float32
}

// runScene classifies img against the scene model, returning a
// tag->confidence map. An empty map (no error) means no scene model is
// loaded.
func (e *Engine) runScene(img image.Image, primaryThreshold, secondaryThreshold float32) (map[string]float32, error) {
	e.mu.Lock()
	s, ok := e.cache[ModelScene]
	labels := e.sceneLabels
	tagsByLabel := e.sceneTagMap
	e.mu.Unlock()
	if !ok {
		return map[string]float32{}, nil
	}

	logits, err := bestSceneLogits(s, img)
	if err != nil {
		return nil, err
	}
	if len(logits) == 0 {
		return map[string]float32{}, nil
	}

	if len(labels) == 0 {
		return map[string]float32{}, nil
	}
	n := len(logits)
	if len(labels) < n {
		n = len(labels)
	}
	probs := softmax(logits[:n])

	all := make([]sceneScore, n)
	for i := 0; i < n; i++ {
		all[i] = sceneScore{label: labels[i], prob: probs[i]}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].prob > all[j].prob })

	if len(tagsByLabel) == 0 {
		// No sidecar tag map: treat labels as tags directly.
		return topLabelsAsTags(all, primaryThreshold, secondaryThreshold), nil
	}

	topK := all
	if len(topK) > sceneGroupTopK {
		topK = topK[:sceneGroupTopK]
	}
	groupCounts := make(map[string]int)
	for _, item := range topK {
		for _, tag := range tagsByLabel[item.label] {
			groupCounts[tag]++
		}
	}

	groupScores := make(map[string]float32)
	for _, item := range all {
		for _, tag := range tagsByLabel[item.label] {
			groupScores[tag] += item.prob
		}
	}
	for tag := range groupScores {
		if groupCounts[tag] < sceneGroupMinLabels {
			delete(groupScores, tag)
		}
	}

	return selectSceneTags(groupScores, primaryThreshold, secondaryThreshold), nil
}

func topLabelsAsTags(all []sceneScore, primary, secondary float32) map[string]float32 {
	out := make(map[string]float32)
	for _, item := range all {
		if item.prob >= primary {
			out[item.label] = item.prob
		}
		if len(out) >= MaxSceneTags {
			break
		}
	}
	if len(out) < MaxSceneTags {
		for _, item := range all {
			if _, exists := out[item.label]; exists {
				continue
			}
			if item.prob >= secondary {
				out[item.label] = item.prob
				if len(out) >= MaxSceneTags {
					break
				}
			}
		}
	}
	return out
}

// selectSceneTags ranks group scores and keeps up to MaxSceneTags,
// preferring primaryThreshold passes and filling remaining slots with
// secondaryThreshold passes, per §4.C. When no group clears either
// threshold, the top MaxSceneTags groups are returned regardless of score.
func selectSceneTags(groupScores map[string]float32, primary, secondary float32) map[string]float32 {
	type entry struct {
		tag   string
		score float32
	}
	ranked := make([]entry, 0, len(groupScores))
	for tag, score := range groupScores {
		ranked = append(ranked, entry{tag, score})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make(map[string]float32)
	for _, e := range ranked {
		if e.score >= primary {
			out[e.tag] = e.score
			if len(out) >= MaxSceneTags {
				return out
			}
		}
	}
	for _, e := range ranked {
		if _, ok := out[e.tag]; ok {
			continue
		}
		if e.score >= secondary {
			out[e.tag] = e.score
			if len(out) >= MaxSceneTags {
				return out
			}
		}
	}
	if len(out) == 0 {
		for i, e := range ranked {
			if i >= MaxSceneTags {
				break
			}
			out[e.tag] = e.score
		}
	}
	return out
}

// bestSceneLogits tries the three pixel-scaling conventions in order and
// keeps whichever produced the highest top-1 softmax probability, per
// §4.C's "the engine attempts three normalizations ... and keeps the one
// whose softmax top-1 probability is greatest."
func bestSceneLogits(s *session, img image.Image) ([]float32, error) {
	modes := []normalizeMode{normalizeImageNet, normalizeRaw01, normalizeMinus1To1}

	var best []float32
	var bestTop1 float32 = -1
	for _, mode := range modes {
		logits, err := sceneLogitsForMode(s, img, mode)
		if err != nil {
			return nil, err
		}
		if len(logits) == 0 {
			continue
		}
		top1 := top1Prob(logits)
		if top1 > bestTop1 {
			bestTop1 = top1
			best = logits
		}
	}
	return best, nil
}

func sceneLogitsForMode(s *session, img image.Image, mode normalizeMode) ([]float32, error) {
	input, err := buildInputTensor(img, s.binding, mode)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	outputs, err := runSession(s, input)
	if err != nil {
		return nil, err
	}
	for _, v := range outputs {
		if t, ok := asFloatTensor(v); ok {
			defer t.Destroy()
			data := t.GetData()
			out := make([]float32, len(data))
			copy(out, data)
			return out, nil
		}
	}
	return nil, nil
}

func top1Prob(logits []float32) float32 {
	probs := softmax(logits)
	var max float32
	for _, p := range probs {
		if p > max {
			max = p
		}
	}
	return max
}
