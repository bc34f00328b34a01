package mcts

import "github.com/chewxy/math32"

// argmaxU32 returns the index of the largest value in vals, breaking ties
// toward the lowest index (§4.8 "best move: most visits, ties toward the
// lower move index").
func argmaxU32(vals []uint32) int {
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return best
}

// softmax writes the temperature-scaled softmax of logits into dst,
// which must be the same length as logits. Used for first-move sampling
// (§4.8 "softmax-temperature sampling").
func softmax(dst, logits []float32, temperature float32) {
	if temperature <= 0 {
		temperature = 1
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float32
	for i, l := range logits {
		e := math32.Exp((l - maxLogit) / temperature)
		dst[i] = e
		sum += e
	}
	if sum == 0 {
		return
	}
	for i := range dst {
		dst[i] /= sum
	}
}

// renormalize scales vals in place so they sum to 1, unless they already
// sum to ~0, in which case it falls back to a uniform distribution
// (§4.6 item 1, §8 "round-trip property": priors over legal moves always
// sum to 1 after masking illegal moves out).
func renormalize(vals []float32) {
	var sum float32
	for _, v := range vals {
		sum += v
	}
	if sum <= 1e-8 {
		uniform := 1 / float32(len(vals))
		for i := range vals {
			vals[i] = uniform
		}
		return
	}
	for i := range vals {
		vals[i] /= sum
	}
}
