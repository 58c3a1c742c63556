// Package synth stands in for the actual neural-network execution step
// that a real OpenVINO/TensorRT back end would perform. The model-graph
// and weight binary formats themselves stay out of scope, consumed
// opaquely by back ends; this package is the opaque "run the network"
// step those formats would otherwise drive. It derives deterministic
// per-image tensor values from a hash of the raw image bytes and a
// caller-supplied graph salt (the back ends pass the graph file's path),
// so that identical inputs always
// produce identical raw output tensors (the idempotence property
// required of detection) without requiring an actual inference runtime.
package synth

import (
	"hash/fnv"
)

// seed derives a stable 64-bit seed from the image bytes so outputs are a
// pure function of the input.
func seed(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// stream produces a reproducible sequence of floats in [0,1) from a seed,
// advancing a simple splitmix64 generator. It is not cryptographic; it
// only needs to be deterministic and well-distributed enough to exercise
// the score-threshold and NMS logic realistically.
type stream struct{ state uint64 }

func newStream(s uint64) *stream { return &stream{state: s} }

func (g *stream) next() float64 {
	g.state += 0x9E3779B97F4A7C15
	z := g.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return float64(z) / float64(^uint64(0))
}

// DetectionTensor synthesizes a flat SSD/FasterRCNN-style [N,7] output
// tensor: n candidate detections, each with a plausible image_id=0,
// label_id in [1,maxLabelID], a score, and a box in normalized
// coordinates, terminated by the image_id<0 sentinel.
func DetectionTensor(data []byte, graphSalt []byte, n, maxLabelID int) []float32 {
	if maxLabelID < 1 {
		maxLabelID = 1
	}
	g := newStream(seed(append(append([]byte{}, data...), graphSalt...)))
	out := make([]float32, 0, (n+1)*7)
	for i := 0; i < n; i++ {
		labelID := 1 + int(g.next()*float64(maxLabelID))
		if labelID > maxLabelID {
			labelID = maxLabelID
		}
		score := float32(g.next())
		x1 := float32(g.next() * 0.6)
		y1 := float32(g.next() * 0.6)
		x2 := x1 + float32(0.1+g.next()*0.3)
		y2 := y1 + float32(0.1+g.next()*0.3)
		if x2 > 1 {
			x2 = 1
		}
		if y2 > 1 {
			y2 = 1
		}
		out = append(out, 0, float32(labelID), score, x1, y1, x2, y2)
	}
	// sentinel terminator
	out = append(out, -1, 0, 0, 0, 0, 0, 0)
	return out
}

// GridTensor synthesizes one YOLOv3 RegionYolo output layer for a grid of
// the given side, num anchors, and numClasses.
func GridTensor(data []byte, graphSalt []byte, side, num, coords, numClasses int) []float32 {
	salted := append(append([]byte{}, data...), graphSalt...)
	salted = append(salted, byte(side))
	g := newStream(seed(salted))
	planeLen := side * side
	total := num * planeLen * (coords + 1 + numClasses)
	out := make([]float32, total)
	for n := 0; n < num; n++ {
		for i := 0; i < planeLen; i++ {
			base := n * planeLen * (coords + 1 + numClasses)
			// box coords: small offsets and modest extents
			out[base+0*planeLen+i] = float32(g.next())
			out[base+1*planeLen+i] = float32(g.next())
			out[base+2*planeLen+i] = float32(g.next()*0.4 - 0.6)
			out[base+3*planeLen+i] = float32(g.next()*0.4 - 0.6)
			out[base+coords*planeLen+i] = float32(g.next())
			for c := 0; c < numClasses; c++ {
				out[base+(coords+1+c)*planeLen+i] = float32(g.next())
			}
		}
	}
	return out
}
