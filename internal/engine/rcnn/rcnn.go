// Package rcnn implements the two-stage detector output parser. Faster
// R-CNN shares the SSD family's [1,1,N,7] detection output layout but
// takes a second image-info input and a different score threshold.
package rcnn

import "github.com/canhld94/HeteroServing/internal/engine/ssd"

// ScoreThreshold is the minimum score a Faster R-CNN detection must meet.
const ScoreThreshold = 0.5

// Box is a parsed, image-space Faster R-CNN detection.
type Box = ssd.Box

// ImageInfo is the second network input: [width, height] in network input
// coordinates.
type ImageInfo struct {
	Width, Height float32
}

// Parse reuses the SSD 7-tuple walk (same terminator and field layout)
// with the Faster R-CNN score threshold.
func Parse(raw []float32, origW, origH int) []Box {
	boxes := ssd.Parse(raw, origW, origH)
	out := boxes[:0]
	for _, b := range boxes {
		if b.Score >= ScoreThreshold {
			out = append(out, b)
		}
	}
	return out
}
