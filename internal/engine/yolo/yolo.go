// Package yolo implements the YOLOv3 grid-based detector output parser
// and greedy non-maximum suppression.
package yolo

import "math"

// ObjectnessThreshold and ClassThreshold share the same 0.5 gate: a cell
// is skipped when its objectness falls below it, and a candidate is
// emitted only when objectness times class probability clears it too.
const (
	ObjectnessThreshold = 0.5
	ClassThreshold      = 0.5
	ScoreThreshold      = 0.5
	NMSIoUThreshold     = 0.4
)

// anchors is the canonical 9-pair COCO anchor table, indexed in groups of
// 6 floats (3 anchors) per grid scale.
var anchors = [18]float64{
	10, 13, 16, 30, 33, 23,
	30, 61, 62, 45, 59, 119,
	116, 90, 156, 198, 373, 326,
}

// anchorOffset returns the starting index into anchors for a grid side:
// the coarsest grid (13) uses the largest anchors (offset 12), the
// finest (52) the smallest (offset 0).
func anchorOffset(side int) (int, bool) {
	switch side {
	case 13:
		return 12, true
	case 26:
		return 6, true
	case 52:
		return 0, true
	default:
		return 0, false
	}
}

// Box is one candidate detection in original-image pixel coordinates, with the
// class it was emitted for and its combined objectness*class-probability
// score.
type Box struct {
	ClassID                int
	Score                  float64
	Xmin, Ymin, Xmax, Ymax int
}

// GridOutput is one YOLO output layer: a RegionYolo tensor for grid side
// Side, laid out as Side*Side cells times Num anchors times (Coords + 1 +
// Classes) floats, channel-major: objectness and box coordinates are
// separate side*side-strided planes within a cell/anchor's coords block,
// with class scores immediately after.
type GridOutput struct {
	Side    int
	Num     int
	Coords  int
	Classes int
	Data    []float32
}

// entryIndex is the index of coordinate `loc` within anchor `n`'s block
// of the Data array, treating the array as rows of side*side floats, one
// row per (coord-or-class).
func (g GridOutput) entryIndex(n, pos, loc int) int {
	sideSq := g.Side * g.Side
	return n*sideSq*(g.Coords+1+g.Classes) + loc*sideSq + pos
}

// Parse walks one grid output layer, emitting a candidate Box per
// (cell, anchor, class) whose objectness and class probability both clear
// ClassThreshold, in resized-image coordinates scaled to the original
// image's width/height.
func Parse(g GridOutput, resizedW, resizedH, origW, origH int) []Box {
	offset, ok := anchorOffset(g.Side)
	if !ok {
		return nil
	}
	var out []Box
	sideSq := g.Side * g.Side
	scaleX := float64(origW) / float64(resizedW)
	scaleY := float64(origH) / float64(resizedH)

	for i := 0; i < sideSq; i++ {
		row := i / g.Side
		col := i % g.Side
		for n := 0; n < g.Num; n++ {
			objIdx := g.entryIndex(n, i, g.Coords)
			boxIdx := g.entryIndex(n, i, 0)
			if objIdx >= len(g.Data) || boxIdx+3*sideSq >= len(g.Data) {
				continue
			}
			scale := float64(g.Data[objIdx])
			if scale < ObjectnessThreshold {
				continue
			}
			x := (float64(col) + float64(g.Data[boxIdx])) / float64(g.Side) * float64(resizedW)
			y := (float64(row) + float64(g.Data[boxIdx+sideSq])) / float64(g.Side) * float64(resizedH)
			w := math.Exp(float64(g.Data[boxIdx+2*sideSq])) * anchors[offset+2*n]
			h := math.Exp(float64(g.Data[boxIdx+3*sideSq])) * anchors[offset+2*n+1]

			for j := 0; j < g.Classes; j++ {
				classIdx := g.entryIndex(n, i, g.Coords+1+j)
				if classIdx >= len(g.Data) {
					continue
				}
				prob := scale * float64(g.Data[classIdx])
				if prob < ClassThreshold {
					continue
				}
				xmin := (x - w/2) * scaleX
				ymin := (y - h/2) * scaleY
				xmax := (x + w/2) * scaleX
				ymax := (y + h/2) * scaleY
				out = append(out, Box{
					ClassID: j,
					Score:   prob,
					Xmin:    int(xmin),
					Ymin:    int(ymin),
					Xmax:    int(xmax),
					Ymax:    int(ymax),
				})
			}
		}
	}
	return out
}

// IoU computes intersection-over-union between two boxes, clamping a
// negative overlap extent to zero.
func IoU(a, b Box) float64 {
	overlapW := math.Min(float64(a.Xmax), float64(b.Xmax)) - math.Max(float64(a.Xmin), float64(b.Xmin))
	overlapH := math.Min(float64(a.Ymax), float64(b.Ymax)) - math.Max(float64(a.Ymin), float64(b.Ymin))
	var overlapArea float64
	if overlapW > 0 && overlapH > 0 {
		overlapArea = overlapW * overlapH
	}
	areaA := float64(a.Ymax-a.Ymin) * float64(a.Xmax-a.Xmin)
	areaB := float64(b.Ymax-b.Ymin) * float64(b.Xmax-b.Xmin)
	union := areaA + areaB - overlapArea
	if union <= 0 {
		return 0
	}
	return overlapArea / union
}

// NMS performs greedy non-maximum suppression: boxes are sorted by
// descending score, and for each surviving box every lower-ranked box
// with IoU >= NMSIoUThreshold is dropped, regardless of class.
func NMS(boxes []Box) []Box {
	sorted := make([]Box, len(boxes))
	copy(sorted, boxes)
	// stable insertion sort: equal scores keep their input order, so the
	// result is deterministic.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Score > sorted[j-1].Score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	suppressed := make([]bool, len(sorted))
	var out []Box
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		out = append(out, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] {
				continue
			}
			if IoU(sorted[i], sorted[j]) >= NMSIoUThreshold {
				suppressed[j] = true
			}
		}
	}
	return out
}
