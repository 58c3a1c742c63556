// Package ssd implements the single-shot-detector output parser: one
// detection output tensor of 7-float rows, walked until the sentinel
// terminator.
package ssd

// ScoreThreshold is the minimum score an SSD detection must meet to be
// returned.
const ScoreThreshold = 0.45

// Detection is one raw 7-tuple entry from the SSD output tensor:
// (image_id, label_id, score, xmin, ymin, xmax, ymax), with the last four
// fields normalized to [0,1].
type Detection struct {
	ImageID float32
	LabelID int
	Score   float32
	XminN   float32
	YminN   float32
	XmaxN   float32
	YmaxN   float32
}

// Box is a parsed, image-space detection ready to become a model.BoundingBox.
type Box struct {
	LabelID            int
	Score              float64
	Xmin, Ymin, Xmax, Ymax int
}

// Parse walks the flat SSD output tensor (shape [1,1,N,7] flattened to
// N*7 float32s) until it hits the sentinel terminator (image_id < 0) or a
// non-positive label_id, scaling normalized coordinates by the original
// image's width/height and dropping anything below ScoreThreshold.
func Parse(raw []float32, origW, origH int) []Box {
	var out []Box
	for i := 0; i+7 <= len(raw); i += 7 {
		imageID := raw[i]
		labelID := int(raw[i+1])
		if imageID < 0 || labelID <= 0 {
			break
		}
		score := raw[i+2]
		if score < ScoreThreshold {
			continue
		}
		out = append(out, Box{
			LabelID: labelID,
			Score:   float64(score),
			Xmin:    int(raw[i+3] * float32(origW)),
			Ymin:    int(raw[i+4] * float32(origH)),
			Xmax:    int(raw[i+5] * float32(origW)),
			Ymax:    int(raw[i+6] * float32(origH)),
		})
	}
	return out
}
