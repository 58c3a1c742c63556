// Package model holds the data types shared by every inference back end:
// the detection result shape produced by InferenceEngine.RunDetection and
// consumed by both protocol front ends.
package model

// BoundingBox is a single detection in image-space pixel coordinates.
type BoundingBox struct {
	LabelID int     `json:"label_id"`
	Label   string  `json:"label"`
	Score   float64 `json:"confidences"`
	Xmin    int     `json:"-"`
	Ymin    int     `json:"-"`
	Xmax    int     `json:"-"`
	Ymax    int     `json:"-"`
}

// DetectionBox returns the box in the [xmin,ymin,xmax,ymax] order the HTTP
// and gRPC schemas both use on the wire.
func (b BoundingBox) DetectionBox() [4]int {
	return [4]int{b.Xmin, b.Ymin, b.Xmax, b.Ymax}
}

// Prediction is the ordered, back-end-defined-but-deterministic sequence of
// boxes returned for one image. A nil or empty Prediction is a valid
// "no detections" result, never an error signal on its own.
type Prediction []BoundingBox
