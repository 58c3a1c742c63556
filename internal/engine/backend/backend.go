// Package backend implements the three concrete InferenceEngine variants:
// the CPU and programmable-accelerator SDK family (both use one
// request-object-per-call idiom over a host buffer) and the GPU runtime
// (explicit host/device buffers). Real tensor execution is out of scope;
// internal/engine/synth stands in for "run the network" so the rest of
// the pipeline (parsing, thresholds, NMS, labeling) runs against
// realistic, deterministic data.
package backend

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine/graph"
	"github.com/canhld94/HeteroServing/internal/engine/ssd"
	"github.com/canhld94/HeteroServing/internal/engine/yolo"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// decode reads just enough of the JPEG/PNG header to learn the original
// image's pixel dimensions: HeteroServing decodes only to recover
// width/height for coordinate scaling, never to recompute the network's
// job.
func decode(data []byte) (w, h int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, apperr.NewDecodeError("decode image", err)
	}
	return cfg.Width, cfg.Height, nil
}

// sanityCheckDetection validates an SSD/FasterRCNN-family graph: one
// input tensor (plus a second image-info input for FasterRCNN), one
// detection output whose last dimension is 7.
func sanityCheckDetection(g *graph.Descriptor, wantInputs int) error {
	if len(g.Inputs) != wantInputs {
		return apperr.NewConfigError("expected %d input tensor(s), got %d", wantInputs, len(g.Inputs))
	}
	if len(g.Outputs) != 1 {
		return apperr.NewConfigError("expected 1 output tensor, got %d", len(g.Outputs))
	}
	shape := g.Outputs[0].Shape
	if len(shape) == 0 || shape[len(shape)-1] != 7 {
		return apperr.NewConfigError("detection output last dimension must be 7")
	}
	return nil
}

// sanityCheckYOLO validates a YOLOv3 graph: one input, and every output
// layer must be tagged RegionYolo.
func sanityCheckYOLO(g *graph.Descriptor) error {
	if len(g.Inputs) != 1 {
		return apperr.NewConfigError("expected 1 input tensor, got %d", len(g.Inputs))
	}
	if len(g.Outputs) == 0 {
		return apperr.NewConfigError("expected at least 1 RegionYolo output layer")
	}
	for _, out := range g.Outputs {
		if out.LayerType != "RegionYolo" {
			return apperr.NewConfigError("output %q: expected RegionYolo layer, got %q", out.Name, out.LayerType)
		}
	}
	return nil
}

// gridSideFromShape extracts the grid side (H, assumed == W) from a
// RegionYolo output tensor's shape, e.g. [1, 255, 13, 13].
func gridSideFromShape(shape []int) int {
	if len(shape) < 1 {
		return 0
	}
	return shape[len(shape)-1]
}

func boxesToPrediction(boxes []ssd.Box, lbl labels.List) model.Prediction {
	pred := make(model.Prediction, 0, len(boxes))
	for _, b := range boxes {
		pred = append(pred, model.BoundingBox{
			LabelID: b.LabelID,
			Label:   lbl.Lookup(b.LabelID),
			Score:   b.Score,
			Xmin:    b.Xmin,
			Ymin:    b.Ymin,
			Xmax:    b.Xmax,
			Ymax:    b.Ymax,
		})
	}
	return pred
}

func yoloBoxesToPrediction(boxes []yolo.Box, lbl labels.List) model.Prediction {
	pred := make(model.Prediction, 0, len(boxes))
	for _, b := range boxes {
		pred = append(pred, model.BoundingBox{
			LabelID: b.ClassID,
			Label:   lbl.Lookup(b.ClassID),
			Score:   b.Score,
			Xmin:    b.Xmin,
			Ymin:    b.Ymin,
			Xmax:    b.Xmax,
			Ymax:    b.Ymax,
		})
	}
	return pred
}
