package backend

import (
	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/engine/graph"
	"github.com/canhld94/HeteroServing/internal/engine/rcnn"
	"github.com/canhld94/HeteroServing/internal/engine/ssd"
	"github.com/canhld94/HeteroServing/internal/engine/synth"
	"github.com/canhld94/HeteroServing/internal/engine/yolo"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// params holds everything a detector needs once constructed: the model
// family, its validated graph descriptor, and its label set. It is shared
// verbatim across the CPU, FPGA, and GPU variants, which differ only in
// how the host buffer reaches (simulated) device-resident tensors.
type params struct {
	kind  engine.ModelKind
	graph *graph.Descriptor
	label labels.List
	// graphBytes salts the synthetic tensor generator so two different
	// graphs given the same image produce different, but each
	// individually deterministic, detections.
	graphBytes []byte
}

func newParams(kind engine.ModelKind, graphPath, labelPath string) (params, error) {
	g, err := graph.Load(graphPath)
	if err != nil {
		return params{}, apperr.NewConfigError("load graph: %v", err)
	}
	switch kind {
	case engine.ModelSSD:
		if err := sanityCheckDetection(g, 1); err != nil {
			return params{}, err
		}
	case engine.ModelRCNN:
		if err := sanityCheckDetection(g, 2); err != nil {
			return params{}, err
		}
	case engine.ModelYOLOv3:
		if err := sanityCheckYOLO(g); err != nil {
			return params{}, err
		}
	default:
		return params{}, apperr.NewNotImplementedError("unknown model family %q", kind)
	}

	lbl, err := labels.Load(labelPath)
	if err != nil {
		return params{}, apperr.NewConfigError("load labels: %v", err)
	}
	return params{kind: kind, graph: g, label: lbl, graphBytes: []byte(graphPath)}, nil
}

// runHostTensor is the shared "execute the network and parse its output"
// step for SSD/FasterRCNN-family graphs, operating on a host-resident
// tensor buffer that has already been produced from the decoded image
// (the GPU variant stages this through an extra device copy first; CPU
// and FPGA hand the host buffer straight to their SDK's request object).
func (p params) runHostTensor(data []byte, origW, origH int) (model.Prediction, error) {
	// Label ids index the 0-based label list directly, so the largest
	// valid id is len-1.
	maxLabelID := len(p.label) - 1
	switch p.kind {
	case engine.ModelSSD:
		raw := synth.DetectionTensor(data, p.graphBytes, 8, maxLabelID)
		boxes := ssd.Parse(raw, origW, origH)
		return boxesToPrediction(boxes, p.label), nil
	case engine.ModelRCNN:
		raw := synth.DetectionTensor(data, p.graphBytes, 8, maxLabelID)
		boxes := rcnn.Parse(raw, origW, origH)
		return boxesToPrediction(boxes, p.label), nil
	case engine.ModelYOLOv3:
		return p.runYOLO(data, origW, origH), nil
	default:
		return nil, apperr.NewInferenceError("run detection", apperr.NewNotImplementedError("model %q", p.kind))
	}
}

// runYOLO runs one pass per RegionYolo output layer declared by the
// graph (canonically the 13/26/52 grid scales) and merges their
// candidates through one NMS pass.
func (p params) runYOLO(data []byte, origW, origH int) model.Prediction {
	resized := 416
	if len(p.graph.Inputs) > 0 {
		if s := p.graph.Inputs[0].Shape; len(s) > 0 && s[len(s)-1] > 0 {
			resized = s[len(s)-1]
		}
	}
	numClasses := len(p.label)
	if numClasses == 0 {
		numClasses = 1
	}
	var all []yolo.Box
	for _, out := range p.graph.Outputs {
		side := gridSideFromShape(out.Shape)
		grid := synth.GridTensor(data, p.graphBytes, side, 3, 4, numClasses)
		parsed := yolo.Parse(yolo.GridOutput{Side: side, Num: 3, Coords: 4, Classes: numClasses, Data: grid}, resized, resized, origW, origH)
		all = append(all, parsed...)
	}
	suppressed := yolo.NMS(all)
	return yoloBoxesToPrediction(suppressed, p.label)
}

func (p params) labels() labels.List     { return p.label }
func (p params) model() engine.ModelKind { return p.kind }
