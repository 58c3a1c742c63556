package backend

import (
	"context"

	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// cpuEngine implements the general-purpose CPU SDK family: decode to a
// host buffer, then hand it to a library-owned request object per call.
// Multiple request objects (and so multiple concurrent WorkerPool
// workers) may exist per network on CPU.
type cpuEngine struct {
	params
}

// NewCPU constructs a CPU-backed InferenceEngine for the given model
// family, graph, and label file, running the sanity check for that family
// at construction time.
func NewCPU(kind engine.ModelKind, graphPath, labelPath string) (engine.InferenceEngine, error) {
	p, err := newParams(kind, graphPath, labelPath)
	if err != nil {
		return nil, err
	}
	return &cpuEngine{params: p}, nil
}

func (e *cpuEngine) Device() engine.Device   { return engine.DeviceCPU }
func (e *cpuEngine) Model() engine.ModelKind { return e.model() }
func (e *cpuEngine) Labels() labels.List     { return e.labels() }

func (e *cpuEngine) RunDetection(ctx context.Context, data []byte) (model.Prediction, error) {
	w, h, err := decode(data)
	if err != nil {
		return nil, err
	}
	return e.runHostTensor(data, w, h)
}
