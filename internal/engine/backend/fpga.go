package backend

import (
	"context"
	"os"

	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// BitstreamEnv is the environment variable the Server sets, exactly once
// at startup before any accelerator context is created.
const BitstreamEnv = "DLA_AOCX"

// fpgaEngine implements the programmable-accelerator SDK family. It
// shares the CPU family's request-object-per-call idiom, but the runtime
// enforces exactly one host-side context process-wide; Server and
// Dispatcher are responsible for constructing at most one fpgaEngine and
// running its WorkerPool worker on the main goroutine.
type fpgaEngine struct {
	params
}

// NewFPGA constructs the single FPGA-backed InferenceEngine. bitstream is
// the .aocx path from EngineSpec.Bitstream; it is written to BitstreamEnv
// before the graph is loaded, because the accelerator plugin reads the
// bitstream selection from the environment during initialization.
func NewFPGA(kind engine.ModelKind, graphPath, labelPath, bitstream string) (engine.InferenceEngine, error) {
	if err := os.Setenv(BitstreamEnv, bitstream); err != nil {
		return nil, err
	}
	p, err := newParams(kind, graphPath, labelPath)
	if err != nil {
		return nil, err
	}
	return &fpgaEngine{params: p}, nil
}

func (e *fpgaEngine) Device() engine.Device   { return engine.DeviceFPGA }
func (e *fpgaEngine) Model() engine.ModelKind { return e.model() }
func (e *fpgaEngine) Labels() labels.List     { return e.labels() }

func (e *fpgaEngine) RunDetection(ctx context.Context, data []byte) (model.Prediction, error) {
	w, h, err := decode(data)
	if err != nil {
		return nil, err
	}
	return e.runHostTensor(data, w, h)
}
