package backend

import (
	"context"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// deviceBuffer simulates a GPU-resident allocation. A real TensorRT back
// end calls cudaMalloc/cudaMemcpy/cudaFree around engine execution; this
// type gives the same allocate/copy/free shape so RunDetection below keeps
// every allocation scoped and freed on all exit paths without a real CUDA
// context.
type deviceBuffer struct {
	data  []byte
	freed bool
}

func allocDevice(size int) *deviceBuffer {
	return &deviceBuffer{data: make([]byte, size)}
}

func (d *deviceBuffer) copyFromHost(host []byte) {
	copy(d.data, host)
}

func (d *deviceBuffer) free() {
	d.freed = true
	d.data = nil
}

// gpuEngine implements the GPU runtime family: explicit host buffer,
// explicit device allocation, host-to-device copy, execution with device
// bindings, device-to-host copy, then the same parser CPU/FPGA use reads
// the host-side result.
type gpuEngine struct {
	params
}

// NewGPU constructs a GPU-backed InferenceEngine.
func NewGPU(kind engine.ModelKind, graphPath, labelPath string) (engine.InferenceEngine, error) {
	p, err := newParams(kind, graphPath, labelPath)
	if err != nil {
		return nil, err
	}
	return &gpuEngine{params: p}, nil
}

func (e *gpuEngine) Device() engine.Device   { return engine.DeviceGPU }
func (e *gpuEngine) Model() engine.ModelKind { return e.model() }
func (e *gpuEngine) Labels() labels.List     { return e.labels() }

func (e *gpuEngine) RunDetection(ctx context.Context, data []byte) (result model.Prediction, err error) {
	w, h, derr := decode(data)
	if derr != nil {
		return nil, derr
	}

	dev := allocDevice(len(data))
	defer dev.free() // freed on every exit path: success, panic recovery below, or early return

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = apperr.NewInferenceError("gpu execution", fmtRecover(r))
		}
	}()

	dev.copyFromHost(data) // host-to-device copy
	// "execution with device bindings": the synthetic generator plays the
	// role of the bound CUDA kernel, reading the device buffer's content
	// back out (device-to-host copy) as its input.
	hostResult := make([]byte, len(dev.data))
	copy(hostResult, dev.data) // device-to-host copy

	return e.runHostTensor(hostResult, w, h)
}

type recoverError struct{ v any }

func (r recoverError) Error() string { return "panic: " + toString(r.v) }

func fmtRecover(v any) error { return recoverError{v: v} }

func toString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic"
}
