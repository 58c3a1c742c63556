package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

type fakeEngine struct {
	device engine.Device
	kind   engine.ModelKind
	labels labels.List
	delay  time.Duration
	fail   bool
}

func (f *fakeEngine) RunDetection(ctx context.Context, data []byte) (model.Prediction, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, assertErr
	}
	return model.Prediction{{LabelID: 1, Label: "cat", Score: 0.9}}, nil
}
func (f *fakeEngine) Labels() labels.List     { return f.labels }
func (f *fakeEngine) Device() engine.Device   { return f.device }
func (f *fakeEngine) Model() engine.ModelKind { return f.kind }

type testErr string

func (e testErr) Error() string { return string(e) }

var assertErr = testErr("boom")

// startAll starts d's workers the way Server.Run does, with the main
// worker moved onto a background goroutine so the test can keep running.
func startAll(t *testing.T, ctx context.Context, d *Dispatcher) {
	t.Helper()
	if w := d.Start(ctx); w != nil {
		go w.Run(ctx)
	}
}

func newRunningDispatcher(t *testing.T, engines map[engine.Device][]engine.InferenceEngine, order []engine.Device) *Dispatcher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	d := New(engines, order, nil, nil)
	startAll(t, ctx, d)
	return d
}

func TestDispatchRoutesToNamedDevice(t *testing.T) {
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD, labels: labels.List{"bg", "cat"}}
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
	}, []engine.Device{engine.DeviceCPU})

	pred, err := d.Dispatch("intel cpu", []byte("data"))
	require.NoError(t, err)
	assert.Len(t, pred, 1)
}

func TestDispatchResolvesShortDeviceSegments(t *testing.T) {
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD}
	gpu := &fakeEngine{device: engine.DeviceGPU, kind: engine.ModelSSD}
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
		engine.DeviceGPU: {gpu},
	}, []engine.Device{engine.DeviceCPU, engine.DeviceGPU})

	_, err := d.Dispatch("cpu", []byte("data"))
	require.NoError(t, err)
	_, err = d.Dispatch("gpu", []byte("data"))
	require.NoError(t, err)
	_, err = d.Dispatch("fpga", []byte("data"))
	assert.Error(t, err)
}

func TestDispatchEmptyDeviceUsesDefault(t *testing.T) {
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD}
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
	}, []engine.Device{engine.DeviceCPU})

	pred, err := d.Dispatch("", []byte("data"))
	require.NoError(t, err)
	assert.Len(t, pred, 1)
}

func TestDispatchUnknownDeviceIsNotImplemented(t *testing.T) {
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{}, nil)

	_, err := d.Dispatch("nvidia gpu", []byte("data"))
	assert.Error(t, err)
}

func TestStartReturnsSingletonWorkerAsMain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fpga := &fakeEngine{device: engine.DeviceFPGA, kind: engine.ModelSSD}
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD}
	d := New(map[engine.Device][]engine.InferenceEngine{
		engine.DeviceFPGA: {fpga},
		engine.DeviceCPU:  {cpu},
	}, []engine.Device{engine.DeviceFPGA, engine.DeviceCPU}, nil, nil)

	main := d.Start(ctx)
	require.NotNil(t, main)
	assert.Equal(t, engine.DeviceFPGA, main.Engine.Device())
	go main.Run(ctx)

	// With its worker running on "the main goroutine", the accelerator
	// still serves requests.
	pred, err := d.Dispatch("intel fpga", []byte("data"))
	require.NoError(t, err)
	assert.Len(t, pred, 1)
}

func TestStartWithoutSingletonStillReturnsAWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD}
	d := New(map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
	}, []engine.Device{engine.DeviceCPU}, nil, nil)

	main := d.Start(ctx)
	require.NotNil(t, main)
	assert.Equal(t, engine.DeviceCPU, main.Engine.Device())
}

func TestDispatchConcurrentRequestsAllComplete(t *testing.T) {
	cpu1 := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD, delay: 5 * time.Millisecond}
	cpu2 := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD, delay: 5 * time.Millisecond}
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu1, cpu2},
	}, []engine.Device{engine.DeviceCPU})

	n := 20
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := d.Dispatch("intel cpu", []byte("data"))
			results <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-results)
	}
}

func TestDispatchEngineErrorIsReturnedNotPanicked(t *testing.T) {
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD, fail: true}
	d := newRunningDispatcher(t, map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
	}, []engine.Device{engine.DeviceCPU})

	_, err := d.Dispatch("intel cpu", []byte("data"))
	assert.EqualError(t, err, "boom")
}

func TestSubmitAfterShutdownFailsFast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cpu := &fakeEngine{device: engine.DeviceCPU, kind: engine.ModelSSD}
	d := New(map[engine.Device][]engine.InferenceEngine{
		engine.DeviceCPU: {cpu},
	}, []engine.Device{engine.DeviceCPU}, nil, nil)
	startAll(t, ctx, d)

	cancel()
	// Queues close asynchronously on ctx.Done; wait for it to take hold.
	require.Eventually(t, func() bool {
		_, err := d.Dispatch("intel cpu", []byte("data"))
		return err == ErrShuttingDown
	}, time.Second, 5*time.Millisecond)
}
