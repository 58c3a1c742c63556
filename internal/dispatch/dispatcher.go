package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/metrics"
	"github.com/canhld94/HeteroServing/internal/model"
)

// Dispatcher owns one Pool per configured device and routes an incoming
// request to the right one. Pool membership is fixed at construction;
// only the queues and bells inside are shared-mutable.
type Dispatcher struct {
	pools map[engine.Device]*Pool
	order []engine.Device
	// defaultDevice is used when a request names no device, e.g. the bare
	// POST /inference path.
	defaultDevice engine.Device
}

// New builds a Dispatcher with one Pool per (device -> engines) entry,
// without starting any workers; call Start for that. When exactly one
// device is configured it becomes the default used by requests that name
// no device (the bare POST /inference path); with more than one device
// configured there is no unambiguous default, and Dispatch rejects an
// unnamed device rather than guessing which engine the caller meant.
func New(enginesByDevice map[engine.Device][]engine.InferenceEngine, order []engine.Device, m *metrics.Metrics, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{pools: map[engine.Device]*Pool{}, order: order}
	for _, dev := range order {
		d.pools[dev] = NewPool(dev, enginesByDevice[dev], m, log)
	}
	if len(order) == 1 {
		d.defaultDevice = order[0]
	}
	return d
}

// Start launches every worker on its own goroutine except one, which is
// returned for the caller to run on its own goroutine: the singleton
// accelerator's worker when that device is configured, otherwise the
// first worker of the first configured device, or nil when no engines
// exist at all. When ctx is cancelled every queue is closed, which lets
// all workers (the returned one included) drain and exit.
func (d *Dispatcher) Start(ctx context.Context) *Worker {
	mainDev := -1
	for i, dev := range d.order {
		if dev.Singleton() {
			mainDev = i
			break
		}
	}
	if mainDev < 0 && len(d.order) > 0 {
		mainDev = 0
	}

	var main *Worker
	for i, dev := range d.order {
		for j, w := range d.pools[dev].Workers() {
			if i == mainDev && j == 0 {
				main = w
				continue
			}
			go w.Run(ctx)
		}
	}
	go func() {
		<-ctx.Done()
		for _, pool := range d.pools {
			pool.Close()
		}
	}()
	return main
}

// normalize resolves the short device segments the HTTP path uses
// (/inference/cpu, /inference/fpga, /inference/gpu) as well as full
// config-style names in any case ("Intel CPU").
func normalize(device string) engine.Device {
	d := strings.ToLower(strings.TrimSpace(device))
	switch d {
	case "cpu":
		return engine.DeviceCPU
	case "fpga":
		return engine.DeviceFPGA
	case "gpu":
		return engine.DeviceGPU
	}
	return engine.Device(d)
}

// Dispatch routes one detection request to the named device's Pool and
// blocks until a result is available. An empty device string selects the
// Dispatcher's default device (the bare POST /inference path).
func (d *Dispatcher) Dispatch(device string, data []byte) (model.Prediction, error) {
	dev := d.defaultDevice
	if device != "" {
		dev = normalize(device)
	}
	pool, ok := d.pools[dev]
	if !ok {
		return nil, apperr.NewNotImplementedError("no inference engine configured for device %q", device)
	}
	return pool.Submit(data)
}

// Devices returns the configured device names in configuration order.
func (d *Dispatcher) Devices() []engine.Device {
	out := make([]engine.Device, 0, len(d.order))
	return append(out, d.order...)
}

// EngineInfo describes one configured engine for /metadata responses.
type EngineInfo struct {
	Device engine.Device
	Model  engine.ModelKind
	Labels int
}

// Metadata collects one EngineInfo per Worker across every Pool, in
// device configuration order.
func (d *Dispatcher) Metadata() []EngineInfo {
	var out []EngineInfo
	for _, dev := range d.order {
		for _, w := range d.pools[dev].Workers() {
			out = append(out, EngineInfo{Device: dev, Model: w.Engine.Model(), Labels: len(w.Engine.Labels())})
		}
	}
	return out
}
