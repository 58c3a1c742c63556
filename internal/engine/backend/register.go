package backend

import "github.com/canhld94/HeteroServing/internal/engine"

// init wires all three device backends into the engine package's factory
// registry. Importing this package for its side effect (as
// internal/server does with a blank import) is what makes
// engine.Create("intel cpu", ...) etc. resolve.
func init() {
	engine.RegisterCreator(engine.DeviceCPU, func(kind engine.ModelKind, graphPath, labelPath, _ string) (engine.InferenceEngine, error) {
		return NewCPU(kind, graphPath, labelPath)
	})
	engine.RegisterCreator(engine.DeviceFPGA, func(kind engine.ModelKind, graphPath, labelPath, bitstream string) (engine.InferenceEngine, error) {
		return NewFPGA(kind, graphPath, labelPath, bitstream)
	})
	engine.RegisterCreator(engine.DeviceGPU, func(kind engine.ModelKind, graphPath, labelPath, _ string) (engine.InferenceEngine, error) {
		return NewGPU(kind, graphPath, labelPath)
	})
}
