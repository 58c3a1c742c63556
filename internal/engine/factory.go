package engine

import (
	"strings"

	"github.com/canhld94/HeteroServing/internal/apperr"
)

// Creator builds one InferenceEngine instance for a given model family,
// graph path, label path, and (device-specific) bitstream path.
// Device-specific constructors that take no bitstream ignore the last
// argument.
type Creator func(kind ModelKind, graphPath, labelPath, bitstream string) (InferenceEngine, error)

var creators = map[Device]Creator{}

// RegisterCreator installs the Creator used for device. Back ends call
// this from an init() in their own package so the engine package itself
// never imports the concrete CPU/FPGA/GPU implementations (they import
// engine, not the other way around).
func RegisterCreator(device Device, create Creator) {
	creators[device] = create
}

// normalizeDevice trims and lowercases a config-file device string so
// "Intel CPU", "intel cpu", and " intel cpu " all resolve the same way.
func normalizeDevice(device string) Device {
	return Device(strings.ToLower(strings.TrimSpace(device)))
}

// Create builds the InferenceEngine for device using whichever Creator
// was registered for it. It returns NotImplementedError for any device
// name with no registered Creator.
func Create(device string, kind ModelKind, graphPath, labelPath, bitstream string) (InferenceEngine, error) {
	d := normalizeDevice(device)
	create, ok := creators[d]
	if !ok {
		return nil, apperr.NewNotImplementedError("no inference engine registered for device %q", device)
	}
	return create(kind, graphPath, labelPath, bitstream)
}
