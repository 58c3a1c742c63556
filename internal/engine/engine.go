// Package engine defines the InferenceEngine capability and the tagged
// model/device variants it is built from: one interface plus a
// ModelKind/Device pair, with model-specific parsing parameters
// (thresholds, anchors) living on the concrete parser types in the
// ssd/yolo/rcnn sub-packages.
package engine

import (
	"context"

	"github.com/canhld94/HeteroServing/internal/labels"
	"github.com/canhld94/HeteroServing/internal/model"
)

// Device identifies a hardware back end.
type Device string

const (
	DeviceCPU  Device = "intel cpu"
	DeviceFPGA Device = "intel fpga"
	DeviceGPU  Device = "nvidia gpu"
)

// Singleton reports whether this device class forbids more than one
// host-side context per process. Only the programmable-accelerator class
// does.
func (d Device) Singleton() bool { return d == DeviceFPGA }

// ModelKind identifies a detection-model family.
type ModelKind string

const (
	ModelSSD    ModelKind = "ssd"
	ModelYOLOv3 ModelKind = "yolov3"
	ModelRCNN   ModelKind = "rcnn"
)

// InferenceEngine is the uniform, polymorphic capability every back end
// implements: run a detector over raw image bytes and report its label
// set. A single InferenceEngine value is mutated only by the one
// WorkerPool worker that owns it, so implementations need no internal
// locking around RunDetection itself.
type InferenceEngine interface {
	// RunDetection decodes data as an image, runs the network, and
	// returns detections at or above the model family's score threshold.
	// It never panics: decode or inference failures are reported via the
	// returned error (apperr.DecodeError / apperr.InferenceError) and the
	// caller is expected to substitute an empty Prediction.
	RunDetection(ctx context.Context, data []byte) (model.Prediction, error)
	// Labels returns the engine's ordered label list.
	Labels() labels.List
	// Device and Model identify this instance for logging, metrics, and
	// the singleton-accelerator startup check.
	Device() Device
	Model() ModelKind
}
