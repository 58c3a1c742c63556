// Package graph loads the small JSON descriptor HeteroServing uses in
// place of a real model-graph/weight binary: the model-graph and weight
// formats themselves stay external and are consumed opaquely, and this
// package is that opaque boundary. What crosses it is just enough shape
// metadata (input/output tensor counts, shapes, and per-output layer
// type) for the per-model construction-time sanity check.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// TensorSpec describes one input or output tensor of a loaded graph.
type TensorSpec struct {
	Name string `json:"name"`
	// Shape is the tensor's dimensions, e.g. [1,1,200,7] for an SSD/RCNN
	// detection output.
	Shape []int `json:"shape"`
	// LayerType identifies special output layers; YOLOv3 scale outputs
	// must report "RegionYolo".
	LayerType string `json:"layer_type,omitempty"`
}

// Descriptor is the opaque graph handle: just the tensor shape metadata
// needed to validate a model family is wired to a compatible graph.
type Descriptor struct {
	Inputs  []TensorSpec `json:"inputs"`
	Outputs []TensorSpec `json:"outputs"`
}

// Load reads a graph descriptor from path.
func Load(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %q: %w", path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse graph %q: %w", path, err)
	}
	return &d, nil
}
