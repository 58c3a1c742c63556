// Package config loads and validates the server's JSON configuration
// file: one exported root struct loaded from disk, specialized to this
// server's own schema and to JSON rather than YAML, since the wire format
// here is normative (round-tripped by clients and tooling) rather than an
// internal operations knob.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/canhld94/HeteroServing/internal/apperr"
)

// Protocol selects which front end Server starts.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolGRPC Protocol = "grpc"
)

// ModelSpec names the graph/label/model-family triple for one engine.
type ModelSpec struct {
	Name  string `json:"name"`
	Graph string `json:"graph"`
	Label string `json:"label"`
}

// IsEmpty reports whether this ModelSpec was left unset in the config
// file. An EngineSpec with an empty model object is ignored.
func (m ModelSpec) IsEmpty() bool {
	return m.Name == "" && m.Graph == "" && m.Label == ""
}

// EngineSpec configures one (device, replicas, model) triple.
type EngineSpec struct {
	Device    string    `json:"device"`
	Replicas  int       `json:"replicas"`
	Bitstream string    `json:"bitstream"`
	Model     ModelSpec `json:"model"`
}

// Config is the root configuration object: protocol, listen address, and
// the ordered list of engines to construct at startup.
type Config struct {
	Protocol Protocol     `json:"protocol"`
	IP       string       `json:"ip"`
	Port     string       `json:"port"`
	Engines  []EngineSpec `json:"inference engines"`
	// MetricsPort, when set, exposes the Prometheus registry on a
	// second listener at GET /metrics, kept off the main front end so
	// the serving surface stays exactly the documented resource set.
	MetricsPort string `json:"metrics port,omitempty"`
}

// Load reads and parses the configuration file at path, then validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewConfigError("read config file %q: %v", path, err)
	}
	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperr.NewConfigError("parse config file %q: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks schema-level invariants that do not require constructing
// engines: protocol, address, and the singleton-accelerator replica
// constraint.
func (c *Config) Validate() error {
	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
	default:
		return apperr.NewConfigError("unknown protocol %q, expected %q or %q", c.Protocol, ProtocolHTTP, ProtocolGRPC)
	}
	if c.Port == "" {
		return apperr.NewConfigError("port must not be empty")
	}

	singletonSeen := false
	for _, spec := range c.Engines {
		if spec.Model.IsEmpty() {
			continue
		}
		if spec.Replicas < 1 {
			return apperr.NewConfigError("device %q: replicas must be >= 1, got %d", spec.Device, spec.Replicas)
		}
		if isSingletonDeviceName(spec.Device) {
			if singletonSeen {
				return apperr.NewConfigError("only one FPGA inference engine may be configured")
			}
			singletonSeen = true
			if spec.Replicas != 1 {
				return apperr.NewConfigError("FPGA inference engine: expected 1, got %d", spec.Replicas)
			}
			if spec.Bitstream == "" {
				return apperr.NewConfigError("FPGA inference engine requires a bitstream")
			}
		}
	}
	return nil
}

// isSingletonDeviceName reports whether the (case-insensitive, as-typed in
// the config file) device name identifies the accelerator class that
// forbids multiple host-side contexts. Kept independent from
// engine.Device.Singleton so config validation does not have to import
// the engine package.
func isSingletonDeviceName(device string) bool {
	return strings.EqualFold(strings.TrimSpace(device), "intel fpga")
}

// ActiveEngines returns the EngineSpecs with a non-empty model, in
// configuration order, with any singleton-accelerator spec moved to the
// front so its WorkerPool worker can be started before any other engine's.
func (c *Config) ActiveEngines() []EngineSpec {
	var singleton, rest []EngineSpec
	for _, spec := range c.Engines {
		if spec.Model.IsEmpty() {
			continue
		}
		if isSingletonDeviceName(spec.Device) {
			singleton = append(singleton, spec)
		} else {
			rest = append(rest, spec)
		}
	}
	return append(singleton, rest...)
}

// String renders a compact summary, useful for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("protocol=%s addr=%s:%s engines=%d", c.Protocol, c.IP, c.Port, len(c.ActiveEngines()))
}
