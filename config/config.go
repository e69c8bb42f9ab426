// Package config loads InitOptions, the set of tunables a host supplies
// when constructing a uacpi.Context, from a YAML file in place of the
// teacher's ad hoc -config flag.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// InitOptions holds the interpreter's tunable limits and defaults, the
// runtime analogue of the teacher's TimingConfig but for interpreter
// behavior rather than simulated cycle counts. uacpi.New applies only
// LogLevel and ReferenceChainDepthLimit; the other fields are loaded,
// saved and validated by this package, and no other package reads them.
type InitOptions struct {
	// LogLevel is the acpilog verbosity passed to acpilog.WithVerbosity.
	LogLevel int `yaml:"log_level"`

	// MethodCallDepthLimit is a cap on recursive AML method invocation
	// depth. Nothing enforces it: the interpreter does not read it.
	MethodCallDepthLimit uint `yaml:"method_call_depth_limit"`

	// ReferenceChainDepthLimit bounds how many ObjectReference indirections
	// a single dereference will follow before giving up.
	ReferenceChainDepthLimit uint `yaml:"reference_chain_depth_limit"`

	// LoopIterationLimit is a cap on a single While loop's iteration count,
	// zero meaning unlimited (the teacher's MaxInstructions=0 convention).
	// The interpreter does not read it; While loops are bounded by
	// wall-clock time only.
	LoopIterationLimit uint64 `yaml:"loop_iteration_limit"`

	// TableLoadTimeoutMS is a time limit, in milliseconds, for a single
	// table's top-level AML under Load/LoadTable, zero meaning no timeout.
	// Nothing enforces it: the interpreter does not read it.
	TableLoadTimeoutMS uint64 `yaml:"table_load_timeout_ms"`

	// MaxConcurrentGPEs is a cap on in-flight GPE dispatch. Its default, 8,
	// equals event.defaultMaxConcurrentGPEs, which event.NewManager uses
	// regardless of this field; Validate rejects zero.
	MaxConcurrentGPEs uint `yaml:"max_concurrent_gpes"`

	// StrictMode selects rejecting malformed AML constructs (bad checksums,
	// truncated packages, reserved bits set) over best-effort recovery. The
	// interpreter and loader do not read it, so it changes no behavior.
	StrictMode bool `yaml:"strict_mode"`
}

// Default returns the InitOptions a Context uses when none is supplied.
func Default() *InitOptions {
	return &InitOptions{
		LogLevel:                 0,
		MethodCallDepthLimit:     255,
		ReferenceChainDepthLimit: 255,
		LoopIterationLimit:       0,
		TableLoadTimeoutMS:       0,
		MaxConcurrentGPEs:        8,
		StrictMode:               false,
	}
}

// Load reads InitOptions from a YAML file at path, starting from Default
// and overriding only the fields the file sets.
func Load(path string) (*InitOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read init options: %w", err)
	}
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse init options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Save writes opts to path as YAML.
func (o *InitOptions) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("serialize init options: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write init options: %w", err)
	}
	return nil
}

// Validate checks that limits are internally consistent.
func (o *InitOptions) Validate() error {
	if o.MethodCallDepthLimit == 0 {
		return fmt.Errorf("method_call_depth_limit must be > 0")
	}
	if o.ReferenceChainDepthLimit == 0 {
		return fmt.Errorf("reference_chain_depth_limit must be > 0")
	}
	if o.MaxConcurrentGPEs == 0 {
		return fmt.Errorf("max_concurrent_gpes must be > 0")
	}
	return nil
}

// Clone returns a copy of o.
func (o *InitOptions) Clone() *InitOptions {
	c := *o
	return &c
}
