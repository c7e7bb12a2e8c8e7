package component

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Component is implemented by every component type known to the engine.
type Component interface {
	Descriptor() *Descriptor

	// Validate checks resolved inputs before any output is built. A non-nil
	// error prevents every build of the vertex for this activation.
	Validate(ctx context.Context, in Inputs) error

	// Build computes the value of one declared output. It is called once per
	// output that cannot be served from memoized results. Implementations
	// that wait on external systems must honor ctx cancellation.
	Build(ctx context.Context, bc *BuildContext, output string, in Inputs) (cty.Value, error)
}

// BuildFunc computes one output.
type BuildFunc func(ctx context.Context, bc *BuildContext, in Inputs) (cty.Value, error)

// ValidateFunc validates resolved inputs.
type ValidateFunc func(ctx context.Context, in Inputs) error

// Func adapts plain functions to the Component interface. Outputs maps each
// declared output name to the function building it.
type Func struct {
	Desc       Descriptor
	ValidateFn ValidateFunc
	Outputs    map[string]BuildFunc
}

var _ Component = (*Func)(nil)

// Descriptor implements Component.
func (f *Func) Descriptor() *Descriptor {
	return &f.Desc
}

// Validate implements Component.
func (f *Func) Validate(ctx context.Context, in Inputs) error {
	if f.ValidateFn == nil {
		return nil
	}
	return f.ValidateFn(ctx, in)
}

// Build implements Component.
func (f *Func) Build(ctx context.Context, bc *BuildContext, output string, in Inputs) (cty.Value, error) {
	fn, ok := f.Outputs[output]
	if !ok {
		return cty.NilVal, fmt.Errorf("component '%s' has no builder for output '%s'", f.Desc.Name, output)
	}
	return fn(ctx, bc, in)
}
