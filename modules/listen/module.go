// Package listen provides the component that reads a context key. A listen
// vertex is interested in its key, so it is re-run whenever a notify vertex
// writes to it.
package listen

import (
	"context"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the component type name.
const Name = "listen"

// Module implements the registry.Module interface for this package.
type Module struct{}

// New returns the listen component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        Name,
			DisplayName: "Listen",
			Description: "Reads the value stored under a context key.",
			Beta:        true,
			Inputs: []component.InputDefinition{
				{Name: "context_key", Type: cty.String, Required: true, ContextKey: true, Info: "The context key to read."},
			},
			Outputs: []component.OutputDefinition{
				{Name: "value", Type: cty.DynamicPseudoType, Volatile: true},
				{Name: "present", Type: cty.Bool, Volatile: true},
			},
		},
		Outputs: map[string]component.BuildFunc{
			"value":   buildValue,
			"present": buildPresent,
		},
	}
}

func buildValue(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	v, ok := bc.Read(in.String("context_key"))
	if !ok {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return v, nil
}

func buildPresent(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	_, ok := bc.Read(in.String("context_key"))
	return cty.BoolVal(ok), nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
