// Package notify provides the component that writes to the run's context
// store and wakes up the vertices reading the written key.
package notify

import (
	"context"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the component type name.
const Name = "notify"

// Module implements the registry.Module interface for this package.
type Module struct{}

// New returns the notify component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        Name,
			DisplayName: "Notify",
			Description: "Stores a value under a context key and activates every vertex listening to that key.",
			Beta:        true,
			Inputs: []component.InputDefinition{
				{Name: "context_key", Type: cty.String, Required: true, Info: "The context key to write."},
				{Name: "input_value", Type: cty.DynamicPseudoType, Info: "The value to store. Null is stored as an empty string."},
				{Name: "append", Type: cty.Bool, Default: component.Default(cty.False), Advanced: true,
					Info: "Append to the values already stored under the key instead of replacing them."},
			},
			Outputs: []component.OutputDefinition{
				{Name: "result", Type: cty.DynamicPseudoType, Volatile: true},
			},
		},
		ValidateFn: validate,
		Outputs:    map[string]component.BuildFunc{"result": build},
	}
}

type input struct {
	ContextKey string `input:"context_key" validate:"required"`
}

func validate(ctx context.Context, in component.Inputs) error {
	var v input
	return in.Decode(&v)
}

func build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	key := in.String("context_key")
	value := in.Get("input_value")
	if value.IsNull() {
		value = cty.StringVal("")
	}
	appendMode := in.Bool("append")

	ctxlog.FromContext(ctx).Debug("Notifying context key.", "vertex", bc.Vertex(), "key", key, "append", appendMode)
	bc.Write(key, value, appendMode)
	return value, nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
