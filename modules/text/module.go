// Package text provides small text components used to assemble flows.
package text

import (
	"context"
	"strings"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// NewText returns the "text" component, which passes a string through.
func NewText() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        "text",
			DisplayName: "Text",
			Description: "Outputs the given text.",
			Inputs: []component.InputDefinition{
				{Name: "value", Type: cty.String, Default: component.Default(cty.StringVal(""))},
			},
			Outputs: []component.OutputDefinition{{Name: "text", Type: cty.String}},
		},
		Outputs: map[string]component.BuildFunc{
			"text": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				return cty.StringVal(in.String("value")), nil
			},
		},
	}
}

type combineInput struct {
	Texts     []string `input:"texts" validate:"min=1"`
	Delimiter string   `input:"delimiter"`
}

// NewCombine returns the "combine" component, which joins a list of texts.
func NewCombine() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        "combine",
			DisplayName: "Combine Text",
			Description: "Joins texts with a delimiter.",
			Inputs: []component.InputDefinition{
				{Name: "texts", Type: cty.List(cty.String), Required: true},
				{Name: "delimiter", Type: cty.String, Default: component.Default(cty.StringVal(" "))},
			},
			Outputs: []component.OutputDefinition{{Name: "text", Type: cty.String}},
		},
		ValidateFn: func(ctx context.Context, in component.Inputs) error {
			var v combineInput
			return in.Decode(&v)
		},
		Outputs: map[string]component.BuildFunc{
			"text": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				var v combineInput
				if err := in.Decode(&v); err != nil {
					return cty.NilVal, err
				}
				return cty.StringVal(strings.Join(v.Texts, v.Delimiter)), nil
			},
		},
	}
}

// Register registers the module's components with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(NewText())
	r.Register(NewCombine())
}
