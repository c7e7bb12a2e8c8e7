package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// New returns the "env_vars" component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        "env_vars",
			DisplayName: "Environment Variables",
			Description: "Exposes the process environment, optionally filtered by a name prefix.",
			Inputs: []component.InputDefinition{
				{Name: "prefix", Type: cty.String, Default: component.Default(cty.StringVal(""))},
				{Name: "strip_prefix", Type: cty.Bool, Default: component.Default(cty.False), Advanced: true},
			},
			Outputs: []component.OutputDefinition{
				// The environment can change between runs.
				{Name: "all", Type: cty.Map(cty.String), Volatile: true},
			},
		},
		Outputs: map[string]component.BuildFunc{"all": build},
	}
}

func build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	prefix := in.String("prefix")
	strip := in.Bool("strip_prefix")

	envMap := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		name, value, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strip {
			name = strings.TrimPrefix(name, prefix)
		}
		if name == "" {
			continue
		}
		envMap[name] = cty.StringVal(value)
	}

	if len(envMap) == 0 {
		return cty.MapValEmpty(cty.String), nil
	}
	return cty.MapVal(envMap), nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
