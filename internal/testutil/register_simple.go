package testutil

import (
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/registry"
)

// SimpleModule is a test helper that registers a fixed set of components.
type SimpleModule struct {
	Components []component.Component
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	for _, c := range m.Components {
		r.Register(c)
	}
}

// NewRegistry returns a registry holding the given components.
func NewRegistry(components ...component.Component) *registry.Registry {
	r := registry.New()
	r.RegisterModules(&SimpleModule{Components: components})
	return r
}
