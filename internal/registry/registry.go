package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/flowgrid/internal/component"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered component types for a single application
// instance.
type Registry struct {
	components map[string]component.Component
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{components: make(map[string]component.Component)}
}

// Register adds a component type. Registering the same name twice is a
// programmer error and panics.
func (r *Registry) Register(c component.Component) {
	name := c.Descriptor().Name
	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("component with name '%s' already registered", name))
	}
	slog.Debug("Registering component.", "name", name)
	r.components[name] = c
}

// RegisterModules calls Register on every module.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (component.Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for n := range r.components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors of every registered component, sorted
// by name.
func (r *Registry) Descriptors() []*component.Descriptor {
	names := r.Names()
	out := make([]*component.Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, r.components[n].Descriptor())
	}
	return out
}
