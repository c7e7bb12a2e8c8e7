package component

import "github.com/zclconf/go-cty/cty"

// InputDefinition declares one named input of a component.
type InputDefinition struct {
	Name string
	Type cty.Type

	// Required inputs must be bound by an edge, a configured value, a
	// context binding or Default.
	Required bool
	Default  *cty.Value

	// ContextKey marks an input whose configured value names a context key
	// the vertex is interested in.
	ContextKey bool

	// Display hints, opaque to the engine.
	Advanced bool
	Secret   bool
	Info     string
}

// Optional reports whether a vertex can run without this input being bound
// by its source. An edge into an optional input does not block the vertex
// when the source fails.
func (d *InputDefinition) Optional() bool {
	return !d.Required || d.Default != nil
}

// OutputDefinition declares one named output of a component.
type OutputDefinition struct {
	Name string
	Type cty.Type

	// Volatile outputs are never memoized and recompute on every activation.
	Volatile bool
}

// Descriptor is the static shape of a component type.
type Descriptor struct {
	Name        string
	DisplayName string
	Description string
	Beta        bool
	Inputs      []InputDefinition
	Outputs     []OutputDefinition
}

// Input returns the definition of the named input.
func (d *Descriptor) Input(name string) (*InputDefinition, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

// Output returns the definition of the named output.
func (d *Descriptor) Output(name string) (*OutputDefinition, bool) {
	for i := range d.Outputs {
		if d.Outputs[i].Name == name {
			return &d.Outputs[i], true
		}
	}
	return nil, false
}

// Default is a convenience for building an InputDefinition.Default.
func Default(v cty.Value) *cty.Value {
	return &v
}
