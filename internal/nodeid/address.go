// internal/nodeid/address.go
package nodeid

// Address is the structured representation of a unique vertex identifier.
type Address struct {
	Component string
	Name      string
}

// New creates an address for the given component type and vertex name.
func New(component, name string) Address {
	return Address{Component: component, Name: name}
}

// String serializes the Address into its canonical `component.name` form.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return a.Component + "." + a.Name
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Component == "" && a.Name == ""
}

// Output returns the canonical reference string for one output of this vertex.
func (a Address) Output(output string) string {
	return a.String() + "." + output
}
