package graph

import (
	"sync"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/memo"
	"github.com/vk/flowgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Vertex wraps one component instance.
type Vertex struct {
	ID        nodeid.Address
	Component component.Component

	// Values are the configured input values, already converted to the
	// declared input types.
	Values map[string]cty.Value

	// Context maps input names to the context keys they are bound to.
	Context map[string]string

	// Memo holds memoized outputs and persists across runs.
	Memo *memo.Table

	mu      sync.Mutex
	status  Status
	err     error
	isState bool
	outputs map[string]cty.Value
}

// Key returns the canonical string id of the vertex.
func (v *Vertex) Key() string { return v.ID.String() }

// Descriptor returns the component descriptor.
func (v *Vertex) Descriptor() *component.Descriptor { return v.Component.Descriptor() }

// Status returns the last recorded status and error.
func (v *Vertex) Status() (Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status, v.err
}

// SetStatus records a new status. A nil err clears the previous error.
func (v *Vertex) SetStatus(s Status, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = s
	v.err = err
}

// IsState reports whether the vertex has written to the context store in
// the current run.
func (v *Vertex) IsState() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isState
}

// MarkState flags the vertex as a state vertex.
func (v *Vertex) MarkState() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.isState = true
}

// Outputs returns the outputs of the last successful activation.
func (v *Vertex) Outputs() map[string]cty.Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.outputs
}

// Output returns one output of the last successful activation.
func (v *Vertex) Output(name string) (cty.Value, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.outputs[name]
	return val, ok
}

// SetOutputs records the outputs of a successful activation.
func (v *Vertex) SetOutputs(outputs map[string]cty.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outputs = outputs
}

// Reset clears the per-run state. Memoized outputs are kept.
func (v *Vertex) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = Pending
	v.err = nil
	v.isState = false
	v.outputs = nil
}
