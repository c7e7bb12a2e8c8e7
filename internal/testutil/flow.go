package testutil

import (
	"fmt"

	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// FlowBuilder assembles flow definitions in tests. Malformed ids panic.
type FlowBuilder struct {
	def flow.Definition
}

// NewFlow starts an empty flow.
func NewFlow() *FlowBuilder {
	return &FlowBuilder{}
}

// Vertex adds a vertex with configured values.
func (b *FlowBuilder) Vertex(id string, values map[string]cty.Value) *FlowBuilder {
	addr, err := nodeid.Parse(id)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	b.def.Vertices = append(b.def.Vertices, flow.Vertex{ID: addr, Values: values})
	return b
}

// Bind binds an input of the most recently matching vertex to a context key.
func (b *FlowBuilder) Bind(id, input, key string) *FlowBuilder {
	for i := range b.def.Vertices {
		if b.def.Vertices[i].ID.String() != id {
			continue
		}
		if b.def.Vertices[i].Context == nil {
			b.def.Vertices[i].Context = make(map[string]string)
		}
		b.def.Vertices[i].Context[input] = key
		return b
	}
	panic(fmt.Sprintf("testutil: no vertex %q to bind", id))
}

// Edge connects `component.name.output` to `component.name.input`.
func (b *FlowBuilder) Edge(from, to string) *FlowBuilder {
	src, out, err := nodeid.ParseOutputRef(from)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	dst, in, err := nodeid.ParseOutputRef(to)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	b.def.Edges = append(b.def.Edges, flow.Edge{Source: src, SourceOutput: out, Target: dst, TargetInput: in})
	return b
}

// Definition returns the assembled definition.
func (b *FlowBuilder) Definition() *flow.Definition {
	d := b.def
	return &d
}

// Str is shorthand for a single string-valued configuration map.
func Str(input, value string) map[string]cty.Value {
	return map[string]cty.Value{input: cty.StringVal(value)}
}
