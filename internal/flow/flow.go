// Package flow defines the format-agnostic flow definition consumed by the
// graph builder. Loaders for concrete formats (HCL, YAML/JSON) translate their
// input into a Definition.
package flow

import (
	"context"
	"fmt"

	"github.com/vk/flowgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Definition is a declarative graph description: a vertex list and an edge list.
type Definition struct {
	Vertices []Vertex
	Edges    []Edge
}

// Vertex is one configured component instance.
type Vertex struct {
	ID nodeid.Address

	// Values holds configured input values by input name.
	Values map[string]cty.Value

	// Context binds input names to context keys. A bound input is resolved
	// from the run's context store and declares interest in that key.
	Context map[string]string

	// Source locates the definition for error messages, e.g. "main.hcl:3,1".
	Source string
}

// Edge connects an output of one vertex to an input of another.
type Edge struct {
	Source       nodeid.Address
	SourceOutput string
	Target       nodeid.Address
	TargetInput  string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s.%s", e.Source.Output(e.SourceOutput), e.Target, e.TargetInput)
}

// Loader reads flow definitions from files or directories.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Definition, error)
}

// Merge appends every vertex and edge of others to d.
func (d *Definition) Merge(others ...*Definition) {
	for _, o := range others {
		if o == nil {
			continue
		}
		d.Vertices = append(d.Vertices, o.Vertices...)
		d.Edges = append(d.Edges, o.Edges...)
	}
}
