package graph

import (
	"sort"

	"github.com/vk/flowgrid/internal/flow"
)

// Edge is an explicit data dependency between two vertices.
type Edge = flow.Edge

// Graph owns the vertices, the edge adjacency and the key-interest map of a
// flow. The structure is immutable once built.
type Graph struct {
	vertices map[string]*Vertex
	order    []*Vertex // topological, ties broken by definition order

	incoming map[string][]Edge // by target
	outgoing map[string][]Edge // by source

	// interest maps a context key to the vertices reading it, in
	// topological order.
	interest map[string][]*Vertex
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Vertices returns every vertex in topological order.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.order) }

// Incoming returns the edges targeting the vertex.
func (g *Graph) Incoming(id string) []Edge { return g.incoming[id] }

// Outgoing returns the edges leaving the vertex.
func (g *Graph) Outgoing(id string) []Edge { return g.outgoing[id] }

// Successors returns the distinct direct edge successors of the vertex.
func (g *Graph) Successors(id string) []*Vertex {
	seen := make(map[string]struct{})
	var out []*Vertex
	for _, e := range g.outgoing[id] {
		k := e.Target.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, g.vertices[k])
	}
	return out
}

// Descendants returns every vertex reachable from id through edges,
// excluding id itself, in topological order.
func (g *Graph) Descendants(id string) []*Vertex {
	seen := map[string]struct{}{id: {}}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.outgoing[cur] {
			k := e.Target.String()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			stack = append(stack, k)
		}
	}
	delete(seen, id)
	return g.InOrder(seen)
}

// Interested returns the vertices that read the given context key.
func (g *Graph) Interested(key string) []*Vertex { return g.interest[key] }

// ContextKeys returns every context key some vertex is interested in.
func (g *Graph) ContextKeys() []string {
	keys := make([]string, 0, len(g.interest))
	for k := range g.interest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InOrder returns the vertices whose ids are in set, in topological order.
func (g *Graph) InOrder(set map[string]struct{}) []*Vertex {
	out := make([]*Vertex, 0, len(set))
	for _, v := range g.order {
		if _, ok := set[v.Key()]; ok {
			out = append(out, v)
		}
	}
	return out
}
