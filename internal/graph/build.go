package graph

import (
	"context"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/memo"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Build constructs a Graph from a flow definition. Every structural problem
// is collected into a single *DefinitionError.
func Build(ctx context.Context, def *flow.Definition, reg *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building graph from flow definition.", "vertices", len(def.Vertices), "edges", len(def.Edges))

	derr := &DefinitionError{}
	g := &Graph{
		vertices: make(map[string]*Vertex, len(def.Vertices)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
		interest: make(map[string][]*Vertex),
	}

	var defined []*Vertex
	for _, vd := range def.Vertices {
		v := buildVertex(vd, reg, derr)
		if v == nil {
			continue
		}
		if _, dup := g.vertices[v.Key()]; dup {
			derr.add("vertex '%s' is defined more than once", v.Key())
			continue
		}
		g.vertices[v.Key()] = v
		defined = append(defined, v)
	}

	// bound tracks how each input is satisfied: "value", "context" or "edge".
	bound := make(map[string]map[string]string, len(defined))
	for _, v := range defined {
		b := make(map[string]string)
		for name := range v.Values {
			b[name] = "value"
		}
		for name := range v.Context {
			if _, ok := b[name]; ok {
				derr.add("vertex '%s': input '%s' has both a configured value and a context binding", v.Key(), name)
			}
			b[name] = "context"
		}
		bound[v.Key()] = b
	}

	for _, e := range def.Edges {
		if !addEdge(g, e, bound, derr) {
			continue
		}
		g.incoming[e.Target.String()] = append(g.incoming[e.Target.String()], e)
		g.outgoing[e.Source.String()] = append(g.outgoing[e.Source.String()], e)
	}

	for _, v := range defined {
		for _, in := range v.Descriptor().Inputs {
			if !in.Required || in.Default != nil {
				continue
			}
			if _, ok := bound[v.Key()][in.Name]; !ok {
				derr.add("vertex '%s': required input '%s' has no bound source and no default", v.Key(), in.Name)
			}
		}
	}

	if err := derr.orNil(); err != nil {
		return nil, err
	}

	order, cyclic := topoSort(defined, g.outgoing, g.incoming)
	if len(cyclic) > 0 {
		derr.add("edge cycle detected involving vertices %v", cyclic)
		return nil, derr
	}
	g.order = order

	for _, v := range g.order {
		for _, key := range interestKeys(v) {
			g.interest[key] = append(g.interest[key], v)
		}
	}

	logger.Debug("Graph built.", "vertices", len(g.order), "context_keys", len(g.interest))
	return g, nil
}

func buildVertex(vd flow.Vertex, reg *registry.Registry, derr *DefinitionError) *Vertex {
	id := vd.ID.String()
	where := id
	if vd.Source != "" {
		where = id + " (" + vd.Source + ")"
	}

	comp, ok := reg.Lookup(vd.ID.Component)
	if !ok {
		derr.add("vertex '%s': unknown component type '%s'", where, vd.ID.Component)
		return nil
	}
	desc := comp.Descriptor()

	values := make(map[string]cty.Value, len(vd.Values))
	for name, raw := range vd.Values {
		in, ok := desc.Input(name)
		if !ok {
			derr.add("vertex '%s': component '%s' has no input '%s'", where, desc.Name, name)
			continue
		}
		val, err := convert.Convert(raw, in.Type)
		if err != nil {
			derr.add("vertex '%s': value for input '%s' is not a %s: %v", where, name, in.Type.FriendlyName(), err)
			continue
		}
		values[name] = val
	}

	bindings := make(map[string]string, len(vd.Context))
	for name, key := range vd.Context {
		if _, ok := desc.Input(name); !ok {
			derr.add("vertex '%s': component '%s' has no input '%s' to bind to context key '%s'", where, desc.Name, name, key)
			continue
		}
		if key == "" {
			derr.add("vertex '%s': input '%s' is bound to an empty context key", where, name)
			continue
		}
		bindings[name] = key
	}

	return &Vertex{
		ID:        vd.ID,
		Component: comp,
		Values:    values,
		Context:   bindings,
		Memo:      memo.NewTable(),
	}
}

func addEdge(g *Graph, e Edge, bound map[string]map[string]string, derr *DefinitionError) bool {
	src, ok := g.vertices[e.Source.String()]
	if !ok {
		derr.add("edge %s: unknown source vertex '%s'", e, e.Source)
		return false
	}
	dst, ok := g.vertices[e.Target.String()]
	if !ok {
		derr.add("edge %s: unknown target vertex '%s'", e, e.Target)
		return false
	}
	if src == dst {
		derr.add("edge %s: a vertex cannot depend on itself", e)
		return false
	}
	out, ok := src.Descriptor().Output(e.SourceOutput)
	if !ok {
		derr.add("edge %s: component '%s' has no output '%s'", e, src.Descriptor().Name, e.SourceOutput)
		return false
	}
	in, ok := dst.Descriptor().Input(e.TargetInput)
	if !ok {
		derr.add("edge %s: component '%s' has no input '%s'", e, dst.Descriptor().Name, e.TargetInput)
		return false
	}
	if !TypesCompatible(out.Type, in.Type) {
		derr.add("edge %s: output type %s is not compatible with input type %s", e, out.Type.FriendlyName(), in.Type.FriendlyName())
		return false
	}
	if how, taken := bound[dst.Key()][in.Name]; taken {
		derr.add("edge %s: input '%s' is already bound by %s", e, in.Name, how)
		return false
	}
	bound[dst.Key()][in.Name] = "edge"
	return true
}

// TypesCompatible reports whether a value of type from can be passed to an
// input of type to. The dynamic type is compatible with everything.
func TypesCompatible(from, to cty.Type) bool {
	if from.Equals(cty.DynamicPseudoType) || to.Equals(cty.DynamicPseudoType) {
		return true
	}
	return convert.GetConversion(from, to) != nil
}

// interestKeys returns the context keys v reads: keys of its context bindings
// and the configured values of inputs flagged as context keys.
func interestKeys(v *Vertex) []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, in := range v.Descriptor().Inputs {
		if key, ok := v.Context[in.Name]; ok {
			add(key)
		}
		if !in.ContextKey {
			continue
		}
		val, ok := v.Values[in.Name]
		if !ok && in.Default != nil {
			val, ok = *in.Default, true
		}
		if ok && val.IsKnown() && !val.IsNull() && val.Type().Equals(cty.String) {
			add(val.AsString())
		}
	}
	return keys
}

// topoSort orders vertices with Kahn's algorithm, breaking ties by
// definition order. Vertices left over form or depend on a cycle.
func topoSort(defined []*Vertex, outgoing, incoming map[string][]Edge) ([]*Vertex, []string) {
	pos := make(map[string]int, len(defined))
	indeg := make(map[string]int, len(defined))
	for i, v := range defined {
		pos[v.Key()] = i
		seen := make(map[string]struct{})
		for _, e := range incoming[v.Key()] {
			seen[e.Source.String()] = struct{}{}
		}
		indeg[v.Key()] = len(seen)
	}

	ready := make([]*Vertex, 0, len(defined))
	for _, v := range defined {
		if indeg[v.Key()] == 0 {
			ready = append(ready, v)
		}
	}

	byKey := make(map[string]*Vertex, len(defined))
	for _, v := range defined {
		byKey[v.Key()] = v
	}

	order := make([]*Vertex, 0, len(defined))
	for len(ready) > 0 {
		// Lowest definition position first.
		best := 0
		for i := range ready {
			if pos[ready[i].Key()] < pos[ready[best].Key()] {
				best = i
			}
		}
		v := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, v)

		done := make(map[string]struct{})
		for _, e := range outgoing[v.Key()] {
			t := e.Target.String()
			if _, ok := done[t]; ok {
				continue
			}
			done[t] = struct{}{}
			indeg[t]--
			if indeg[t] == 0 {
				ready = append(ready, byKey[t])
			}
		}
	}

	var cyclic []string
	if len(order) != len(defined) {
		for _, v := range defined {
			if indeg[v.Key()] > 0 {
				cyclic = append(cyclic, v.Key())
			}
		}
	}
	return order, cyclic
}
