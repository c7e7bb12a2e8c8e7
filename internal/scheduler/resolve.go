package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/memo"
	"github.com/vk/flowgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// blockedError marks a vertex that could not run because a source feeding a
// non-optional input produced no outputs.
type blockedError struct {
	source string
	status graph.Status
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("upstream vertex '%s' %s", e.source, e.status)
}

// prepare resolves the inputs of v and builds its task. It returns nil when
// the vertex was settled without running.
func (r *run) prepare(ctx context.Context, v *graph.Vertex) *task.Task {
	r.started[v.Key()] = true
	v.SetStatus(graph.Running, nil)

	in, err := r.resolve(v)
	if err != nil {
		var be *blockedError
		switch {
		case errors.As(err, &be) && be.status == graph.Cancelled:
			r.settle(ctx, v, graph.Cancelled, err)
		case errors.As(err, &be):
			r.settle(ctx, v, graph.Blocked, err)
		default:
			r.settle(ctx, v, graph.Failed, err)
		}
		return nil
	}

	fp, err := memo.Fingerprint(in)
	if err != nil {
		r.settle(ctx, v, graph.Failed, &component.ValidationError{Vertex: v.Key(), Err: err})
		return nil
	}

	return &task.Task{
		Vertex:      v,
		Inputs:      in,
		Fingerprint: fp,
		Wave:        r.wave,
		Build:       component.NewBuildContext(v.Key(), r.store, r.sched.opts.Shared),
	}
}

// resolve computes the value of every declared input. Sources are tried in
// order: edge, context binding, configured value, default, typed null.
func (r *run) resolve(v *graph.Vertex) (component.Inputs, error) {
	edges := make(map[string]graph.Edge)
	for _, e := range r.g.Incoming(v.Key()) {
		edges[e.TargetInput] = e
	}

	desc := v.Descriptor()
	in := make(component.Inputs, len(desc.Inputs))
	for i := range desc.Inputs {
		def := &desc.Inputs[i]
		val, ok, err := r.lookup(v, def, edges)
		if err != nil {
			return nil, err
		}
		if !ok {
			if def.Default != nil {
				val = *def.Default
			} else {
				val = cty.NullVal(def.Type)
			}
		}
		converted, err := convert.Convert(val, def.Type)
		if err != nil {
			return nil, &component.ValidationError{
				Vertex: v.Key(),
				Input:  def.Name,
				Err:    fmt.Errorf("cannot use %s as %s: %w", val.Type().FriendlyName(), def.Type.FriendlyName(), err),
			}
		}
		in[def.Name] = converted
	}
	return in, nil
}

func (r *run) lookup(v *graph.Vertex, def *component.InputDefinition, edges map[string]graph.Edge) (cty.Value, bool, error) {
	if e, ok := edges[def.Name]; ok {
		src, _ := r.g.Vertex(e.Source.String())
		if out, ok := src.Output(e.SourceOutput); ok {
			return out, true, nil
		}
		if def.Optional() {
			return cty.NilVal, false, nil
		}
		status, _ := src.Status()
		return cty.NilVal, false, &blockedError{source: src.Key(), status: status}
	}

	if key, ok := v.Context[def.Name]; ok {
		if val, ok := r.store.Read(key); ok {
			return val, true, nil
		}
		if def.Required && def.Default == nil {
			return cty.NilVal, false, &component.ValidationError{
				Vertex: v.Key(),
				Input:  def.Name,
				Err:    fmt.Errorf("context key '%s' has not been written", key),
			}
		}
		return cty.NilVal, false, nil
	}

	if val, ok := v.Values[def.Name]; ok {
		return val, true, nil
	}
	return cty.NilVal, false, nil
}
