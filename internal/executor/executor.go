// Package executor runs a single prepared vertex activation. It is the
// boundary at which component panics are recovered and output values are
// checked against their declared types.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/metrics"
	"github.com/vk/flowgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Executor turns a prepared task into a result. Implementations must be safe
// for concurrent use by multiple workers.
type Executor interface {
	Execute(ctx context.Context, t *task.Task) *task.Result
}

// Local executes components in-process.
type Local struct {
	metrics *metrics.Metrics
}

var _ Executor = (*Local)(nil)

// New creates a local executor. m may be nil.
func New(m *metrics.Metrics) *Local {
	return &Local{metrics: m}
}

// Execute serves memoized outputs when the fingerprint matches and builds
// the rest. Validate runs only when at least one output has to be built.
func (e *Local) Execute(ctx context.Context, t *task.Task) *task.Result {
	start := time.Now()
	v := t.Vertex
	desc := v.Descriptor()
	logger := ctxlog.FromContext(ctx).With("vertex", v.Key(), "wave", t.Wave)

	res := &task.Result{Task: t, Outputs: make(map[string]cty.Value, len(desc.Outputs))}
	defer func() { res.Duration = time.Since(start) }()

	writes := make(map[string][]component.ContextWrite, len(desc.Outputs))
	var pending []component.OutputDefinition
	for _, out := range desc.Outputs {
		if !out.Volatile {
			if entry, ok := v.Memo.Lookup(out.Name, t.Fingerprint); ok {
				res.Outputs[out.Name] = entry.Value
				writes[out.Name] = entry.Writes
				e.metrics.MemoHit(desc.Name)
				continue
			}
		}
		pending = append(pending, out)
	}
	if len(pending) == 0 {
		logger.Debug("All outputs served from memo.")
		res.Cached = true
		res.Writes = ordered(desc.Outputs, writes)
		return res
	}

	if err := e.validate(ctx, t); err != nil {
		res.Err = err
		return res
	}

	for _, out := range pending {
		if err := ctx.Err(); err != nil {
			res.Err = &component.BuildError{Vertex: v.Key(), Output: out.Name, Err: err}
			return res
		}
		val, err := e.build(ctx, t, out)
		res.Builds++
		e.metrics.Build(desc.Name)
		// Drain even on failure so a later output never inherits these.
		w := t.Build.Writes()
		if err != nil {
			logger.Debug("Output build failed.", "output", out.Name, "error", err)
			res.Err = err
			return res
		}
		res.Outputs[out.Name] = val
		writes[out.Name] = w
		if !out.Volatile {
			v.Memo.Store(out.Name, t.Fingerprint, val, w)
		}
	}

	res.Writes = ordered(desc.Outputs, writes)
	logger.Debug("Vertex built.", "builds", res.Builds, "writes", len(res.Writes))
	return res
}

// ordered flattens per-output writes in declared output order.
func ordered(outputs []component.OutputDefinition, writes map[string][]component.ContextWrite) []component.ContextWrite {
	var all []component.ContextWrite
	for _, out := range outputs {
		all = append(all, writes[out.Name]...)
	}
	return all
}

func (e *Local) validate(ctx context.Context, t *task.Task) (err error) {
	id := t.Vertex.Key()
	defer func() {
		if r := recover(); r != nil {
			err = &component.ValidationError{Vertex: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	err = t.Vertex.Component.Validate(ctx, t.Inputs)
	if err == nil {
		return nil
	}
	var ve *component.ValidationError
	if errors.As(err, &ve) {
		if ve.Vertex == "" {
			ve.Vertex = id
		}
		return ve
	}
	return &component.ValidationError{Vertex: id, Err: err}
}

func (e *Local) build(ctx context.Context, t *task.Task, out component.OutputDefinition) (val cty.Value, err error) {
	id := t.Vertex.Key()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Build panicked.", "vertex", id, "output", out.Name, "panic", r, "stack", string(debug.Stack()))
			val = cty.NilVal
			err = &component.BuildError{Vertex: id, Output: out.Name, Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()

	raw, err := t.Vertex.Component.Build(ctx, t.Build, out.Name, t.Inputs)
	if err != nil {
		var be *component.BuildError
		if errors.As(err, &be) {
			if be.Vertex == "" {
				be.Vertex = id
			}
			return cty.NilVal, be
		}
		return cty.NilVal, &component.BuildError{Vertex: id, Output: out.Name, Err: err}
	}
	if raw == cty.NilVal {
		return cty.NullVal(out.Type), nil
	}
	converted, err := convert.Convert(raw, out.Type)
	if err != nil {
		return cty.NilVal, &component.BuildError{
			Vertex: id,
			Output: out.Name,
			Err:    fmt.Errorf("returned %s, declared %s: %w", raw.Type().FriendlyName(), out.Type.FriendlyName(), err),
		}
	}
	return converted, nil
}
