package testutil

import (
	"context"
	"errors"

	"github.com/vk/flowgrid/internal/component"
	"github.com/zclconf/go-cty/cty"
)

// Echo returns a component whose "out" output echoes input "value".
func Echo(name string, rec *Recorder) *component.Func {
	build := func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
		rec.record(bc.Vertex())
		return in.Get("value"), nil
	}
	return &component.Func{
		Desc: component.Descriptor{
			Name:   name,
			Inputs: []component.InputDefinition{{Name: "value", Type: cty.DynamicPseudoType}},
			Outputs: []component.OutputDefinition{
				{Name: "out", Type: cty.DynamicPseudoType},
			},
		},
		Outputs: map[string]component.BuildFunc{"out": build},
	}
}

// Volatile is like Echo but its only output is volatile.
func Volatile(name string, rec *Recorder) *component.Func {
	c := Echo(name, rec)
	c.Desc.Outputs[0].Volatile = true
	return c
}

// Required returns a component with a single required string input "value"
// and an "out" output echoing it. Validation rejects the value "bad".
func Required(name string, rec *Recorder) *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:    name,
			Inputs:  []component.InputDefinition{{Name: "value", Type: cty.String, Required: true}},
			Outputs: []component.OutputDefinition{{Name: "out", Type: cty.String}},
		},
		ValidateFn: func(ctx context.Context, in component.Inputs) error {
			if in.String("value") == "bad" {
				return &component.ValidationError{Input: "value", Err: errors.New("value must not be 'bad'")}
			}
			return nil
		},
		Outputs: map[string]component.BuildFunc{
			"out": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				rec.record(bc.Vertex())
				return cty.StringVal(in.String("value")), nil
			},
		},
	}
}

// Failing returns a component whose build always fails with err.
func Failing(name string, rec *Recorder, err error) *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:    name,
			Inputs:  []component.InputDefinition{{Name: "value", Type: cty.DynamicPseudoType}},
			Outputs: []component.OutputDefinition{{Name: "out", Type: cty.String}},
		},
		Outputs: map[string]component.BuildFunc{
			"out": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				rec.record(bc.Vertex())
				return cty.NilVal, err
			},
		},
	}
}

// Panicking returns a component whose build panics.
func Panicking(name string) *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:    name,
			Outputs: []component.OutputDefinition{{Name: "out", Type: cty.String}},
		},
		Outputs: map[string]component.BuildFunc{
			"out": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				panic("kaboom")
			},
		},
	}
}

// Blocking returns a component whose build waits until release is closed or
// the context is cancelled. started receives the vertex id when a build begins.
func Blocking(name string, started chan<- string, release <-chan struct{}) *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:    name,
			Inputs:  []component.InputDefinition{{Name: "value", Type: cty.DynamicPseudoType}},
			Outputs: []component.OutputDefinition{{Name: "out", Type: cty.Bool}},
		},
		Outputs: map[string]component.BuildFunc{
			"out": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				if started != nil {
					started <- bc.Vertex()
				}
				select {
				case <-release:
					return cty.True, nil
				case <-ctx.Done():
					return cty.NilVal, ctx.Err()
				}
			},
		},
	}
}

// Writer returns a component writing input "value" to the context key named
// by input "key". Its "result" output is volatile and echoes the value.
// When listen is true, "key" is also flagged as a context key so the writer
// declares interest in its own key.
func Writer(name string, rec *Recorder, listen bool) *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name: name,
			Inputs: []component.InputDefinition{
				{Name: "key", Type: cty.String, Required: true, ContextKey: listen},
				{Name: "value", Type: cty.DynamicPseudoType},
				{Name: "append", Type: cty.Bool, Default: component.Default(cty.False)},
			},
			Outputs: []component.OutputDefinition{{Name: "result", Type: cty.DynamicPseudoType, Volatile: true}},
		},
		Outputs: map[string]component.BuildFunc{
			"result": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				rec.record(bc.Vertex())
				bc.Write(in.String("key"), in.Get("value"), in.Bool("append"))
				return in.Get("value"), nil
			},
		},
	}
}

// Reader returns a component reading the context key named by input "key".
// Output "value" is the stored value (null when absent) and "present"
// reports whether the key was written.
func Reader(name string, rec *Recorder) *component.Func {
	read := func(bc *component.BuildContext, in component.Inputs) (cty.Value, bool) {
		return bc.Read(in.String("key"))
	}
	return &component.Func{
		Desc: component.Descriptor{
			Name: name,
			Inputs: []component.InputDefinition{
				{Name: "key", Type: cty.String, Required: true, ContextKey: true},
			},
			Outputs: []component.OutputDefinition{
				{Name: "value", Type: cty.DynamicPseudoType, Volatile: true},
				{Name: "present", Type: cty.Bool, Volatile: true},
			},
		},
		Outputs: map[string]component.BuildFunc{
			"value": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				rec.record(bc.Vertex())
				v, ok := read(bc, in)
				if !ok {
					return cty.NullVal(cty.DynamicPseudoType), nil
				}
				return v, nil
			},
			"present": func(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
				_, ok := read(bc, in)
				return cty.BoolVal(ok), nil
			},
		},
	}
}
