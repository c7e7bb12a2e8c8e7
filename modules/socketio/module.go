// Package socketio provides a component that emits an event to a Socket.IO
// server and waits for a reply event. Connections are shared through the
// shared resource cache.
package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io/v2/types"
)

// Name is the component type name.
const Name = "socketio_emit"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the decoded inputs of the component.
type Input struct {
	URL                string `input:"url" validate:"required,url"`
	Namespace          string `input:"namespace" validate:"required,startswith=/"`
	EmitEvent          string `input:"emit_event" validate:"required"`
	EmitData           any    `input:"emit_data"`
	OnEvent            string `input:"on_event" validate:"required"`
	Timeout            string `input:"timeout" validate:"required"`
	InsecureSkipVerify bool   `input:"insecure_skip_verify"`
}

type opResult struct {
	value cty.Value
	err   error
}

// New returns the socketio_emit component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        Name,
			DisplayName: "Socket.IO Emit",
			Description: "Emits an event to a Socket.IO server and returns the data of the reply event.",
			Beta:        true,
			Inputs: []component.InputDefinition{
				{Name: "url", Type: cty.String, Required: true},
				{Name: "namespace", Type: cty.String, Default: component.Default(cty.StringVal("/"))},
				{Name: "emit_event", Type: cty.String, Required: true},
				{Name: "emit_data", Type: cty.DynamicPseudoType},
				{Name: "on_event", Type: cty.String, Required: true, Info: "The event whose first argument becomes the response."},
				{Name: "timeout", Type: cty.String, Default: component.Default(cty.StringVal("10s")), Advanced: true},
				{Name: "insecure_skip_verify", Type: cty.Bool, Default: component.Default(cty.False), Advanced: true},
			},
			Outputs: []component.OutputDefinition{
				{Name: "response", Type: cty.DynamicPseudoType, Volatile: true},
			},
		},
		ValidateFn: func(ctx context.Context, in component.Inputs) error {
			_, _, err := decode(in)
			return err
		},
		Outputs: map[string]component.BuildFunc{"response": build},
	}
}

func decode(in component.Inputs) (*Input, time.Duration, error) {
	var input Input
	if err := in.Decode(&input); err != nil {
		return nil, 0, err
	}
	u, err := url.Parse(input.URL)
	if err != nil {
		return nil, 0, &component.ValidationError{Input: "url", Err: err}
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, 0, &component.ValidationError{Input: "url", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, 0, &component.ValidationError{Input: "timeout", Err: err}
	}
	return &input, timeout, nil
}

func build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	input, timeout, err := decode(in)
	if err != nil {
		return cty.NilVal, err
	}
	logger := ctxlog.FromContext(ctx).With("vertex", bc.Vertex(), "url", input.URL, "emitEvent", input.EmitEvent, "onEvent", input.OnEvent)

	c, err := clientFor(ctx, bc.Shared(), input)
	if err != nil {
		return cty.NilVal, err
	}

	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.Once(types.EventName(input.OnEvent), func(data ...any) {
		if len(data) == 0 {
			done <- opResult{value: cty.NullVal(cty.DynamicPseudoType)}
			return
		}
		v, err := component.FromGo(data[0])
		done <- opResult{value: v, err: err}
	})

	jsonData, _ := json.Marshal(input.EmitData)
	logger.Debug("Emitting event.", "data", string(jsonData))
	c.Emit(input.EmitEvent, input.EmitData)

	select {
	case <-opCtx.Done():
		return cty.NilVal, fmt.Errorf("timed out after %v waiting for event '%s'", timeout, input.OnEvent)
	case res := <-done:
		if res.err != nil {
			return cty.NilVal, fmt.Errorf("failed to convert '%s' data: %w", input.OnEvent, res.err)
		}
		logger.Info("Received response event.")
		return res.value, nil
	}
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
