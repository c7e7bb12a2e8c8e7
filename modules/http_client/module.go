package http_client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// responseType is the type of the "response" output.
var responseType = cty.Object(map[string]cty.Type{
	"status_code": cty.Number,
	"body":        cty.String,
	"headers":     cty.Map(cty.String),
})

// Input defines the decoded inputs of the request component.
type Input struct {
	URL     string            `input:"url" validate:"required,url"`
	Method  string            `input:"method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD"`
	Body    string            `input:"body"`
	Headers map[string]string `input:"headers"`
	Timeout string            `input:"timeout" validate:"required"`
}

func decode(in component.Inputs) (*Input, time.Duration, error) {
	var input Input
	if err := in.Decode(&input); err != nil {
		return nil, 0, err
	}
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, 0, &component.ValidationError{Input: "timeout", Err: err}
	}
	return &input, timeout, nil
}

// New returns the "http_request" component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        "http_request",
			DisplayName: "HTTP Request",
			Description: "Performs an HTTP request and returns the response.",
			Inputs: []component.InputDefinition{
				{Name: "url", Type: cty.String, Required: true},
				{Name: "method", Type: cty.String, Default: component.Default(cty.StringVal(http.MethodGet))},
				{Name: "body", Type: cty.String, Default: component.Default(cty.StringVal(""))},
				{Name: "headers", Type: cty.Map(cty.String), Advanced: true},
				{Name: "timeout", Type: cty.String, Default: component.Default(cty.StringVal("30s")), Advanced: true},
			},
			Outputs: []component.OutputDefinition{
				{Name: "response", Type: responseType, Volatile: true},
			},
		},
		ValidateFn: func(ctx context.Context, in component.Inputs) error {
			_, _, err := decode(in)
			return err
		},
		Outputs: map[string]component.BuildFunc{"response": build},
	}
}

func build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	input, timeout, err := decode(in)
	if err != nil {
		return cty.NilVal, err
	}
	logger := ctxlog.FromContext(ctx).With("vertex", bc.Vertex())
	logger.Info("Making HTTP request", "method", input.Method, "url", input.URL)

	client, err := clientFor(ctx, bc.Shared(), timeout)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to get http client: %w", err)
	}

	var body io.Reader
	if input.Body != "" {
		body = bytes.NewBufferString(input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, input.Method, input.URL, body)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range input.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := cty.MapValEmpty(cty.String)
	if len(resp.Header) > 0 {
		hm := make(map[string]cty.Value, len(resp.Header))
		for k := range resp.Header {
			hm[k] = cty.StringVal(resp.Header.Get(k))
		}
		headers = cty.MapVal(hm)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"body":        cty.StringVal(string(bodyBytes)),
		"headers":     headers,
	}), nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
