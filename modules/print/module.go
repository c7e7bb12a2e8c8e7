package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the registry.Module interface for this package. Output
// goes to Out, or to os.Stdout when Out is nil.
type Module struct {
	Out io.Writer
}

// Printer writes values, one line per build.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// New returns the "print" component writing to out.
func New(out io.Writer) *component.Func {
	p := &Printer{out: out}
	return &component.Func{
		Desc: component.Descriptor{
			Name:        "print",
			DisplayName: "Print",
			Description: "Prints a value as JSON and passes it through.",
			Inputs: []component.InputDefinition{
				{Name: "value", Type: cty.DynamicPseudoType},
				{Name: "label", Type: cty.String, Default: component.Default(cty.StringVal(""))},
			},
			Outputs: []component.OutputDefinition{
				{Name: "printed", Type: cty.String, Volatile: true},
			},
		},
		Outputs: map[string]component.BuildFunc{"printed": p.build},
	}
}

func (p *Printer) build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "vertex", bc.Vertex())

	rendered := "(null)"
	if v := in.Get("value"); !v.IsNull() {
		b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
		if err != nil {
			return cty.NilVal, fmt.Errorf("failed to render value: %w", err)
		}
		rendered = string(b)
	}

	line := rendered
	if label := in.String("label"); label != "" {
		line = label + " = " + rendered
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.out, "      %s\n", line); err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal(line), nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.Register(New(out))
}
