package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValidateRegistry checks every registered descriptor for internal
// consistency: unique input and output names, at least one output, defaults
// convertible to their input type and, for Func components, a builder for
// every declared output.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		c := r.components[name]
		d := c.Descriptor()

		if len(d.Outputs) == 0 {
			errs = append(errs, fmt.Sprintf("component '%s': declares no outputs", name))
		}

		seenInputs := make(map[string]struct{}, len(d.Inputs))
		for _, in := range d.Inputs {
			if _, dup := seenInputs[in.Name]; dup {
				errs = append(errs, fmt.Sprintf("component '%s': duplicate input '%s'", name, in.Name))
			}
			seenInputs[in.Name] = struct{}{}

			if in.Type == cty.NilType {
				errs = append(errs, fmt.Sprintf("component '%s', input '%s': missing type", name, in.Name))
				continue
			}
			if in.Type.Equals(cty.DynamicPseudoType) && !in.ContextKey {
				logger.Debug("Component input accepts any type, edge type checks are disabled for it.", "component", name, "input", in.Name)
			}
			if in.Default != nil {
				if _, err := convert.Convert(*in.Default, in.Type); err != nil {
					errs = append(errs, fmt.Sprintf("component '%s', input '%s': default is not a %s: %v", name, in.Name, in.Type.FriendlyName(), err))
				}
			}
		}

		seenOutputs := make(map[string]struct{}, len(d.Outputs))
		for _, out := range d.Outputs {
			if _, dup := seenOutputs[out.Name]; dup {
				errs = append(errs, fmt.Sprintf("component '%s': duplicate output '%s'", name, out.Name))
			}
			seenOutputs[out.Name] = struct{}{}
			if out.Type == cty.NilType {
				errs = append(errs, fmt.Sprintf("component '%s', output '%s': missing type", name, out.Name))
			}
		}

		if fn, ok := c.(*component.Func); ok {
			for _, out := range d.Outputs {
				if _, ok := fn.Outputs[out.Name]; !ok {
					errs = append(errs, fmt.Sprintf("component '%s': no builder for declared output '%s'", name, out.Name))
				}
			}
			for outName := range fn.Outputs {
				if _, ok := seenOutputs[outName]; !ok {
					errs = append(errs, fmt.Sprintf("component '%s': builder for undeclared output '%s'", name, outName))
				}
			}
		}
	}

	if len(errs) > 0 {
		return errors.New("registry validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
