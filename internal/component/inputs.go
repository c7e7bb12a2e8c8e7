package component

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report input names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("input"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Inputs are the resolved input values of a vertex for one activation.
type Inputs map[string]cty.Value

// Get returns the named input, or a dynamic null when it is unbound.
func (in Inputs) Get(name string) cty.Value {
	if v, ok := in[name]; ok && v != cty.NilVal {
		return v
	}
	return cty.NullVal(cty.DynamicPseudoType)
}

// Has reports whether the named input is bound to a known, non-null value.
func (in Inputs) Has(name string) bool {
	v := in.Get(name)
	return v.IsKnown() && !v.IsNull()
}

// String returns the named input converted to a string, or "" when unbound.
func (in Inputs) String(name string) string {
	if !in.Has(name) {
		return ""
	}
	sv, err := convert.Convert(in[name], cty.String)
	if err != nil {
		return ""
	}
	return sv.AsString()
}

// Bool returns the named input converted to a bool, or false when unbound.
func (in Inputs) Bool(name string) bool {
	if !in.Has(name) {
		return false
	}
	bv, err := convert.Convert(in[name], cty.Bool)
	if err != nil {
		return false
	}
	return bv.True()
}

// Decode copies the inputs into the struct pointed to by target, matching
// fields by their `input` tag, then validates it with its `validate` tags.
func (in Inputs) Decode(target any) error {
	raw := make(map[string]any, len(in))
	for name, v := range in {
		native, err := ToGo(v)
		if err != nil {
			return &ValidationError{Input: name, Err: err}
		}
		raw[name] = native
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "input",
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create input decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return &ValidationError{Err: err}
	}
	return ValidateStruct(target)
}

// ValidateStruct runs struct tag validation on s and reports the first
// failing field as a ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Input: fe.Field(),
			Err:   fmt.Errorf("failed on '%s' rule", fe.Tag()),
		}
	}
	return &ValidationError{Err: err}
}
