package hclflow

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

const (
	vertexRoot  = "vertex"
	contextFunc = "context"
)

func translateVertex(b *vertexBlock) (flow.Vertex, []flow.Edge, hcl.Diagnostics) {
	rng := b.Body.MissingItemRange()
	v := flow.Vertex{
		Values:  make(map[string]cty.Value),
		Context: make(map[string]string),
		Source:  fmt.Sprintf("%s:%d", rng.Filename, rng.Start.Line),
	}

	id, err := nodeid.Parse(b.Component + "." + b.Name)
	if err != nil {
		return v, nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid vertex labels",
			Detail:   err.Error(),
			Subject:  rng.Ptr(),
		}}
	}
	v.ID = id

	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return v, nil, diags
	}

	// Sorted for deterministic edge order.
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var edges []flow.Edge
	for _, name := range names {
		attr := attrs[name]

		if key, ok, kDiags := contextBinding(attr.Expr); ok || kDiags.HasErrors() {
			diags = append(diags, kDiags...)
			if !kDiags.HasErrors() {
				v.Context[name] = key
			}
			continue
		}

		if len(attr.Expr.Variables()) > 0 {
			src, out, rDiags := outputReference(attr.Expr)
			diags = append(diags, rDiags...)
			if !rDiags.HasErrors() {
				edges = append(edges, flow.Edge{Source: src, SourceOutput: out, Target: id, TargetInput: name})
			}
			continue
		}

		val, vDiags := attr.Expr.Value(nil)
		diags = append(diags, vDiags...)
		if !vDiags.HasErrors() {
			v.Values[name] = val
		}
	}
	return v, edges, diags
}

// contextBinding recognizes `context("key")`. ok is false when the
// expression is not a context call at all.
func contextBinding(expr hcl.Expression) (string, bool, hcl.Diagnostics) {
	syn, isSyntax := expr.(hclsyntax.Expression)
	if !isSyntax {
		return "", false, nil
	}
	call, isCall := syn.(*hclsyntax.FunctionCallExpr)
	if !isCall || call.Name != contextFunc {
		if hasCall(syn, contextFunc) {
			return "", false, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid context binding",
				Detail:   "context() must be the whole attribute value.",
				Subject:  expr.Range().Ptr(),
			}}
		}
		return "", false, nil
	}

	bad := hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid context binding",
		Detail:   "context() takes exactly one literal string argument.",
		Subject:  expr.Range().Ptr(),
	}}
	if len(call.Args) != 1 {
		return "", true, bad
	}
	key, diags := call.Args[0].Value(nil)
	if diags.HasErrors() || !key.IsKnown() || key.IsNull() || !key.Type().Equals(cty.String) || key.AsString() == "" {
		return "", true, append(diags, bad...)
	}
	return key.AsString(), true, nil
}

// outputReference parses `vertex.<component>.<name>.<output>`.
func outputReference(expr hcl.Expression) (nodeid.Address, string, hcl.Diagnostics) {
	bad := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   detail,
			Subject:  expr.Range().Ptr(),
		}}
	}

	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return nodeid.Address{}, "", bad("A reference must be the whole attribute value, in the form vertex.<component>.<name>.<output>.")
	}
	if trav.RootName() != vertexRoot || len(trav) != 4 {
		return nodeid.Address{}, "", bad("References must have the form vertex.<component>.<name>.<output>.")
	}

	parts := make([]string, 0, 3)
	for _, step := range trav[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return nodeid.Address{}, "", bad("Index steps are not allowed in vertex references.")
		}
		parts = append(parts, attr.Name)
	}
	src, out, err := nodeid.ParseOutputRef(parts[0] + "." + parts[1] + "." + parts[2])
	if err != nil {
		return nodeid.Address{}, "", bad(err.Error())
	}
	return src, out, nil
}

// hasCall walks the syntax tree looking for a call to the named function.
func hasCall(expr hclsyntax.Expression, name string) bool {
	if expr == nil {
		return false
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if e.Name == name {
			return true
		}
		for _, arg := range e.Args {
			if hasCall(arg, name) {
				return true
			}
		}
	case *hclsyntax.BinaryOpExpr:
		return hasCall(e.LHS, name) || hasCall(e.RHS, name)
	case *hclsyntax.ConditionalExpr:
		return hasCall(e.Condition, name) || hasCall(e.TrueResult, name) || hasCall(e.FalseResult, name)
	case *hclsyntax.UnaryOpExpr:
		return hasCall(e.Val, name)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			if hasCall(part, name) {
				return true
			}
		}
	case *hclsyntax.TemplateWrapExpr:
		return hasCall(e.Wrapped, name)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			if hasCall(item, name) {
				return true
			}
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			if hasCall(item.KeyExpr, name) || hasCall(item.ValueExpr, name) {
				return true
			}
		}
	case *hclsyntax.ParenthesesExpr:
		return hasCall(e.Expression, name)
	}
	return false
}
