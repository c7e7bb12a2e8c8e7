// Package hclflow loads flow definitions written in HCL.
//
//	vertex "text" "greeting" {
//	  value = "hello"
//	}
//
//	vertex "notify" "announce" {
//	  context_key = "greeting"
//	  input_value = vertex.text.greeting.text
//	}
//
//	vertex "text" "echo" {
//	  value = context("greeting")
//	}
//
// A reference `vertex.<component>.<name>.<output>` creates an edge. A call
// `context("<key>")` binds the input to a context key. Every other attribute
// is a literal value evaluated without variables or functions.
package hclflow

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/fsutil"
)

// Extension is the file extension the loader picks up in directories.
const Extension = ".hcl"

// Loader is the HCL implementation of flow.Loader.
type Loader struct{}

var _ flow.Loader = (*Loader)(nil)

// NewLoader creates a new HCL flow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is used to decode the top-level blocks of a file.
type fileRoot struct {
	Vertices []*vertexBlock `hcl:"vertex,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

type vertexBlock struct {
	Component string   `hcl:"component,label"`
	Name      string   `hcl:"name,label"`
	Body      hcl.Body `hcl:",remain"`
}

// Load parses every given file, and every .hcl file below every given
// directory, into a single definition.
func (l *Loader) Load(ctx context.Context, paths ...string) (*flow.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	def := &flow.Definition{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileDef, err := decodeFile(f)
		if err != nil {
			return nil, err
		}
		def.Merge(fileDef)
	}

	logger.Debug("HCL loading complete.", "vertices", len(def.Vertices), "edges", len(def.Edges))
	return def, nil
}

// Parse decodes a single HCL document held in memory.
func Parse(filename string, src []byte) (*flow.Definition, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeFile(f)
}

func decodeFile(f *hcl.File) (*flow.Definition, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", f.Body.MissingItemRange().Filename, diags)
	}

	// Anything besides vertex blocks is rejected.
	if attrs, diags := root.Remain.JustAttributes(); diags.HasErrors() || len(attrs) > 0 {
		for _, a := range attrs {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected attribute",
				Detail:   fmt.Sprintf("Top-level attribute %q is not allowed; only vertex blocks are.", a.Name),
				Subject:  a.NameRange.Ptr(),
			})
		}
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", f.Body.MissingItemRange().Filename, diags)
	}

	def := &flow.Definition{}
	var diags hcl.Diagnostics
	for _, b := range root.Vertices {
		v, edges, vDiags := translateVertex(b)
		diags = append(diags, vDiags...)
		if vDiags.HasErrors() {
			continue
		}
		def.Vertices = append(def.Vertices, v)
		def.Edges = append(def.Edges, edges...)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", f.Body.MissingItemRange().Filename, diags)
	}
	return def, nil
}

func findFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		all = append(all, p)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFiles(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", path, err)
		}
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}
