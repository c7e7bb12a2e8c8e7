// Package yamlflow loads flow definitions written in YAML or JSON.
//
//	vertices:
//	  - id: text.greeting
//	    values:
//	      value: hello
//	  - component: notify
//	    id: announce
//	    values:
//	      context_key: greeting
//	  - id: text.echo
//	    context:
//	      value: greeting
//	edges:
//	  - from: text.greeting.text
//	    to: notify.announce.input_value
package yamlflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/fsutil"
	"github.com/vk/flowgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions the loader picks up in directories.
var Extensions = []string{".yaml", ".yml", ".json"}

type document struct {
	Vertices []vertexDoc `yaml:"vertices"`
	Edges    []edgeDoc   `yaml:"edges"`
}

type vertexDoc struct {
	ID        string            `yaml:"id"`
	Component string            `yaml:"component"`
	Values    map[string]any    `yaml:"values"`
	Context   map[string]string `yaml:"context"`
}

type edgeDoc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Loader is the YAML/JSON implementation of flow.Loader.
type Loader struct{}

var _ flow.Loader = (*Loader)(nil)

// NewLoader creates a new YAML flow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every given file, and every YAML or JSON file below every
// given directory, into a single definition.
func (l *Loader) Load(ctx context.Context, paths ...string) (*flow.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := findFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML flow files.", "count", len(files))

	def := &flow.Definition{}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		fileDef, err := Parse(file, src)
		if err != nil {
			return nil, err
		}
		def.Merge(fileDef)
	}
	logger.Debug("YAML loading complete.", "vertices", len(def.Vertices), "edges", len(def.Edges))
	return def, nil
}

// Parse decodes a single YAML or JSON document.
func Parse(filename string, src []byte) (*flow.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return translate(filename, &doc)
}

func translate(filename string, doc *document) (*flow.Definition, error) {
	var errs []error
	def := &flow.Definition{}

	for i, vd := range doc.Vertices {
		where := fmt.Sprintf("%s: vertices[%d]", filename, i)
		raw := vd.ID
		if vd.Component != "" {
			raw = vd.Component + "." + vd.ID
		}
		id, err := nodeid.Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
			continue
		}

		values := make(map[string]cty.Value, len(vd.Values))
		for name, v := range vd.Values {
			val, err := component.FromGo(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: value '%s': %w", where, name, err))
				continue
			}
			values[name] = val
		}

		def.Vertices = append(def.Vertices, flow.Vertex{
			ID:      id,
			Values:  values,
			Context: vd.Context,
			Source:  where,
		})
	}

	for i, ed := range doc.Edges {
		where := fmt.Sprintf("%s: edges[%d]", filename, i)
		src, out, err := nodeid.ParseOutputRef(ed.From)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: from: %w", where, err))
			continue
		}
		dst, in, err := nodeid.ParseOutputRef(ed.To)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: to: %w", where, err))
			continue
		}
		def.Edges = append(def.Edges, flow.Edge{Source: src, SourceOutput: out, Target: dst, TargetInput: in})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return def, nil
}

func findFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
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
		found, err := fsutil.FindFiles(path, Extensions...)
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", path, err)
		}
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}

// Supports reports whether path has an extension handled by this loader.
func Supports(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
