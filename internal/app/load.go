package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/hclflow"
	"github.com/vk/flowgrid/internal/yamlflow"
)

// LoadFlow reads a flow definition from a file or directory. A file is
// decoded by the loader matching its extension; a directory is scanned by
// every loader and the results are merged.
func (a *App) LoadFlow(ctx context.Context, path string) (*flow.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading flow...", "flow_path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}

	var loaders []flow.Loader
	switch {
	case info.IsDir():
		loaders = []flow.Loader{hclflow.NewLoader(), yamlflow.NewLoader()}
	case filepath.Ext(path) == hclflow.Extension:
		loaders = []flow.Loader{hclflow.NewLoader()}
	case yamlflow.Supports(path):
		loaders = []flow.Loader{yamlflow.NewLoader()}
	default:
		return nil, fmt.Errorf("failed to load flow: unsupported file type %q", filepath.Ext(path))
	}

	def := &flow.Definition{}
	for _, l := range loaders {
		d, err := l.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load flow: %w", err)
		}
		def.Merge(d)
	}
	logger.Info("Flow loaded successfully.", "vertices", len(def.Vertices), "edges", len(def.Edges))
	return def, nil
}
