package core_execution

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/hclflow"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/scheduler"
)

// buildHCL parses src and builds a graph over the core modules.
func buildHCL(t *testing.T, src string) *graph.Graph {
	t.Helper()
	def, err := hclflow.Parse("main.hcl", []byte(src))
	require.NoError(t, err)

	reg := registry.New()
	reg.RegisterModules(app.CoreModules(io.Discard)...)
	g, err := graph.Build(context.Background(), def, reg)
	require.NoError(t, err)
	return g
}

func vertex(t *testing.T, res *scheduler.RunResult, id string) *scheduler.VertexResult {
	t.Helper()
	vr, ok := res.Vertex(id)
	require.True(t, ok, "no result for vertex %s", id)
	return vr
}
