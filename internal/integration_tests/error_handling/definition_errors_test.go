package error_handling

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/hclflow"
	"github.com/vk/flowgrid/internal/registry"
)

// Test for: structural problems are rejected before anything runs.
func TestErrorHandling_DefinitionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hcl  string
		want string
	}{
		{
			name: "unknown component",
			hcl:  `vertex "teleport" "x" {}`,
			want: "teleport",
		},
		{
			name: "required input without source",
			hcl:  `vertex "redis_chat" "m" {}`,
			want: "session_id",
		},
		{
			name: "unknown output",
			hcl: `
				vertex "text" "a" {}
				vertex "print" "p" {
					value = vertex.text.a.nope
				}
			`,
			want: "nope",
		},
		{
			name: "edge cycle",
			hcl: `
				vertex "text" "a" {
					value = vertex.text.b.text
				}
				vertex "text" "b" {
					value = vertex.text.a.text
				}
			`,
			want: "cycle",
		},
	}

	reg := registry.New()
	reg.RegisterModules(app.CoreModules(io.Discard)...)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			def, err := hclflow.Parse("main.hcl", []byte(tc.hcl))
			require.NoError(t, err)

			// --- Act ---
			_, err = graph.Build(context.Background(), def, reg)

			// --- Assert ---
			var defErr *graph.DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// Test for: invalid HCL is rejected by the loader.
func TestErrorHandling_InvalidHCL(t *testing.T) {
	t.Parallel()

	_, err := hclflow.Parse("main.hcl", []byte(`vertex "text" "a" {`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL file")
}
