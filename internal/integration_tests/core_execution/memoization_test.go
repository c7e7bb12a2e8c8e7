package core_execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// Test for: re-running an unchanged graph serves non-volatile outputs from
// the memo while volatile outputs are rebuilt.
func TestCoreExecution_SecondRunIsMemoized(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g := buildHCL(t, `
		vertex "text" "a" {
			value = "hello"
		}

		vertex "print" "p" {
			value = vertex.text.a.text
		}
	`)
	opts := scheduler.Options{Workers: 2}

	// --- Act ---
	first, err := scheduler.Run(context.Background(), g, opts)
	require.NoError(t, err)
	second, err := scheduler.Run(context.Background(), g, opts)
	require.NoError(t, err)

	// --- Assert ---
	assert.False(t, vertex(t, first, "text.a").Cached)
	assert.Equal(t, 1, vertex(t, first, "text.a").Builds)

	text := vertex(t, second, "text.a")
	assert.True(t, text.Cached)
	assert.Equal(t, 0, text.Builds)
	assert.True(t, text.Outputs["text"].RawEquals(cty.StringVal("hello")))

	printed := vertex(t, second, "print.p")
	assert.False(t, printed.Cached, "volatile outputs are never memoized")
	assert.Equal(t, 1, printed.Builds)
}
