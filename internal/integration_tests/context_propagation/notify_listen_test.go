package context_propagation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// Test for: a notify write reaches every listener, whether it listens through
// a context-key input or a context() binding.
func TestContextPropagation_NotifyReachesListeners(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g := buildHCL(t, `
		vertex "listen" "by_key" {
			context_key = "topic"
		}

		vertex "text" "by_binding" {
			value = context("topic")
		}

		vertex "print" "downstream" {
			value = vertex.text.by_binding.text
		}

		vertex "text" "source" {
			value = "hello"
		}

		vertex "notify" "announce" {
			context_key = "topic"
			input_value = vertex.text.source.text
		}
	`)

	// --- Act ---
	res, err := scheduler.Run(context.Background(), g, scheduler.Options{Workers: 1})

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, res.Failed())
	assert.GreaterOrEqual(t, res.Waves, 2, "listeners must run again after the write")

	byKey := vertex(t, res, "listen.by_key")
	assert.True(t, byKey.Outputs["value"].RawEquals(cty.StringVal("hello")))
	assert.True(t, byKey.Outputs["present"].RawEquals(cty.True))

	byBinding := vertex(t, res, "text.by_binding")
	assert.True(t, byBinding.Outputs["text"].RawEquals(cty.StringVal("hello")))

	assert.True(t, vertex(t, res, "notify.announce").IsState)
	assert.Equal(t, graph.Succeeded, vertex(t, res, "print.downstream").Status)
}

// Test for: append-mode writes accumulate into a tuple.
func TestContextPropagation_AppendAccumulates(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g := buildHCL(t, `
		vertex "notify" "first" {
			context_key = "log"
			input_value = "a"
			append      = true
		}

		vertex "notify" "second" {
			context_key = "log"
			input_value = "b"
			append      = true
		}
	`)

	// --- Act ---
	res, err := scheduler.Run(context.Background(), g, scheduler.Options{Workers: 1})

	// --- Assert ---
	require.NoError(t, err)
	log := res.Context["log"]
	require.True(t, log.Type().IsTupleType(), "got %s", log.Type().FriendlyName())
	assert.Equal(t, 2, log.LengthInt())
}

// Test for: two vertices waking each other up forever hit the wave bound.
func TestContextPropagation_PingPongStalls(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g := buildHCL(t, `
		vertex "notify" "ping" {
			context_key = "b"
			input_value = context("a")
		}

		vertex "notify" "pong" {
			context_key = "a"
			input_value = context("b")
		}
	`)

	// --- Act ---
	res, err := scheduler.Run(context.Background(), g, scheduler.Options{Workers: 1, MaxWaves: 4})

	// --- Assert ---
	var stalled *scheduler.StalledPropagationError
	require.ErrorAs(t, err, &stalled)
	assert.Equal(t, 4, stalled.MaxWaves)
	assert.NotEmpty(t, stalled.Pending)
	require.NotNil(t, res, "the partial result is returned with the error")
	assert.Equal(t, 5, res.Waves)
}
