package core_execution

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/vk/flowgrid/internal/sharedcache"
)

// Test for: vertices talking to the same Redis share one client through the
// shared resource cache, across runs.
func TestCoreExecution_SharedClientAcrossVerticesAndRuns(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	mr := miniredis.RunT(t)
	g := buildHCL(t, fmt.Sprintf(`
		vertex "redis_chat" "first" {
			host       = %[1]q
			port       = %[2]s
			session_id = "s1"
			message    = "one"
		}

		vertex "redis_chat" "second" {
			host       = %[1]q
			port       = %[2]s
			session_id = "s1"
			message    = "two"
			role       = "assistant"
		}
	`, mr.Host(), mr.Port()))

	shared := sharedcache.New()
	t.Cleanup(func() { shared.Close(context.Background()) })
	opts := scheduler.Options{Workers: 1, Shared: shared}

	// --- Act ---
	res, err := scheduler.Run(context.Background(), g, opts)
	require.NoError(t, err)
	again, err := scheduler.Run(context.Background(), g, opts)
	require.NoError(t, err)

	// --- Assert ---
	assert.Empty(t, res.Failed())
	assert.Empty(t, again.Failed())
	assert.Len(t, shared.Keys(), 1, "one client for one address")

	got := vertex(t, again, "redis_chat.second").Outputs["messages"]
	assert.Equal(t, 4, got.LengthInt(), "both runs appended to the same history")

	stored, err := mr.List("message_store:s1")
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}
