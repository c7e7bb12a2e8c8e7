package scheduler

import (
	"context"

	"github.com/vk/flowgrid/internal/graph"
)

// Scheduler runs a built graph to completion.
//
// # Errors
//
// Per-vertex failures are not errors of the run. They are reported in the
// returned *RunResult. The only error Run returns is a
// *StalledPropagationError, together with the partial result.
//
// # Thread-Safety
//
// A graph must not be run by two schedulers at the same time, since vertex
// state lives on the graph. Memo tables persist on the vertices, so running
// the same graph again reuses memoized outputs.
type Scheduler interface {
	Run(ctx context.Context, g *graph.Graph) (*RunResult, error)
}
