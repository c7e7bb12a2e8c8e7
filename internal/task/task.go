// Package task holds the unit of work passed between the scheduler's
// coordinator and its workers.
package task

import (
	"time"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Task represents a vertex activation that is fully prepared for execution.
// Inputs are resolved and converted before the task is handed to a worker.
type Task struct {
	// Vertex is the vertex being activated.
	Vertex *graph.Vertex

	// Inputs contains the final input values for the component, with edges,
	// context bindings and defaults already applied.
	Inputs component.Inputs

	// Fingerprint identifies Inputs for output memoization.
	Fingerprint uint64

	// Wave is the propagation wave the activation belongs to.
	Wave int

	// Build is the side-channel handle passed to every output build.
	Build *component.BuildContext
}

// Result is what a worker reports back for a Task.
type Result struct {
	Task *Task

	// Outputs holds every declared output on success.
	Outputs map[string]cty.Value

	// Writes are the context writes requested by the builds. They are empty
	// when Err is set.
	Writes []component.ContextWrite

	Err error

	// Cached is true when every output was served from memoized results and
	// neither Validate nor Build ran.
	Cached bool

	// Builds is the number of output builds that ran.
	Builds int

	Duration time.Duration
}

// ID returns the id of the vertex the result belongs to.
func (r *Result) ID() string { return r.Task.Vertex.Key() }
