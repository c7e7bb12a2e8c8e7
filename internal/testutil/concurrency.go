package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/flowgrid/internal/component"
	"github.com/zclconf/go-cty/cty"
)

// Sleeper is a component for concurrency tests. Every build sleeps for a
// fixed duration and records its start and end time per vertex.
type Sleeper struct {
	component.Func

	mu             sync.Mutex
	ExecutionTimes map[string]*ExecutionRecord
	sleepDuration  time.Duration
}

// NewSleeper creates a "sleeper" component. Its single input "after" is
// optional and exists only to create edges.
func NewSleeper(sleep time.Duration) *Sleeper {
	s := &Sleeper{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
	}
	s.Func = component.Func{
		Desc: component.Descriptor{
			Name:    "sleeper",
			Inputs:  []component.InputDefinition{{Name: "after", Type: cty.DynamicPseudoType}},
			Outputs: []component.OutputDefinition{{Name: "done", Type: cty.Bool}},
		},
		Outputs: map[string]component.BuildFunc{"done": s.build},
	}
	return s
}

func (s *Sleeper) build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	start := time.Now()
	select {
	case <-time.After(s.sleepDuration):
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	}
	end := time.Now()

	s.mu.Lock()
	s.ExecutionTimes[bc.Vertex()] = &ExecutionRecord{Start: start, End: end}
	s.mu.Unlock()
	return cty.True, nil
}

// Record returns the execution record of a vertex.
func (s *Sleeper) Record(vertex string) *ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ExecutionTimes[vertex]
}
