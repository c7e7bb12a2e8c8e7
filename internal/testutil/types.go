// Package testutil provides fake components and flow builders shared by the
// engine's tests.
package testutil

import (
	"sort"
	"sync"
	"time"
)

// ExecutionRecord holds the start and end times for a single build.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Recorder counts builds per vertex and remembers their order.
type Recorder struct {
	mu     sync.Mutex
	builds map[string]int
	order  []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{builds: make(map[string]int)}
}

func (r *Recorder) record(vertex string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[vertex]++
	r.order = append(r.order, vertex)
}

// Builds returns how many builds ran for the vertex.
func (r *Recorder) Builds(vertex string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builds[vertex]
}

// Order returns the vertices in the order their builds started.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Vertices returns every vertex that built at least once, sorted.
func (r *Recorder) Vertices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.builds))
	for v := range r.builds {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
