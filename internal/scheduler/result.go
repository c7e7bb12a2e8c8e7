package scheduler

import (
	"encoding/json"
	"time"

	"github.com/vk/flowgrid/internal/graph"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// VertexResult is the final outcome of one vertex in a run.
type VertexResult struct {
	ID        string
	Component string
	Status    graph.Status
	Err       error
	Outputs   map[string]cty.Value
	IsState   bool

	// Cached reports whether the last activation was served entirely from
	// memoized outputs.
	Cached bool
	// Builds counts output builds over every activation in the run.
	Builds int
	// Activations counts how many times the vertex was executed.
	Activations int
}

// MarshalJSON renders outputs as plain JSON values.
func (v *VertexResult) MarshalJSON() ([]byte, error) {
	out := struct {
		ID          string                             `json:"id"`
		Component   string                             `json:"component"`
		Status      graph.Status                       `json:"status"`
		Error       string                             `json:"error,omitempty"`
		Outputs     map[string]ctyjson.SimpleJSONValue `json:"outputs,omitempty"`
		IsState     bool                               `json:"is_state"`
		Cached      bool                               `json:"cached"`
		Builds      int                                `json:"builds"`
		Activations int                                `json:"activations"`
	}{
		ID:          v.ID,
		Component:   v.Component,
		Status:      v.Status,
		IsState:     v.IsState,
		Cached:      v.Cached,
		Builds:      v.Builds,
		Activations: v.Activations,
		Outputs:     simpleValues(v.Outputs),
	}
	if v.Err != nil {
		out.Error = v.Err.Error()
	}
	return json.Marshal(out)
}

// RunResult is the outcome of a run, with vertices in topological order.
type RunResult struct {
	RunID    string
	Waves    int
	Duration time.Duration
	Vertices []*VertexResult

	// Context is the final content of the run's context store.
	Context map[string]cty.Value

	byID map[string]*VertexResult
}

// Vertex returns the result of the vertex with the given id.
func (r *RunResult) Vertex(id string) (*VertexResult, bool) {
	v, ok := r.byID[id]
	return v, ok
}

// Failed returns every vertex that did not succeed.
func (r *RunResult) Failed() []*VertexResult {
	var out []*VertexResult
	for _, v := range r.Vertices {
		if v.Status != graph.Succeeded {
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r *RunResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RunID      string                             `json:"run_id"`
		Waves      int                                `json:"waves"`
		DurationMS int64                              `json:"duration_ms"`
		Vertices   []*VertexResult                    `json:"vertices"`
		Context    map[string]ctyjson.SimpleJSONValue `json:"context"`
	}{
		RunID:      r.RunID,
		Waves:      r.Waves,
		DurationMS: r.Duration.Milliseconds(),
		Vertices:   r.Vertices,
		Context:    simpleValues(r.Context),
	})
}

func simpleValues(in map[string]cty.Value) map[string]ctyjson.SimpleJSONValue {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]ctyjson.SimpleJSONValue, len(in))
	for k, v := range in {
		out[k] = ctyjson.SimpleJSONValue{Value: v}
	}
	return out
}

func (r *run) result(runID string, waves int, d time.Duration) *RunResult {
	res := &RunResult{
		RunID:    runID,
		Waves:    waves,
		Duration: d,
		Context:  r.store.Snapshot(),
		byID:     make(map[string]*VertexResult, r.g.Len()),
	}
	for _, v := range r.g.Vertices() {
		status, err := v.Status()
		vr := &VertexResult{
			ID:        v.Key(),
			Component: v.Descriptor().Name,
			Status:    status,
			Err:       err,
			Outputs:   v.Outputs(),
			IsState:   v.IsState(),
		}
		if st, ok := r.stats[v.Key()]; ok {
			vr.Cached = st.cached
			vr.Builds = st.builds
			vr.Activations = st.activations
		}
		res.Vertices = append(res.Vertices, vr)
		res.byID[vr.ID] = vr
	}
	return res
}
