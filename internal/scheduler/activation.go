package scheduler

import (
	"context"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
)

// activate queues every vertex interested in key, other than the caller,
// for the next wave together with its edge descendants. A vertex that is a
// member of the current wave and has not started yet is skipped: it will
// resolve its inputs after the write and observe the new value.
func (r *run) activate(ctx context.Context, key string, caller *graph.Vertex) {
	n := 0
	for _, v := range r.g.Interested(key) {
		if v == caller {
			continue
		}
		if r.members[v.Key()] && !r.started[v.Key()] {
			continue
		}
		if r.enqueue(v) {
			n++
		}
		for _, d := range r.g.Descendants(v.Key()) {
			r.enqueue(d)
		}
	}
	r.sched.opts.Metrics.Activation(caller.Descriptor().Name, n)
	ctxlog.FromContext(ctx).Debug("Context key written.", "key", key, "writer", caller.Key(), "activated", n)
}

// enqueue adds v to the next wave. It reports false when v was already
// queued.
func (r *run) enqueue(v *graph.Vertex) bool {
	if _, ok := r.next[v.Key()]; ok {
		return false
	}
	r.next[v.Key()] = struct{}{}
	return true
}
