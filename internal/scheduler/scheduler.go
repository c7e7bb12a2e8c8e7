package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/contextstore"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/executor"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/metrics"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/vk/flowgrid/internal/task"
)

const (
	// DefaultWorkers is the worker pool size used when Options.Workers is
	// not positive.
	DefaultWorkers = 10
	// DefaultMaxWaves bounds propagation waves when Options.MaxWaves is not
	// positive. The initial topological pass is wave 0 and does not count.
	DefaultMaxWaves = 32
)

// Options configures a Default scheduler.
type Options struct {
	Workers int

	// MaxWaves is the number of propagation waves allowed after the initial
	// pass, so a run executes at most MaxWaves+1 waves.
	MaxWaves int

	// Shared is the process-wide resource cache handed to builds. A fresh
	// cache is used when nil.
	Shared *sharedcache.Cache

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Executor runs prepared vertices. Defaults to executor.New(Metrics).
	Executor executor.Executor
}

// Default is the wave-based scheduler.
type Default struct {
	opts Options
}

var _ Scheduler = (*Default)(nil)

// New creates a scheduler, filling unset options with defaults.
func New(opts Options) *Default {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxWaves <= 0 {
		opts.MaxWaves = DefaultMaxWaves
	}
	if opts.Shared == nil {
		opts.Shared = sharedcache.New()
	}
	if opts.Executor == nil {
		opts.Executor = executor.New(opts.Metrics)
	}
	return &Default{opts: opts}
}

// Run is shorthand for New(opts).Run(ctx, g).
func Run(ctx context.Context, g *graph.Graph, opts Options) (*RunResult, error) {
	return New(opts).Run(ctx, g)
}

// Run implements Scheduler.
func (s *Default) Run(ctx context.Context, g *graph.Graph) (*RunResult, error) {
	start := time.Now()
	r := &run{
		sched: s,
		g:     g,
		store: contextstore.New(),
		stats: make(map[string]*vertexStats, g.Len()),
	}
	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "run_id", runID)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting run.", "vertices", g.Len(), "workers", s.opts.Workers)

	for _, v := range g.Vertices() {
		v.Reset()
	}

	ready := make(chan *task.Task)
	done := make(chan *task.Result, s.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, ready, done, id)
		}(i)
	}

	var err error
	waves := 0
	wave := g.Vertices()
	for n := 0; len(wave) > 0; n++ {
		if n > s.opts.MaxWaves {
			pending := make([]string, len(wave))
			for i, v := range wave {
				pending[i] = v.Key()
			}
			err = &StalledPropagationError{MaxWaves: s.opts.MaxWaves, Pending: pending}
			logger.Error("Context propagation stalled.", "max_waves", s.opts.MaxWaves, "pending", len(pending))
			break
		}
		r.runWave(ctx, n, wave, ready, done)
		waves = n + 1
		if ctx.Err() != nil {
			break
		}
		wave = g.InOrder(r.next)
	}

	close(ready)
	wg.Wait()

	res := r.result(runID, waves, time.Since(start))
	s.opts.Metrics.Run(waves, res.Duration)
	logger.Info("Run finished.", "waves", waves, "duration", res.Duration, "failed", len(res.Failed()))
	return res, err
}

type vertexStats struct {
	builds      int
	activations int
	cached      bool
}

// run is the coordinator state of one Run. It is only touched by the
// goroutine executing Default.Run.
type run struct {
	sched *Default
	g     *graph.Graph
	store *contextstore.Store
	stats map[string]*vertexStats

	wave      int
	members   map[string]bool
	started   map[string]bool
	remaining map[string]int
	queue     []*graph.Vertex
	next      map[string]struct{}
}

func (r *run) runWave(ctx context.Context, n int, vertices []*graph.Vertex, ready chan<- *task.Task, done <-chan *task.Result) {
	ctx = ctxlog.With(ctx, "wave", n)
	ctxlog.FromContext(ctx).Debug("Starting wave.", "vertices", len(vertices))

	r.wave = n
	r.members = make(map[string]bool, len(vertices))
	r.started = make(map[string]bool, len(vertices))
	r.remaining = make(map[string]int, len(vertices))
	r.next = make(map[string]struct{})
	r.queue = nil

	for _, v := range vertices {
		r.members[v.Key()] = true
		v.SetStatus(graph.Pending, nil)
	}
	for _, v := range vertices {
		sources := make(map[string]struct{})
		for _, e := range r.g.Incoming(v.Key()) {
			if src := e.Source.String(); r.members[src] {
				sources[src] = struct{}{}
			}
		}
		r.remaining[v.Key()] = len(sources)
		if len(sources) == 0 {
			r.queue = append(r.queue, v)
		}
	}

	inflight := 0
	cancelled := ctx.Done()
	var next *task.Task
	for inflight > 0 || len(r.queue) > 0 || next != nil {
		if next == nil && len(r.queue) > 0 {
			v := r.queue[0]
			r.queue = r.queue[1:]
			if err := ctx.Err(); err != nil {
				r.settle(ctx, v, graph.Cancelled, err)
				continue
			}
			next = r.prepare(ctx, v)
			continue
		}

		var send chan<- *task.Task
		if next != nil {
			send = ready
		}
		select {
		case send <- next:
			inflight++
			next = nil
		case res := <-done:
			inflight--
			r.complete(ctx, res)
		case <-cancelled:
			cancelled = nil
			if next != nil {
				r.settle(ctx, next.Vertex, graph.Cancelled, ctx.Err())
				next = nil
			}
		}
	}
}

// complete records a worker result, commits its context writes and
// releases the vertex's successors.
func (r *run) complete(ctx context.Context, res *task.Result) {
	v := res.Task.Vertex
	st := r.statsFor(v)
	st.activations++
	st.builds += res.Builds
	st.cached = res.Cached

	switch {
	case res.Err == nil:
		v.SetOutputs(res.Outputs)
		v.SetStatus(graph.Succeeded, nil)
		r.sched.opts.Metrics.Outcome(graph.Succeeded.String())
		r.commit(ctx, v, res.Writes)
		r.release(v)
	case ctx.Err() != nil && errors.Is(res.Err, ctx.Err()):
		r.settle(ctx, v, graph.Cancelled, res.Err)
	default:
		r.settle(ctx, v, graph.Failed, res.Err)
	}
}

func (r *run) commit(ctx context.Context, v *graph.Vertex, writes []component.ContextWrite) {
	for _, w := range writes {
		r.store.Write(w.Key, w.Value, w.Append)
		v.MarkState()
		r.activate(ctx, w.Key, v)
	}
}

// settle records a non-successful outcome and releases the vertex's
// successors so the wave can drain.
func (r *run) settle(ctx context.Context, v *graph.Vertex, status graph.Status, err error) {
	logger := ctxlog.FromContext(ctx).With("vertex", v.Key())
	switch status {
	case graph.Failed:
		logger.Error("Vertex failed.", "error", err)
	case graph.Blocked:
		logger.Warn("Vertex blocked.", "error", err)
	default:
		logger.Debug("Vertex settled.", "status", status, "error", err)
	}
	v.SetOutputs(nil)
	v.SetStatus(status, err)
	r.sched.opts.Metrics.Outcome(status.String())
	r.release(v)
}

func (r *run) release(v *graph.Vertex) {
	for _, succ := range r.g.Successors(v.Key()) {
		k := succ.Key()
		if !r.members[k] {
			continue
		}
		r.remaining[k]--
		if r.remaining[k] == 0 {
			r.queue = append(r.queue, succ)
		}
	}
}

func (r *run) statsFor(v *graph.Vertex) *vertexStats {
	st, ok := r.stats[v.Key()]
	if !ok {
		st = &vertexStats{}
		r.stats[v.Key()] = st
	}
	return st
}
