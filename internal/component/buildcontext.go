package component

import (
	"sync"

	"github.com/vk/flowgrid/internal/contextstore"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/zclconf/go-cty/cty"
)

// ContextWrite is a context store write requested by a build.
type ContextWrite struct {
	Key    string
	Value  cty.Value
	Append bool
}

// BuildContext gives a build access to the run's side-channels. Writes are
// buffered and committed by the scheduler once the vertex has finished, so
// activation is always ordered after the write completes.
type BuildContext struct {
	vertex string
	store  *contextstore.Store
	shared *sharedcache.Cache

	mu     sync.Mutex
	writes []ContextWrite
	reads  map[string]pinned
}

type pinned struct {
	value cty.Value
	ok    bool
}

// NewBuildContext creates the build context for one vertex activation.
// store and shared may be nil in tests that do not exercise them.
func NewBuildContext(vertex string, store *contextstore.Store, shared *sharedcache.Cache) *BuildContext {
	if store == nil {
		store = contextstore.New()
	}
	if shared == nil {
		shared = sharedcache.New()
	}
	return &BuildContext{vertex: vertex, store: store, shared: shared}
}

// Vertex returns the id of the vertex being built.
func (b *BuildContext) Vertex() string { return b.vertex }

// Shared returns the process-wide shared resource cache.
func (b *BuildContext) Shared() *sharedcache.Cache { return b.shared }

// Read returns the committed context value under key; false means absent.
// The first read of a key pins its result for the rest of the activation, so
// every output of the vertex sees the same value.
func (b *BuildContext) Read(key string) (cty.Value, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.reads[key]; ok {
		return p.value, p.ok
	}
	v, ok := b.store.Read(key)
	if b.reads == nil {
		b.reads = make(map[string]pinned)
	}
	b.reads[key] = pinned{value: v, ok: ok}
	return v, ok
}

// Write requests a context store write. It takes effect after the build.
func (b *BuildContext) Write(key string, value cty.Value, appendMode bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, ContextWrite{Key: key, Value: value, Append: appendMode})
}

// Writes drains and returns the buffered writes in request order.
func (b *BuildContext) Writes() []ContextWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.writes
	b.writes = nil
	return w
}
