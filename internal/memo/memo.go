// Package memo holds per-vertex output memoization entries and the input
// fingerprint that decides whether an entry can be reused.
package memo

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vk/flowgrid/internal/component"
	"github.com/zclconf/go-cty/cty"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// Entry is the last computed value of one output and the fingerprint of the
// inputs it was computed from. Writes are the context writes the build made;
// they are replayed on a hit because the context store lives for one run.
type Entry struct {
	Fingerprint uint64
	Value       cty.Value
	Writes      []component.ContextWrite
}

// Table holds the entries of a single vertex, keyed by output name. It
// outlives individual runs so that unchanged inputs are not recomputed.
type Table struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Lookup returns the memoized entry for output if its fingerprint matches.
func (t *Table) Lookup(output string, fingerprint uint64) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[output]
	if !ok || e.Fingerprint != fingerprint {
		return Entry{}, false
	}
	return e, true
}

// Store records value and the context writes of its build as the result of
// output for the given fingerprint.
func (t *Table) Store(output string, fingerprint uint64, value cty.Value, writes []component.ContextWrite) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[output] = Entry{Fingerprint: fingerprint, Value: value, Writes: writes}
}

// Forget drops the entry for output, or every entry when no output is given.
func (t *Table) Forget(outputs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(outputs) == 0 {
		t.entries = make(map[string]Entry)
		return
	}
	for _, o := range outputs {
		delete(t.entries, o)
	}
}

// Len returns the number of stored entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Fingerprint derives a stable identity for a set of resolved inputs.
//
// The inputs are packed into a cty object and serialized with the cty
// msgpack encoding using a dynamic type, so both the value and its type take
// part in the hash. Object attributes and map keys are encoded in sorted
// order, which makes two input sets equal exactly when they hold the same
// names with equal values of equal types.
func Fingerprint(inputs map[string]cty.Value) (uint64, error) {
	obj := cty.EmptyObjectVal
	if len(inputs) > 0 {
		attrs := make(map[string]cty.Value, len(inputs))
		for k, v := range inputs {
			if v == cty.NilVal {
				v = cty.NullVal(cty.DynamicPseudoType)
			}
			attrs[k] = v
		}
		obj = cty.ObjectVal(attrs)
	}

	b, err := ctymsgpack.Marshal(obj, cty.DynamicPseudoType)
	if err != nil {
		return 0, fmt.Errorf("failed to encode inputs for fingerprint: %w", err)
	}
	return xxhash.Sum64(b), nil
}
