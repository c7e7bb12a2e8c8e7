package contextstore

import (
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Store is a concurrency-safe mapping from context key to value.
type Store struct {
	mu     sync.RWMutex
	values map[string]cty.Value
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: make(map[string]cty.Value)}
}

// Write stores value under key. With appendMode false any existing value is
// replaced. With appendMode true the existing value is coerced to a tuple (a
// non-sequence value becomes its single element, an absent key becomes the
// empty tuple) and value is appended to it.
func (s *Store) Write(key string, value cty.Value, appendMode bool) cty.Value {
	if value == cty.NilVal {
		value = cty.NullVal(cty.DynamicPseudoType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !appendMode {
		s.values[key] = value
		return value
	}

	existing, ok := s.values[key]
	var elems []cty.Value
	if ok {
		elems = asElements(existing)
	}
	// asElements always returns a fresh slice, so earlier readers keep their view.
	elems = append(elems, value)
	result := cty.TupleVal(elems)
	s.values[key] = result
	return result
}

// Read returns the value stored under key. The boolean is false when the key
// has never been written during this run; an absent key is distinct from a
// key holding a null or empty value.
func (s *Store) Read(key string) (cty.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the written keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every key/value pair currently stored.
func (s *Store) Snapshot() map[string]cty.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]cty.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// asElements converts v into a new slice of elements. Known, non-null lists,
// tuples and sets are flattened one level; anything else is wrapped.
func asElements(v cty.Value) []cty.Value {
	ty := v.Type()
	if v.IsKnown() && !v.IsNull() && (ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) {
		elems := make([]cty.Value, 0, v.LengthInt()+1)
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			elems = append(elems, ev)
		}
		return elems
	}
	return []cty.Value{v}
}
