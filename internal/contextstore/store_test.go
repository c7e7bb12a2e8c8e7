package contextstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestStore_ReplaceRoundTrip(t *testing.T) {
	t.Parallel()
	s := New()

	s.Write("k", cty.StringVal("v"), false)

	got, ok := s.Read("k")
	require.True(t, ok)
	assert.True(t, got.RawEquals(cty.StringVal("v")))

	s.Write("k", cty.StringVal("w"), false)
	got, _ = s.Read("k")
	assert.True(t, got.RawEquals(cty.StringVal("w")))
}

func TestStore_AbsentIsDistinctFromEmpty(t *testing.T) {
	t.Parallel()
	s := New()

	_, ok := s.Read("missing")
	assert.False(t, ok, "an unwritten key must report absent")

	s.Write("empty", cty.StringVal(""), false)
	got, ok := s.Read("empty")
	require.True(t, ok)
	assert.Equal(t, "", got.AsString())

	s.Write("null", cty.NilVal, false)
	got, ok = s.Read("null")
	require.True(t, ok)
	assert.True(t, got.IsNull())
}

func TestStore_Append(t *testing.T) {
	t.Parallel()

	t.Run("absent key starts a new sequence", func(t *testing.T) {
		s := New()
		s.Write("k", cty.StringVal("a"), true)
		s.Write("k", cty.StringVal("b"), true)

		got, ok := s.Read("k")
		require.True(t, ok)
		want := cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})
		assert.True(t, got.RawEquals(want), "got %#v", got)
	})

	t.Run("scalar existing value is wrapped", func(t *testing.T) {
		s := New()
		s.Write("k", cty.StringVal("first"), false)
		s.Write("k", cty.NumberIntVal(2), true)

		got, _ := s.Read("k")
		want := cty.TupleVal([]cty.Value{cty.StringVal("first"), cty.NumberIntVal(2)})
		assert.True(t, got.RawEquals(want), "got %#v", got)
	})

	t.Run("list existing value is extended", func(t *testing.T) {
		s := New()
		s.Write("k", cty.ListVal([]cty.Value{cty.StringVal("x")}), false)
		s.Write("k", cty.StringVal("y"), true)

		got, _ := s.Read("k")
		want := cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.StringVal("y")})
		assert.True(t, got.RawEquals(want), "got %#v", got)
	})

	t.Run("earlier reads are not mutated", func(t *testing.T) {
		s := New()
		s.Write("k", cty.StringVal("a"), true)
		before, _ := s.Read("k")
		s.Write("k", cty.StringVal("b"), true)

		assert.Equal(t, 1, before.LengthInt())
	})
}

func TestStore_KeysAndSnapshot(t *testing.T) {
	t.Parallel()
	s := New()
	s.Write("b", cty.True, false)
	s.Write("a", cty.False, false)

	assert.Equal(t, []string{"a", "b"}, s.Keys())

	snap := s.Snapshot()
	s.Write("c", cty.True, false)
	assert.Len(t, snap, 2)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	t.Parallel()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Write("k", cty.StringVal(fmt.Sprint(i)), true)
			_, _ = s.Read("k")
		}(i)
	}
	wg.Wait()

	got, ok := s.Read("k")
	require.True(t, ok)
	assert.Equal(t, 50, got.LengthInt())
}
