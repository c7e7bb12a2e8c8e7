package listen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/contextstore"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/vk/flowgrid/modules/listen"
	"github.com/zclconf/go-cty/cty"
)

func buildOutputs(t *testing.T, bc *component.BuildContext, between func()) (value, present cty.Value) {
	t.Helper()
	c := listen.New()
	in := component.Inputs{"context_key": cty.StringVal("k")}
	ctx := context.Background()

	present, err := c.Build(ctx, bc, "present", in)
	require.NoError(t, err)
	between()
	value, err = c.Build(ctx, bc, "value", in)
	require.NoError(t, err)
	return value, present
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("written key", func(t *testing.T) {
		t.Parallel()
		store := contextstore.New()
		store.Write("k", cty.StringVal("v"), false)
		bc := component.NewBuildContext("listen.l", store, sharedcache.New())

		value, present := buildOutputs(t, bc, func() {})
		assert.True(t, present.True())
		assert.True(t, value.RawEquals(cty.StringVal("v")))
	})

	t.Run("absent key", func(t *testing.T) {
		t.Parallel()
		bc := component.NewBuildContext("listen.l", contextstore.New(), sharedcache.New())

		value, present := buildOutputs(t, bc, func() {})
		assert.False(t, present.True())
		assert.True(t, value.IsNull())
	})

	t.Run("outputs agree when a write lands between builds", func(t *testing.T) {
		t.Parallel()
		store := contextstore.New()
		bc := component.NewBuildContext("listen.l", store, sharedcache.New())

		value, present := buildOutputs(t, bc, func() {
			store.Write("k", cty.StringVal("late"), false)
		})
		assert.False(t, present.True())
		assert.True(t, value.IsNull())
	})
}
