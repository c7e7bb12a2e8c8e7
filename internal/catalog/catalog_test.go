package catalog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/catalog"
	"github.com/vk/flowgrid/internal/settings"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/vk/flowgrid/internal/testutil"
)

func newCatalog(t *testing.T) (*catalog.Catalog, *settings.Settings, *sharedcache.Cache) {
	t.Helper()
	beta := testutil.Echo("experimental", nil)
	beta.Desc.Beta = true
	reg := testutil.NewRegistry(testutil.Echo("echo", nil), testutil.Writer("writer", nil, false), beta)

	s, err := settings.New(nil)
	require.NoError(t, err)
	shared := sharedcache.New()
	return catalog.New(reg, shared, s), s, shared
}

func names(snap *catalog.Snapshot) []string {
	var out []string
	for _, e := range snap.Components {
		out = append(out, e.Name)
	}
	return out
}

func TestSnapshot_HidesBetaByDefault(t *testing.T) {
	t.Parallel()
	c, _, _ := newCatalog(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "writer"}, names(snap))
	assert.Equal(t, "en", snap.Locale)
}

func TestSnapshot_CachedUntilSettingsChange(t *testing.T) {
	t.Parallel()
	c, s, shared := newCatalog(t)
	ctx := context.Background()

	first, err := c.Snapshot(ctx)
	require.NoError(t, err)
	again, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Contains(t, shared.Keys(), catalog.CacheKey)

	require.NoError(t, s.Set(ctx, settings.ShowBeta, "true"))
	assert.True(t, sharedcache.IsMiss(shared.Get(catalog.CacheKey)), "a settings change drops the cached catalog")

	withBeta, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, withBeta)
	assert.Equal(t, []string{"echo", "experimental", "writer"}, names(withBeta))

	require.NoError(t, s.Set(ctx, settings.Locale, "de"))
	localized, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "de", localized.Locale)
}

func TestSnapshot_LateStoreFromOlderSettingsIsRebuilt(t *testing.T) {
	t.Parallel()
	c, s, shared := newCatalog(t)
	ctx := context.Background()

	before, err := c.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, settings.ShowBeta, "true"))
	// A build that read the old settings finishes after the change hook ran.
	shared.Set(catalog.CacheKey, before)

	after, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, []string{"echo", "experimental", "writer"}, names(after))

	again, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, after, again)
}

func TestSnapshot_JSON(t *testing.T) {
	t.Parallel()
	c, _, _ := newCatalog(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded struct {
		Components []struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			Inputs      []struct {
				Name     string `json:"name"`
				Type     string `json:"type"`
				Required bool   `json:"required"`
				Default  any    `json:"default"`
			} `json:"inputs"`
			Outputs []struct {
				Name     string `json:"name"`
				Volatile bool   `json:"volatile"`
			} `json:"outputs"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Components, 2)

	writer := decoded.Components[1]
	assert.Equal(t, "writer", writer.DisplayName)
	require.Len(t, writer.Inputs, 3)
	assert.Equal(t, "key", writer.Inputs[0].Name)
	assert.Equal(t, "string", writer.Inputs[0].Type)
	assert.True(t, writer.Inputs[0].Required)
	assert.Equal(t, false, writer.Inputs[2].Default)
	assert.True(t, writer.Outputs[0].Volatile)
}
