// Package catalog serves the list of component types shown to users. The
// list is built once and kept in the shared resource cache until a setting
// changes.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/settings"
	"github.com/vk/flowgrid/internal/sharedcache"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// CacheKey is the shared cache entry holding the built catalog.
const CacheKey = "catalog.components"

// Input describes one component input.
type Input struct {
	Name       string                   `json:"name"`
	Type       string                   `json:"type"`
	Required   bool                     `json:"required"`
	Default    *ctyjson.SimpleJSONValue `json:"default,omitempty"`
	ContextKey bool                     `json:"context_key,omitempty"`
	Advanced   bool                     `json:"advanced,omitempty"`
	Secret     bool                     `json:"secret,omitempty"`
	Info       string                   `json:"info,omitempty"`
}

// Output describes one component output.
type Output struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Volatile bool   `json:"volatile,omitempty"`
}

// Entry describes one component type.
type Entry struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Beta        bool     `json:"beta,omitempty"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
}

// Snapshot is the catalog as built for the settings current at build time.
type Snapshot struct {
	Locale     string  `json:"locale"`
	Components []Entry `json:"components"`

	generation uint64
}

// Catalog builds snapshots from a registry.
type Catalog struct {
	reg      *registry.Registry
	shared   *sharedcache.Cache
	settings *settings.Settings

	// generation counts settings changes. A snapshot stamped with an older
	// generation was built from settings that no longer hold.
	generation atomic.Uint64
}

// maxRebuilds bounds Snapshot retries while settings keep changing.
const maxRebuilds = 3

// New creates a catalog and registers a settings hook dropping the cached
// snapshot on every change.
func New(reg *registry.Registry, shared *sharedcache.Cache, s *settings.Settings) *Catalog {
	c := &Catalog{reg: reg, shared: shared, settings: s}
	s.OnChange(func(ctx context.Context, name, _, _ string) {
		ctxlog.FromContext(ctx).Debug("Invalidating component catalog.", "setting", name)
		c.generation.Add(1)
		c.shared.Invalidate(CacheKey)
	})
	return c
}

// Snapshot returns the cached catalog, building it on a miss. A snapshot
// whose build raced with a settings change is dropped and rebuilt.
func (c *Catalog) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	for i := 0; i < maxRebuilds; i++ {
		v, err := c.shared.GetOrCreate(ctx, CacheKey, func(ctx context.Context) (any, error) {
			return c.build(ctx), nil
		})
		if err != nil {
			return nil, err
		}
		var ok bool
		snap, ok = v.(*Snapshot)
		if !ok {
			return nil, fmt.Errorf("shared cache entry '%s' holds %T, not a catalog snapshot", CacheKey, v)
		}
		if snap.generation == c.generation.Load() {
			return snap, nil
		}
		ctxlog.FromContext(ctx).Debug("Dropping stale component catalog.", "generation", snap.generation)
		c.shared.InvalidateIf(CacheKey, snap)
	}
	return snap, nil
}

func (c *Catalog) build(ctx context.Context) *Snapshot {
	gen := c.generation.Load()
	showBeta := c.settings.Bool(settings.ShowBeta)
	locale, _ := c.settings.Get(settings.Locale)

	snap := &Snapshot{Locale: locale, Components: []Entry{}, generation: gen}
	for _, d := range c.reg.Descriptors() {
		if d.Beta && !showBeta {
			continue
		}
		snap.Components = append(snap.Components, entryFor(d))
	}
	ctxlog.FromContext(ctx).Debug("Built component catalog.", "components", len(snap.Components), "show_beta", showBeta)
	return snap
}

func entryFor(d *component.Descriptor) Entry {
	e := Entry{
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Description: d.Description,
		Beta:        d.Beta,
		Inputs:      make([]Input, 0, len(d.Inputs)),
		Outputs:     make([]Output, 0, len(d.Outputs)),
	}
	if e.DisplayName == "" {
		e.DisplayName = d.Name
	}
	for _, in := range d.Inputs {
		i := Input{
			Name:       in.Name,
			Type:       in.Type.FriendlyName(),
			Required:   in.Required,
			ContextKey: in.ContextKey,
			Advanced:   in.Advanced,
			Secret:     in.Secret,
			Info:       in.Info,
		}
		if in.Default != nil {
			i.Default = &ctyjson.SimpleJSONValue{Value: *in.Default}
		}
		e.Inputs = append(e.Inputs, i)
	}
	for _, out := range d.Outputs {
		e.Outputs = append(e.Outputs, Output{Name: out.Name, Type: out.Type.FriendlyName(), Volatile: out.Volatile})
	}
	return e
}
