// Package registry provides the central "glue" for the component system.
//
// The Registry maps the component type names used in flow definitions (e.g.
// "notify") to the compiled Go components implementing them. During
// application startup every built-in module registers its components, and
// the registry is then validated so that malformed descriptors are rejected
// before any flow is built.
package registry
