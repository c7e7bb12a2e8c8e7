// Package contextstore implements the per-run context side-channel: a
// key/value store that lets one vertex publish a value which other vertices
// read without an explicit edge between them.
//
// A Store is created at the start of a run and discarded when the run ends.
// Values are cty.Values and therefore immutable, so a reader always observes
// either the value before a write or the value after it, never a partial one.
package contextstore
