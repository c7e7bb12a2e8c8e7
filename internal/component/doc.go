// Package component defines the contract every component exposes to the
// engine: a Descriptor naming its typed inputs and outputs, a Validate
// operation run before any build, and a Build operation producing the value
// of one declared output.
//
// The engine depends only on this contract. Concrete components live under
// modules/ and register themselves with the registry.
package component
