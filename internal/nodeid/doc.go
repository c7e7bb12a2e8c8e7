// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for vertex
identifiers within a flow, based on the canonical format `component.name`.

Output references extend the address with a third segment naming one of the
component's outputs, e.g. `text.greeting.text`.

This package enforces the identifier schema and centralizes all
formatting and parsing logic.
*/
package nodeid
