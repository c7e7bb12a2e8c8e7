// Package app contains the core application logic. It wires the component
// registry, the shared resource cache, settings and the scheduler together,
// runs flow files and serves the HTTP API, decoupled from any specific
// entrypoint like a CLI.
package app
