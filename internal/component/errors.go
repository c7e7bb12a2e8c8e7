package component

import "fmt"

// ValidationError reports a bad input value for a vertex. It is recorded in
// the vertex status and never aborts the run.
type ValidationError struct {
	Vertex string
	Input  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("vertex '%s': invalid input '%s': %v", e.Vertex, e.Input, e.Err)
	}
	return fmt.Sprintf("vertex '%s': validation failed: %v", e.Vertex, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildError reports a failure inside a component's build operation.
type BuildError struct {
	Vertex string
	Output string
	Err    error
	// Panicked is set when the build panicked and was recovered.
	Panicked bool
}

func (e *BuildError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("vertex '%s': output '%s' panicked: %v", e.Vertex, e.Output, e.Err)
	}
	return fmt.Sprintf("vertex '%s': failed to build output '%s': %v", e.Vertex, e.Output, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
