// Package graph builds the executable vertex graph from a flow definition and
// holds the state that outlives a single run.
//
// # Two Dependency Structures
//
// A Graph keeps two independent adjacency structures over the same vertex set:
//
//   - **Edges:** explicit data dependencies from one vertex output to another
//     vertex input. They fix execution order and are satisfied once per wave.
//   - **Key interest:** the context keys each vertex reads, either through a
//     context binding on one of its inputs or through an input flagged as a
//     context key. They are re-triggerable: every write to a key re-activates
//     the interested vertices.
//
// The two are never merged. Cycle detection applies to edges only; cycles
// through context keys are bounded at run time by the scheduler.
//
// # Lifecycle
//
//  1. **Build:** Build validates the definition against the registry and
//     returns a DefinitionError for any structural problem.
//  2. **Run:** the scheduler drives vertices through their statuses.
//  3. **Reuse:** memoized outputs live on the vertices, so running the same
//     Graph again skips builds whose inputs did not change.
package graph
