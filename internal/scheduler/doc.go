// Package scheduler executes a built graph: it decides which vertices are
// ready, hands them to a pool of workers, commits their context writes and
// drives the activation protocol until the graph settles.
//
// # Why Scheduler Exists
//
// Components are independent units that only know their own inputs. The
// scheduler is what turns a graph of them into a run:
//   - **Dependency Order:** A vertex starts only after every edge source in
//     the same wave has finished.
//   - **Parallelism:** Independent vertices are built concurrently on a
//     bounded worker pool.
//   - **Memoization:** Unchanged inputs are served from each vertex's memo
//     table instead of being rebuilt.
//   - **Side-Channel Propagation:** Context writes re-activate the vertices
//     that read the written key.
//
// # How It Works
//
// A run is a sequence of waves. Wave 0 contains every vertex. For each wave:
//  1. Count, for every member, the distinct edge sources that are members too
//  2. Queue the members with no pending sources
//  3. Resolve the inputs of the head of the queue, fingerprint them and send
//     the task to a worker
//  4. When a result comes back, record the outcome, commit context writes
//     and activate interested vertices into the next wave
//  5. Release the finished vertex's successors and repeat until the wave is
//     drained
//
// The next wave is the set of activated vertices plus everything reachable
// from them through edges. The run ends when no wave is pending. A run that
// needs more than Options.MaxWaves propagation waves is aborted with a
// *StalledPropagationError.
//
// # Ownership
//
// A single coordinator goroutine owns dependency counters, wave membership
// and every context store commit. Workers only execute builds; they never
// touch scheduling state. Because writes are committed by the coordinator
// after the writer's build returned, an activated vertex always observes the
// write that activated it.
//
// # Failure Semantics
//
// A failed vertex never aborts the run. Its dependents through edges into
// non-optional inputs are reported Blocked; dependents through optional
// inputs run with the input's default or null. When ctx is cancelled,
// running builds observe ctx.Done() and every vertex that has not started is
// reported Cancelled.
package scheduler
