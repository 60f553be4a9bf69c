// Package allocator implements the constrained allocation engine: it assigns
// mobile response resources to spatially distributed demand points so as to
// maximize urgency-weighted harm reduction net of travel cost, under range,
// time-budget, type-compatibility and cluster-concurrency constraints.
//
// The Planner orchestrates one solve. When an exact SolverCapability is
// injected and the problem is large enough, the instance is translated into a
// boolean assignment program and delegated; any delegate failure falls back
// silently to the deterministic GreedyAllocator. Both paths are normalized
// into the same immutable AllocationPlan shape.
//
// The Explainer enriches a plan with per-assignment rationale and alternative
// rankings; Compare diffs two plans for scenario analysis. All components are
// stateless between calls and operate on snapshot copies of their inputs, so
// independent callers may share them concurrently.
package allocator
