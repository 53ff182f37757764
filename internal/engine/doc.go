// Package engine contains the planner core: the fixed-point flow
// solver and the Planner, the single owner of the mutable node/edge
// graph.
//
// The solver (Solve) is a pure, synchronous function over an in-memory
// snapshot: it reads nodes, edges, and the catalog and proposes a new
// target rate per node. It never performs I/O and never returns an
// error - malformed records degrade to zero demand so one bad edge
// cannot abort recomputation for the rest of the graph.
//
// The Planner owns the graph. All mutations and recomputations run on
// one logical owner goroutine; methods are not safe for concurrent
// use. Every mutation schedules a recompute, and re-entrant requests
// (a mutation issued from inside a change listener) coalesce into at
// most one follow-up run.
package engine
