package engine

import "sync/atomic"

// Clock is a monotonic revision counter for graph mutations.
//
// Every applied recompute bumps the revision, and change listeners
// receive the new value. External collaborators (a debounced autosaver,
// a renderer) use it to drop stale notifications: if the revision they
// captured is behind the planner's current one, a newer snapshot is
// already on its way.
//
// Safe for concurrent readers, though the Planner's single-owner
// discipline means only one goroutine advances it.
type Clock struct {
	rev atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new revision.
func (c *Clock) Next() int64 {
	return c.rev.Add(1)
}

// Current returns the latest revision without advancing.
func (c *Clock) Current() int64 {
	return c.rev.Load()
}
