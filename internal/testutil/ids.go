package testutil

import "fmt"

// SequentialIDs generates "prefix-1", "prefix-2", ... forever.
// Unlike plan.FixedGenerator it never exhausts, which suits planner
// tests that create an unknown number of nodes and edges.
type SequentialIDs struct {
	prefix string
	n      int
}

// NewSequentialIDs creates a generator with the given prefix.
func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID in the sequence.
func (g *SequentialIDs) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
