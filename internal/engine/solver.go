package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/plan"
)

// AggregateMode selects how multiple consumers' demands combine on one
// producer. The mode is global to a solve, never per-edge.
type AggregateMode string

const (
	// AggregateSum adds every consumer's demand together: one machine
	// group must feed all of its consumers at once.
	AggregateSum AggregateMode = "sum"

	// AggregateMax sizes the producer for its hungriest single consumer
	// instead of total fan-out.
	AggregateMax AggregateMode = "max"
)

// ParseAggregateMode validates a mode string from a flag or document.
func ParseAggregateMode(s string) (AggregateMode, error) {
	switch AggregateMode(s) {
	case AggregateSum, AggregateMax:
		return AggregateMode(s), nil
	}
	return "", fmt.Errorf("invalid aggregate mode %q: must be %q or %q", s, AggregateSum, AggregateMax)
}

// MaxPasses is the hard cap on solver iterations. Acyclic graphs
// converge within the length of their longest dependency chain; cyclic
// graphs stop here with best-effort values. The cap is the contract,
// not a tunable.
const MaxPasses = 10

// Tolerance is the numeric threshold below which two rates are
// considered equal.
const Tolerance = 1e-6

// Result is the outcome of one solve.
//
// Targets holds only the nodes whose rounded rate differs from the
// stored value by more than Tolerance, so applying a Result is cheap
// and re-applying an unchanged graph is a no-op.
//
// Converged and HasCycle are diagnostics. Neither blocks anything:
// a non-converged solve still yields usable best-effort rates.
type Result struct {
	Targets   map[string]float64
	Passes    int
	Converged bool
	HasCycle  bool
}

// Solve computes a self-consistent assignment of target rates for
// every node, given the edges' demand obligations and the global
// aggregate mode.
//
// Fixed-point iteration: each pass derives every edge's demand from
// the consumers' current working rates, aggregates per producer, and
// batch-applies the changes. Passes repeat until nothing moves by more
// than Tolerance or MaxPasses is hit. A single topological pass would
// not do: the graph may be cyclic, and even in a DAG a producer's rate
// depends on consumer rates that are themselves being updated.
//
// Root nodes (no outgoing edges) are never overwritten - no edge
// imposes an obligation on them - so a user-entered target on a root
// survives any number of solves, subject only to rounding.
func Solve(nodes map[string]plan.Node, edges []plan.Edge, cat *catalog.Catalog, mode AggregateMode) Result {
	working := make(map[string]float64, len(nodes))
	for id, n := range nodes {
		if n.TargetPerMin != nil {
			working[id] = *n.TargetPerMin
		} else {
			working[id] = 0
		}
	}

	passes := 0
	converged := false
	for pass := 0; pass < MaxPasses; pass++ {
		passes = pass + 1

		// Accumulate demand per producer across all outgoing edges.
		demands := make(map[string]float64)
		demanded := make(map[string]bool)
		for _, e := range edges {
			d, ok := edgeDemand(e, nodes, cat, working)
			if !ok {
				continue
			}
			if !demanded[e.FromNode] {
				demanded[e.FromNode] = true
				demands[e.FromNode] = d
				continue
			}
			if mode == AggregateMax {
				if d > demands[e.FromNode] {
					demands[e.FromNode] = d
				}
			} else {
				demands[e.FromNode] += d
			}
		}

		changed := false
		for id, d := range demands {
			if math.Abs(d-working[id]) > Tolerance {
				working[id] = d
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}
	}

	targets := make(map[string]float64)
	for id, n := range nodes {
		rounded := roundRate(working[id])
		stored := 0.0
		if n.TargetPerMin != nil {
			stored = *n.TargetPerMin
		}
		if math.Abs(rounded-stored) > Tolerance {
			targets[id] = rounded
		}
	}

	res := Result{
		Targets:   targets,
		Passes:    passes,
		Converged: converged,
		HasCycle:  hasCycle(nodes, edges),
	}

	slog.Debug("solve finished",
		"nodes", len(nodes),
		"edges", len(edges),
		"mode", string(mode),
		"passes", res.Passes,
		"converged", res.Converged,
		"has_cycle", res.HasCycle,
		"updated", len(res.Targets),
	)

	return res
}

// edgeDemand computes the demand one edge places on its producer from
// the consumer's current working rate.
//
// Returns ok=false for modeling inconsistencies: missing endpoint,
// unknown recipe, or an item the consumer does not take or the
// producer does not make. These contribute no demand and are skipped
// silently - the UI should prevent them at creation, the solver must
// not crash on them.
func edgeDemand(e plan.Edge, nodes map[string]plan.Node, cat *catalog.Catalog, working map[string]float64) (float64, bool) {
	consumer, ok := nodes[e.ToNode]
	if !ok {
		return 0, false
	}
	producer, ok := nodes[e.FromNode]
	if !ok {
		return 0, false
	}

	consumerRecipe, ok := cat.Recipe(consumer.RecipeID)
	if !ok {
		slog.Debug("edge skipped: unknown consumer recipe", "edge", e.ID, "recipe", consumer.RecipeID)
		return 0, false
	}
	inputQty := consumerRecipe.InputQty(e.Item)
	if inputQty <= 0 {
		slog.Debug("edge skipped: item not among consumer inputs", "edge", e.ID, "item", e.Item)
		return 0, false
	}

	producerRecipe, ok := cat.Recipe(producer.RecipeID)
	if !ok {
		slog.Debug("edge skipped: unknown producer recipe", "edge", e.ID, "recipe", producer.RecipeID)
		return 0, false
	}
	if !producerRecipe.ProducesItem(e.Item) {
		slog.Debug("edge skipped: item not among producer outputs", "edge", e.ID, "item", e.Item)
		return 0, false
	}

	crafts := catalog.CraftsPerMin(working[e.ToNode], consumerRecipe, consumer.Modules)
	return inputQty * crafts, true
}

// roundRate rounds a computed rate for presentation and storage:
// values within 0.01 of an integer snap to it, everything else keeps
// one decimal place.
func roundRate(v float64) float64 {
	if nearest := math.Round(v); math.Abs(v-nearest) <= 0.01 {
		return nearest
	}
	return math.Round(v*10) / 10
}
