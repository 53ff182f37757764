// Package harness runs scripted planner scenarios for conformance
// testing: each scenario compiles a CUE catalog, plays a sequence of
// graph mutations against a fresh planner, and checks the rates the
// flow solver settles on. Golden files capture the full mutation trace
// and final rates for regression comparison.
package harness

import (
	"fmt"

	"github.com/beltline/beltline/internal/compiler"
	"github.com/beltline/beltline/internal/engine"
	"github.com/beltline/beltline/internal/plan"
)

// TraceEvent records one executed step and the revision the planner
// reached after it.
type TraceEvent struct {
	Op      string
	Subject string
	Rev     int64
}

// Result is the outcome of running a scenario.
type Result struct {
	// Rates maps node alias to its stored target after the final
	// solve. A node whose target is still unset reports 0.
	Rates map[string]float64

	// Trace lists every executed step in order.
	Trace []TraceEvent

	// Diagnostics from the final solve.
	Passes    int
	Converged bool
	HasCycle  bool
}

// seqGenerator produces deterministic node and edge IDs so scenario
// runs are reproducible without pre-counting IDs.
type seqGenerator struct {
	n int
}

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

// Run executes a scenario against a fresh planner and returns the
// result. Each scenario compiles its own catalog and starts from an
// empty graph, so scenarios are fully isolated from each other.
func Run(scenario *Scenario) (*Result, error) {
	cat, errs := compiler.LoadDir(scenario.Catalog, compiler.FailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("compile catalog %s: %w", scenario.Catalog, errs[0])
	}

	mode := engine.AggregateSum
	if scenario.Mode != "" {
		parsed, err := engine.ParseAggregateMode(scenario.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	planner := engine.NewPlanner(cat, &seqGenerator{}, engine.WithAggregateMode(mode))

	ids := make(map[string]string) // alias -> node ID

	result := &Result{Rates: make(map[string]float64)}
	for i, step := range scenario.Steps {
		subject, err := runStep(planner, &step, ids)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Op:      step.Op,
			Subject: subject,
			Rev:     planner.Revision(),
		})
	}

	res := planner.LastResult()
	result.Passes = res.Passes
	result.Converged = res.Converged
	result.HasCycle = res.HasCycle

	for alias, id := range ids {
		n, ok := planner.Node(id)
		if !ok {
			continue // removed by a remove_node step
		}
		if n.TargetPerMin != nil {
			result.Rates[alias] = *n.TargetPerMin
		} else {
			result.Rates[alias] = 0
		}
	}

	return result, nil
}

// runStep executes one mutation and returns the trace subject.
func runStep(p *engine.Planner, step *Step, ids map[string]string) (string, error) {
	lookup := func(alias string) (string, error) {
		id, ok := ids[alias]
		if !ok {
			return "", fmt.Errorf("unknown alias %q", alias)
		}
		return id, nil
	}

	switch step.Op {
	case OpAddNode:
		n, err := p.AddNode(step.Recipe, step.X, step.Y)
		if err != nil {
			return "", err
		}
		ids[step.Alias] = n.ID
		return step.Alias, nil

	case OpAddEdge:
		from, err := lookup(step.From)
		if err != nil {
			return "", err
		}
		to, err := lookup(step.To)
		if err != nil {
			return "", err
		}
		if _, err := p.AddEdge(from, to, step.Item); err != nil {
			return "", err
		}
		return edgeSubject(step), nil

	case OpRemoveEdge:
		from, err := lookup(step.From)
		if err != nil {
			return "", err
		}
		to, err := lookup(step.To)
		if err != nil {
			return "", err
		}
		for _, e := range p.Edges() {
			if e.FromNode == from && e.ToNode == to && e.Item == step.Item {
				p.RemoveEdge(e.ID)
				return edgeSubject(step), nil
			}
		}
		return "", fmt.Errorf("no edge %s", edgeSubject(step))

	case OpRemoveNode:
		id, err := lookup(step.Node)
		if err != nil {
			return "", err
		}
		p.RemoveNode(id)
		return step.Node, nil

	case OpSetTarget:
		id, err := lookup(step.Node)
		if err != nil {
			return "", err
		}
		if err := p.SetTarget(id, step.Rate); err != nil {
			return "", err
		}
		return step.Node, nil

	case OpSetMode:
		mode, err := engine.ParseAggregateMode(step.Mode)
		if err != nil {
			return "", err
		}
		p.SetAggregateMode(mode)
		return step.Mode, nil
	}

	return "", fmt.Errorf("unknown op %q", step.Op)
}

func edgeSubject(step *Step) string {
	return fmt.Sprintf("%s->%s %s", step.From, step.To, step.Item)
}

var _ plan.IDGenerator = (*seqGenerator)(nil)
