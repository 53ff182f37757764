package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/plan"
)

// Mutation errors callers branch on.
var (
	// ErrUnknownNode is returned when a mutation names a node that is
	// not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by AddEdge when from == to.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrDuplicateEdge is returned by AddEdge when an edge with the
	// identical (from, to, item) triple already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Planner is the exclusive owner of the plan graph.
//
// All mutations go through its methods, and every mutation schedules a
// synchronous recompute of the flow solver, after which change
// listeners fire with the new revision.
//
// Single logical owner model: methods must be called from one
// goroutine (the UI/main thread in an application, one actor in a
// service). The solver itself is pure and bounded, so there is no
// cancellation and no internal locking.
type Planner struct {
	cat          *catalog.Catalog
	gen          plan.IDGenerator
	clock        *Clock
	mode         AggregateMode
	defaultTiers map[string]string // category -> preferred tier ID

	nodes map[string]plan.Node
	edges []plan.Edge

	listeners  []func(rev int64)
	lastResult Result

	// Re-entrancy coalescing: a recompute requested while one is in
	// flight sets pending instead of recursing. At most one follow-up
	// run happens; it reads the latest graph state, so intermediate
	// requests beyond the first are already covered.
	computing bool
	pending   bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithAggregateMode sets the global demand aggregation mode.
// Default is AggregateSum.
func WithAggregateMode(mode AggregateMode) Option {
	return func(p *Planner) {
		p.mode = mode
	}
}

// WithDefaultTiers sets per-category preferred machine tiers for new
// nodes. Entries naming tiers that do not exist, or that belong to a
// different category, are ignored at node creation.
func WithDefaultTiers(tiers map[string]string) Option {
	return func(p *Planner) {
		for cat, id := range tiers {
			p.defaultTiers[cat] = id
		}
	}
}

// NewPlanner creates an empty planner over the given catalog.
func NewPlanner(cat *catalog.Catalog, gen plan.IDGenerator, opts ...Option) *Planner {
	p := &Planner{
		cat:          cat,
		gen:          gen,
		clock:        NewClock(),
		mode:         AggregateSum,
		defaultTiers: make(map[string]string),
		nodes:        make(map[string]plan.Node),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers a change listener. Listeners fire after every
// applied recompute, in registration order, with the new revision.
// A listener may mutate the planner; the resulting recompute coalesces
// into a single follow-up run.
func (p *Planner) Subscribe(fn func(rev int64)) {
	p.listeners = append(p.listeners, fn)
}

// Revision returns the current graph revision.
func (p *Planner) Revision() int64 {
	return p.clock.Current()
}

// LastResult returns diagnostics from the most recent solve.
func (p *Planner) LastResult() Result {
	return p.lastResult
}

// AggregateMode returns the current global aggregation mode.
func (p *Planner) AggregateMode() AggregateMode {
	return p.mode
}

// SetAggregateMode switches the global aggregation policy and
// recomputes.
func (p *Planner) SetAggregateMode(mode AggregateMode) {
	if p.mode == mode {
		return
	}
	p.mode = mode
	p.scheduleRecompute()
}

// AddNode places a new node for the recipe at the given canvas
// position and returns it.
//
// Tier selection: the stored per-category default if it exists and is
// valid for the recipe's category, else the catalog's first tier for
// that category. Module slots are sized to the chosen tier, all empty.
// The target starts unset; the speed multiplier follows the category
// default.
func (p *Planner) AddNode(recipeID string, x, y float64) (plan.Node, error) {
	r, ok := p.cat.Recipe(recipeID)
	if !ok {
		return plan.Node{}, fmt.Errorf("add node: unknown recipe %q", recipeID)
	}

	tierID := ""
	slots := 0
	if preferred, ok := p.defaultTiers[r.Category]; ok {
		if t, ok := p.cat.Tier(preferred); ok && t.Category == r.Category {
			tierID = t.ID
			slots = t.ModuleSlots
		}
	}
	if tierID == "" {
		if tiers := p.cat.TiersFor(r.Category); len(tiers) > 0 {
			tierID = tiers[0].ID
			slots = tiers[0].ModuleSlots
		}
	}

	n := plan.Node{
		ID:                    p.gen.Generate(),
		RecipeID:              recipeID,
		X:                     x,
		Y:                     y,
		SpeedMultiplier:       catalog.DefaultSpeedMultiplier(r.Category),
		SelectedMachineTierID: tierID,
		Modules:               make([]*catalog.Module, slots),
	}
	p.nodes[n.ID] = n

	slog.Debug("node added", "node", n.ID, "recipe", recipeID, "tier", tierID)
	p.scheduleRecompute()
	return n.Clone(), nil
}

// AddEdge connects a producer's output to a consumer's input for one
// item. Self-loops and duplicate (from, to, item) triples are
// rejected; an edge whose item does not match the endpoint recipes is
// accepted (the solver ignores it) because the catalog may change out
// from under a saved plan.
func (p *Planner) AddEdge(from, to, item string) (plan.Edge, error) {
	if from == to {
		return plan.Edge{}, fmt.Errorf("add edge %s -> %s: %w", from, to, ErrSelfLoop)
	}
	if _, ok := p.nodes[from]; !ok {
		return plan.Edge{}, fmt.Errorf("add edge: from %q: %w", from, ErrUnknownNode)
	}
	if _, ok := p.nodes[to]; !ok {
		return plan.Edge{}, fmt.Errorf("add edge: to %q: %w", to, ErrUnknownNode)
	}
	for _, e := range p.edges {
		if e.FromNode == from && e.ToNode == to && e.Item == item {
			return plan.Edge{}, fmt.Errorf("add edge %s -> %s (%s): %w", from, to, item, ErrDuplicateEdge)
		}
	}

	e := plan.Edge{ID: p.gen.Generate(), FromNode: from, ToNode: to, Item: item}
	p.edges = append(p.edges, e)

	slog.Debug("edge added", "edge", e.ID, "from", from, "to", to, "item", item)
	p.scheduleRecompute()
	return e, nil
}

// RemoveEdge deletes the edge by ID. Removing a missing edge is a
// no-op without a recompute.
func (p *Planner) RemoveEdge(edgeID string) {
	for i, e := range p.edges {
		if e.ID == edgeID {
			p.edges = append(p.edges[:i], p.edges[i+1:]...)
			slog.Debug("edge removed", "edge", edgeID)
			p.scheduleRecompute()
			return
		}
	}
}

// RemoveNode deletes the node and cascades deletion of every edge
// touching it. Removing a missing node is a no-op.
func (p *Planner) RemoveNode(nodeID string) {
	if _, ok := p.nodes[nodeID]; !ok {
		return
	}
	delete(p.nodes, nodeID)

	kept := p.edges[:0]
	for _, e := range p.edges {
		if e.FromNode != nodeID && e.ToNode != nodeID {
			kept = append(kept, e)
		}
	}
	p.edges = kept

	slog.Debug("node removed", "node", nodeID)
	p.scheduleRecompute()
}

// SetTarget sets or clears a node's user-specified target rate.
// Negative values clamp to 0. nil clears the target to "derive from
// demand"; the solver seeds both nil and 0 as 0, the difference is
// display only.
func (p *Planner) SetTarget(nodeID string, value *float64) error {
	n, ok := p.nodes[nodeID]
	if !ok {
		return fmt.Errorf("set target: %q: %w", nodeID, ErrUnknownNode)
	}

	if value == nil {
		n.TargetPerMin = nil
	} else {
		v := *value
		if v < 0 {
			v = 0
		}
		n.TargetPerMin = &v
	}
	p.nodes[nodeID] = n
	p.scheduleRecompute()
	return nil
}

// UpdateNode fully replaces a node after tier/module/speed edits.
//
// A tier change resets the module list to a fresh all-empty list sized
// to the new tier's slot count; this is also enforced when the given
// module list length disagrees with the selected tier, so the
// "length == slot count" invariant holds after every update.
func (p *Planner) UpdateNode(n plan.Node) error {
	old, ok := p.nodes[n.ID]
	if !ok {
		return fmt.Errorf("update node: %q: %w", n.ID, ErrUnknownNode)
	}

	slots := 0
	if n.SelectedMachineTierID != "" {
		t, ok := p.cat.Tier(n.SelectedMachineTierID)
		if !ok {
			return fmt.Errorf("update node %s: unknown machine tier %q", n.ID, n.SelectedMachineTierID)
		}
		slots = t.ModuleSlots
	}

	updated := n.Clone()
	if old.SelectedMachineTierID != n.SelectedMachineTierID || len(updated.Modules) != slots {
		updated.Modules = make([]*catalog.Module, slots)
	}

	p.nodes[n.ID] = updated
	p.scheduleRecompute()
	return nil
}

// Node returns a copy of the node by ID.
func (p *Planner) Node(nodeID string) (plan.Node, bool) {
	n, ok := p.nodes[nodeID]
	if !ok {
		return plan.Node{}, false
	}
	return n.Clone(), true
}

// Edges returns a copy of the edge list in insertion order.
func (p *Planner) Edges() []plan.Edge {
	return append([]plan.Edge(nil), p.edges...)
}

// Snapshot returns a deep copy of the graph as a document, nodes
// sorted by ID for deterministic serialization.
func (p *Planner) Snapshot() plan.Document {
	doc := plan.Document{
		Nodes: make([]plan.Node, 0, len(p.nodes)),
		Edges: append([]plan.Edge(nil), p.edges...),
	}
	for _, n := range p.nodes {
		doc.Nodes = append(doc.Nodes, n.Clone())
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	return doc
}

// Load replaces the entire graph with the document's contents and
// recomputes once. There is no merge: import is a full-document
// replace, and a failed decode upstream must leave the previous graph
// untouched (callers decode before calling Load).
func (p *Planner) Load(doc plan.Document) {
	p.nodes = make(map[string]plan.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		p.nodes[n.ID] = n.Clone()
	}
	p.edges = append([]plan.Edge(nil), doc.Edges...)

	slog.Info("plan loaded", "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	p.scheduleRecompute()
}

// Recompute triggers a solve without a mutation. Useful after the
// catalog itself changes.
func (p *Planner) Recompute() {
	p.scheduleRecompute()
}

// scheduleRecompute runs the solver and applies its result. If a run
// is already in flight (a listener mutated the planner), the request
// coalesces into a single pending follow-up: the follow-up reads the
// graph state current at its own run time, so any number of re-entrant
// requests collapse into at most one extra solve.
func (p *Planner) scheduleRecompute() {
	if p.computing {
		p.pending = true
		return
	}
	p.computing = true
	defer func() { p.computing = false }()

	for {
		res := Solve(p.nodes, p.edges, p.cat, p.mode)
		p.apply(res)
		p.lastResult = res

		rev := p.clock.Next()
		for _, fn := range p.listeners {
			fn(rev)
		}

		if !p.pending {
			return
		}
		p.pending = false
	}
}

// apply writes the solver's proposed targets back onto the nodes.
// Only nodes present in the result are touched - the solver already
// filtered out sub-tolerance changes to avoid re-render storms.
func (p *Planner) apply(res Result) {
	for id, v := range res.Targets {
		n, ok := p.nodes[id]
		if !ok {
			continue
		}
		rate := v
		n.TargetPerMin = &rate
		p.nodes[id] = n
	}
}
