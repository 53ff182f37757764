package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/plan"
	"github.com/beltline/beltline/internal/testutil"
)

func node(id, recipeID string, target *float64) plan.Node {
	return plan.Node{ID: id, RecipeID: recipeID, SpeedMultiplier: 1, TargetPerMin: target}
}

func applyTargets(nodes map[string]plan.Node, res Result) {
	for id, v := range res.Targets {
		n := nodes[id]
		rate := v
		n.TargetPerMin = &rate
		nodes[id] = n
	}
}

// The canonical two-node chain: widget produces 1 Widget per craft,
// gadget consumes 2 Widget per craft. A target of 30 gadgets/min means
// 30 crafts/min, so the widget node must produce 60/min.
func TestSolve_PropagatesDemandUpstream(t *testing.T) {
	cat := testutil.Catalog(t)
	nodes := map[string]plan.Node{
		"n1": node("n1", "widget", nil),
		"n2": node("n2", "gadget", testutil.FloatPtr(30)),
	}
	edges := []plan.Edge{{ID: "e1", FromNode: "n1", ToNode: "n2", Item: "Widget"}}

	res := Solve(nodes, edges, cat, AggregateSum)

	require.True(t, res.Converged)
	assert.False(t, res.HasCycle)
	assert.Equal(t, map[string]float64{"n1": 60}, res.Targets,
		"n2 keeps its explicit 30, n1 is driven to 60")
}

func TestSolve_ChainConvergesWithinDepthPasses(t *testing.T) {
	cat := testutil.Catalog(t)
	// widget -> gadget -> gizmo, target on the gizmo end.
	nodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", nil),
		"z": node("z", "gizmo", testutil.FloatPtr(10)),
	}
	edges := []plan.Edge{
		{ID: "e1", FromNode: "w", ToNode: "a", Item: "Widget"},
		{ID: "e2", FromNode: "a", ToNode: "z", Item: "Gadget"},
	}

	res := Solve(nodes, edges, cat, AggregateSum)

	require.True(t, res.Converged)
	// gizmo: 10 crafts/min needs 10 Gadget; gadget: 10 crafts/min needs 20 Widget.
	assert.Equal(t, 10.0, res.Targets["a"])
	assert.Equal(t, 20.0, res.Targets["w"])
	assert.LessOrEqual(t, res.Passes, 3, "a two-hop chain settles fast")
}

func TestSolve_SumVersusMaxAggregation(t *testing.T) {
	cat := testutil.Catalog(t)
	// One widget producer feeding a gadget node (2 Widget/craft, target
	// 30 => demand 60) and a gizmo node (1 Widget/craft, target 30 =>
	// demand 30).
	nodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", testutil.FloatPtr(30)),
		"z": node("z", "gizmo", testutil.FloatPtr(30)),
	}
	edges := []plan.Edge{
		{ID: "e1", FromNode: "w", ToNode: "a", Item: "Widget"},
		{ID: "e2", FromNode: "w", ToNode: "z", Item: "Widget"},
	}

	sum := Solve(nodes, edges, cat, AggregateSum)
	assert.Equal(t, 90.0, sum.Targets["w"], "sum adds both consumers")

	max := Solve(nodes, edges, cat, AggregateMax)
	assert.Equal(t, 60.0, max.Targets["w"], "max sizes for the hungriest consumer")
}

func TestSolve_IdempotentOnAcyclicGraphs(t *testing.T) {
	cat := testutil.Catalog(t)
	nodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", testutil.FloatPtr(30)),
		"z": node("z", "gizmo", testutil.FloatPtr(7)),
	}
	edges := []plan.Edge{
		{ID: "e1", FromNode: "w", ToNode: "a", Item: "Widget"},
		{ID: "e2", FromNode: "w", ToNode: "z", Item: "Widget"},
		{ID: "e3", FromNode: "a", ToNode: "z", Item: "Gadget"},
	}

	first := Solve(nodes, edges, cat, AggregateSum)
	applyTargets(nodes, first)

	second := Solve(nodes, edges, cat, AggregateSum)
	assert.Empty(t, second.Targets, "solving an already-solved graph changes nothing")
	assert.True(t, second.Converged)
}

func TestSolve_RootTargetPreserved(t *testing.T) {
	cat := testutil.Catalog(t)
	for _, mode := range []AggregateMode{AggregateSum, AggregateMax} {
		nodes := map[string]plan.Node{
			"root": node("root", "widget", testutil.FloatPtr(42)),
		}

		res := Solve(nodes, nil, cat, mode)
		assert.Empty(t, res.Targets, "no edge imposes an obligation on a root node (%s)", mode)
	}
}

func TestSolve_ProductivityBonusReducesUpstreamDemand(t *testing.T) {
	cat := testutil.Catalog(t)
	mods := cat.Modules()
	prod := mods[1]
	require.Equal(t, "prod-1", prod.ID)

	// gizmo with a productivity module: 30 / (1 * 1.04) = 28.846...
	// crafts/min, times 1 Widget per craft, rounded to one decimal.
	consumer := node("z", "gizmo", testutil.FloatPtr(30))
	consumer.Modules = []*catalog.Module{&prod, nil}

	nodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"z": consumer,
	}
	edges := []plan.Edge{{ID: "e1", FromNode: "w", ToNode: "z", Item: "Widget"}}

	res := Solve(nodes, edges, cat, AggregateSum)
	assert.InDelta(t, 28.8, res.Targets["w"], 1e-9)
}

func TestSolve_RoundsToTenthAwayFromIntegers(t *testing.T) {
	cat := testutil.Catalog(t)
	// gadget target 8.65: 8.65 crafts/min * 2 Widget = 17.3 exactly -
	// but float math lands near it, and the tenth-place rounding pins it.
	nodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", testutil.FloatPtr(8.65)),
	}
	edges := []plan.Edge{{ID: "e1", FromNode: "w", ToNode: "a", Item: "Widget"}}

	res := Solve(nodes, edges, cat, AggregateSum)
	assert.InDelta(t, 17.3, res.Targets["w"], 1e-9)

	// Within 0.01 of an integer snaps to the integer: 29.995 crafts
	// of gizmo demand 29.995 Widget, which snaps to 30.
	nodes = map[string]plan.Node{
		"w": node("w", "widget", nil),
		"z": node("z", "gizmo", testutil.FloatPtr(29.995)),
	}
	edges = []plan.Edge{{ID: "e1", FromNode: "w", ToNode: "z", Item: "Widget"}}

	res = Solve(nodes, edges, cat, AggregateSum)
	assert.Equal(t, 30.0, res.Targets["w"])
}

func TestSolve_SkipsMalformedEdges(t *testing.T) {
	cat := testutil.Catalog(t)
	nodes := map[string]plan.Node{
		"w": node("w", "widget", testutil.FloatPtr(5)),
		"a": node("a", "gadget", testutil.FloatPtr(30)),
		"x": node("x", "no-such-recipe", testutil.FloatPtr(10)),
	}
	edges := []plan.Edge{
		// Item the consumer does not take.
		{ID: "e1", FromNode: "w", ToNode: "a", Item: "Gadget"},
		// Item the producer does not make.
		{ID: "e2", FromNode: "a", ToNode: "w", Item: "Gizmo"},
		// Unknown consumer recipe.
		{ID: "e3", FromNode: "w", ToNode: "x", Item: "Widget"},
		// Dangling endpoint.
		{ID: "e4", FromNode: "ghost", ToNode: "a", Item: "Widget"},
	}

	res := Solve(nodes, edges, cat, AggregateSum)
	assert.Empty(t, res.Targets, "malformed edges contribute no demand and nothing crashes")
	assert.True(t, res.Converged)
}

func TestSolve_ZeroRateConsumerDoesNotStarveOthers(t *testing.T) {
	cat := testutil.Catalog(t)
	nodes := map[string]plan.Node{
		"w":    node("w", "widget", testutil.FloatPtr(99)),
		"idle": node("idle", "gadget", nil),
		"busy": node("busy", "gadget", testutil.FloatPtr(30)),
	}
	edges := []plan.Edge{
		{ID: "e1", FromNode: "w", ToNode: "idle", Item: "Widget"},
		{ID: "e2", FromNode: "w", ToNode: "busy", Item: "Widget"},
	}

	res := Solve(nodes, edges, cat, AggregateSum)
	assert.Equal(t, 60.0, res.Targets["w"],
		"the idle consumer adds zero, the busy one still gets fed")
}

func TestSolve_AllConsumersIdleDrivesProducerToZero(t *testing.T) {
	cat := testutil.Catalog(t)
	nodes := map[string]plan.Node{
		"w":    node("w", "widget", testutil.FloatPtr(99)),
		"idle": node("idle", "gadget", testutil.FloatPtr(0)),
	}
	edges := []plan.Edge{{ID: "e1", FromNode: "w", ToNode: "idle", Item: "Widget"}}

	res := Solve(nodes, edges, cat, AggregateSum)
	assert.Equal(t, 0.0, res.Targets["w"],
		"a producer whose only consumer demands nothing is driven to zero")
}

func TestSolve_NilAndZeroTargetSeedIdentically(t *testing.T) {
	cat := testutil.Catalog(t)
	edges := []plan.Edge{{ID: "e1", FromNode: "w", ToNode: "a", Item: "Widget"}}

	nilNodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", nil),
	}
	zeroNodes := map[string]plan.Node{
		"w": node("w", "widget", nil),
		"a": node("a", "gadget", testutil.FloatPtr(0)),
	}

	nilRes := Solve(nilNodes, edges, cat, AggregateSum)
	zeroRes := Solve(zeroNodes, edges, cat, AggregateSum)
	assert.Equal(t, nilRes.Targets, zeroRes.Targets)
}

func TestSolve_AmplifyingCycleStopsAtPassCap(t *testing.T) {
	cat := testutil.Catalog(t)
	// R (recycler) -> B (gadget) -> G (gizmo) -> R forms a loop whose
	// demand grows every pass; E is an external consumer anchoring
	// nonzero demand. The solver must stop at the cap with finite,
	// non-negative best-effort values.
	nodes := map[string]plan.Node{
		"R": node("R", "recycler", nil),
		"B": node("B", "gadget", nil),
		"G": node("G", "gizmo", nil),
		"E": node("E", "gadget", testutil.FloatPtr(10)),
	}
	edges := []plan.Edge{
		{ID: "e1", FromNode: "R", ToNode: "B", Item: "Widget"},
		{ID: "e2", FromNode: "B", ToNode: "G", Item: "Gadget"},
		{ID: "e3", FromNode: "G", ToNode: "R", Item: "Gizmo"},
		{ID: "e4", FromNode: "R", ToNode: "E", Item: "Widget"},
	}

	res := Solve(nodes, edges, cat, AggregateSum)

	assert.Equal(t, MaxPasses, res.Passes)
	assert.False(t, res.Converged)
	assert.True(t, res.HasCycle)
	for id, v := range res.Targets {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "node %s got non-finite rate", id)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestParseAggregateMode(t *testing.T) {
	mode, err := ParseAggregateMode("sum")
	require.NoError(t, err)
	assert.Equal(t, AggregateSum, mode)

	mode, err = ParseAggregateMode("max")
	require.NoError(t, err)
	assert.Equal(t, AggregateMax, mode)

	_, err = ParseAggregateMode("avg")
	assert.Error(t, err)
}
