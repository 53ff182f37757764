package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beltline/beltline/internal/plan"
	"github.com/beltline/beltline/internal/testutil"
)

func newTestPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	return NewPlanner(testutil.Catalog(t), testutil.NewSequentialIDs("id"), opts...)
}

func TestAddNode_DefaultsFromCatalog(t *testing.T) {
	p := newTestPlanner(t)

	n, err := p.AddNode("gadget", 100, 200)
	require.NoError(t, err)

	assert.Equal(t, "gadget", n.RecipeID)
	assert.Equal(t, 100.0, n.X)
	assert.Equal(t, 200.0, n.Y)
	assert.Nil(t, n.TargetPerMin, "new nodes derive their rate from demand")
	assert.Equal(t, 1.0, n.SpeedMultiplier)
	assert.Equal(t, "assembler-1", n.SelectedMachineTierID, "first tier of the category")
	assert.Len(t, n.Modules, 0, "assembler-1 has no module slots")
}

func TestAddNode_CryogenicSpeedMultiplierDefault(t *testing.T) {
	p := newTestPlanner(t)

	n, err := p.AddNode("coolant", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, n.SpeedMultiplier)
	assert.Equal(t, "cryo-plant", n.SelectedMachineTierID)
	assert.Len(t, n.Modules, 4, "module slots sized to the tier")
}

func TestAddNode_HonorsValidDefaultTier(t *testing.T) {
	p := newTestPlanner(t, WithDefaultTiers(map[string]string{"assembling": "assembler-2"}))

	n, err := p.AddNode("widget", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "assembler-2", n.SelectedMachineTierID)
	assert.Len(t, n.Modules, 2)
}

func TestAddNode_IgnoresDefaultTierFromWrongCategory(t *testing.T) {
	p := newTestPlanner(t, WithDefaultTiers(map[string]string{"assembling": "cryo-plant"}))

	n, err := p.AddNode("widget", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "assembler-1", n.SelectedMachineTierID,
		"a default tier from another category falls back to the first tier")
}

func TestAddNode_UnknownRecipe(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.AddNode("no-such-recipe", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown recipe")
}

func TestAddEdge_RejectsSelfLoopAndDuplicate(t *testing.T) {
	p := newTestPlanner(t)
	n1, _ := p.AddNode("widget", 0, 0)
	n2, _ := p.AddNode("gadget", 0, 0)

	_, err := p.AddEdge(n1.ID, n1.ID, "Widget")
	assert.ErrorIs(t, err, ErrSelfLoop)

	_, err = p.AddEdge(n1.ID, n2.ID, "Widget")
	require.NoError(t, err)

	_, err = p.AddEdge(n1.ID, n2.ID, "Widget")
	assert.ErrorIs(t, err, ErrDuplicateEdge)
	assert.Len(t, p.Edges(), 1, "duplicate is a no-op, edge count unchanged")

	_, err = p.AddEdge(n1.ID, "ghost", "Widget")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestMutations_DriveRecomputation(t *testing.T) {
	p := newTestPlanner(t)
	n1, _ := p.AddNode("widget", 0, 0)
	n2, _ := p.AddNode("gadget", 0, 0)
	_, err := p.AddEdge(n1.ID, n2.ID, "Widget")
	require.NoError(t, err)

	require.NoError(t, p.SetTarget(n2.ID, testutil.FloatPtr(30)))

	got, ok := p.Node(n1.ID)
	require.True(t, ok)
	require.NotNil(t, got.TargetPerMin)
	assert.Equal(t, 60.0, *got.TargetPerMin,
		"30 gadgets/min at 2 Widget per craft demands 60 Widget/min")
}

func TestRemoveEdge_DropsItsDemand(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 0, 0)
	a, _ := p.AddNode("gadget", 0, 0)
	z, _ := p.AddNode("gizmo", 0, 0)
	e1, _ := p.AddEdge(w.ID, a.ID, "Widget")
	_, err := p.AddEdge(w.ID, z.ID, "Widget")
	require.NoError(t, err)
	require.NoError(t, p.SetTarget(a.ID, testutil.FloatPtr(30)))
	require.NoError(t, p.SetTarget(z.ID, testutil.FloatPtr(30)))

	got, _ := p.Node(w.ID)
	require.Equal(t, 90.0, *got.TargetPerMin)

	p.RemoveEdge(e1.ID)

	got, _ = p.Node(w.ID)
	assert.Equal(t, 30.0, *got.TargetPerMin,
		"only the gizmo edge's demand remains")
}

func TestRemoveNode_CascadesEdges(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 0, 0)
	a, _ := p.AddNode("gadget", 0, 0)
	z, _ := p.AddNode("gizmo", 0, 0)
	p.AddEdge(w.ID, a.ID, "Widget")
	p.AddEdge(w.ID, z.ID, "Widget")
	p.AddEdge(a.ID, z.ID, "Gadget")

	p.RemoveNode(a.ID)

	_, ok := p.Node(a.ID)
	assert.False(t, ok)
	edges := p.Edges()
	require.Len(t, edges, 1, "every edge touching the node is gone")
	assert.Equal(t, w.ID, edges[0].FromNode)
	assert.Equal(t, z.ID, edges[0].ToNode)
}

func TestSetTarget_ClampsAndClears(t *testing.T) {
	p := newTestPlanner(t)
	n, _ := p.AddNode("widget", 0, 0)

	require.NoError(t, p.SetTarget(n.ID, testutil.FloatPtr(-5)))
	got, _ := p.Node(n.ID)
	require.NotNil(t, got.TargetPerMin)
	assert.Equal(t, 0.0, *got.TargetPerMin, "negative input clamps to 0")

	require.NoError(t, p.SetTarget(n.ID, nil))
	got, _ = p.Node(n.ID)
	assert.Nil(t, got.TargetPerMin, "nil clears to derive-from-demand")

	assert.ErrorIs(t, p.SetTarget("ghost", nil), ErrUnknownNode)
}

func TestUpdateNode_TierChangeResetsModules(t *testing.T) {
	p := newTestPlanner(t)
	cat := testutil.Catalog(t)
	n, _ := p.AddNode("coolant", 0, 0)

	// Fill a slot, then switch tier: modules must reset to the new
	// tier's slot count, all empty.
	mods := cat.Modules()
	speed := mods[0]
	n.Modules[0] = &speed
	require.NoError(t, p.UpdateNode(n))

	got, _ := p.Node(n.ID)
	require.NotNil(t, got.Modules[0], "same-tier update keeps modules")

	got.SelectedMachineTierID = "assembler-2" // 2 slots
	require.NoError(t, p.UpdateNode(got))

	got, _ = p.Node(n.ID)
	assert.Len(t, got.Modules, 2)
	assert.Nil(t, got.Modules[0])
	assert.Nil(t, got.Modules[1])
}

func TestUpdateNode_RejectsUnknownTierAndNode(t *testing.T) {
	p := newTestPlanner(t)
	n, _ := p.AddNode("widget", 0, 0)

	n.SelectedMachineTierID = "no-such-tier"
	assert.Error(t, p.UpdateNode(n))

	assert.ErrorIs(t, p.UpdateNode(plan.Node{ID: "ghost"}), ErrUnknownNode)
}

func TestSnapshotAndLoad_RoundTrip(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 1, 2)
	a, _ := p.AddNode("gadget", 3, 4)
	p.AddEdge(w.ID, a.ID, "Widget")
	p.SetTarget(a.ID, testutil.FloatPtr(30))

	doc := p.Snapshot()
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)

	// Load into a fresh planner: full replace plus one recompute.
	// Distinct ID prefix so the leftover node cannot collide with IDs
	// from the source planner's identically-seeded generator.
	p2 := NewPlanner(testutil.Catalog(t), testutil.NewSequentialIDs("other"))
	leftover, _ := p2.AddNode("gizmo", 0, 0)
	p2.Load(doc)

	_, ok := p2.Node(leftover.ID)
	assert.False(t, ok, "import is a full-document replace")

	got, ok := p2.Node(w.ID)
	require.True(t, ok)
	require.NotNil(t, got.TargetPerMin)
	assert.Equal(t, 60.0, *got.TargetPerMin)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 0, 0)
	p.SetTarget(w.ID, testutil.FloatPtr(10))

	doc := p.Snapshot()
	*doc.Nodes[0].TargetPerMin = 999

	got, _ := p.Node(w.ID)
	assert.Equal(t, 10.0, *got.TargetPerMin, "snapshot must not alias planner state")
}

func TestSetAggregateMode_Recomputes(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 0, 0)
	a, _ := p.AddNode("gadget", 0, 0)
	z, _ := p.AddNode("gizmo", 0, 0)
	p.AddEdge(w.ID, a.ID, "Widget")
	p.AddEdge(w.ID, z.ID, "Widget")
	p.SetTarget(a.ID, testutil.FloatPtr(30)) // demand 60
	p.SetTarget(z.ID, testutil.FloatPtr(30)) // demand 30

	got, _ := p.Node(w.ID)
	require.Equal(t, 90.0, *got.TargetPerMin)

	p.SetAggregateMode(AggregateMax)
	got, _ = p.Node(w.ID)
	assert.Equal(t, 60.0, *got.TargetPerMin)

	rev := p.Revision()
	p.SetAggregateMode(AggregateMax)
	assert.Equal(t, rev, p.Revision(), "setting the same mode is a no-op")
}

func TestSubscribe_NotifiesWithAdvancingRevisions(t *testing.T) {
	p := newTestPlanner(t)

	var revs []int64
	p.Subscribe(func(rev int64) { revs = append(revs, rev) })

	p.AddNode("widget", 0, 0)
	p.AddNode("gadget", 0, 0)

	require.Len(t, revs, 2)
	assert.Less(t, revs[0], revs[1])
	assert.Equal(t, revs[1], p.Revision())
}

func TestRecompute_CoalescesReentrantRequests(t *testing.T) {
	p := newTestPlanner(t)
	w, _ := p.AddNode("widget", 0, 0)
	a, _ := p.AddNode("gadget", 0, 0)
	p.AddEdge(w.ID, a.ID, "Widget")

	// A listener that mutates the planner on the first notification.
	// The nested SetTarget calls must coalesce into exactly one
	// follow-up solve, not recurse.
	runs := 0
	mutated := false
	p.Subscribe(func(rev int64) {
		runs++
		if !mutated {
			mutated = true
			require.NoError(t, p.SetTarget(a.ID, testutil.FloatPtr(30)))
			require.NoError(t, p.SetTarget(a.ID, testutil.FloatPtr(15)))
		}
	})

	p.Recompute()

	assert.Equal(t, 2, runs, "initial run plus exactly one coalesced follow-up")

	got, _ := p.Node(w.ID)
	require.NotNil(t, got.TargetPerMin)
	assert.Equal(t, 30.0, *got.TargetPerMin,
		"the follow-up run reads the latest state (target 15 => demand 30)")
}

func TestLastResult_ExposesDiagnostics(t *testing.T) {
	p := newTestPlanner(t)
	r, _ := p.AddNode("recycler", 0, 0)
	b, _ := p.AddNode("gadget", 0, 0)
	g, _ := p.AddNode("gizmo", 0, 0)
	p.AddEdge(r.ID, b.ID, "Widget")
	p.AddEdge(b.ID, g.ID, "Gadget")
	p.AddEdge(g.ID, r.ID, "Gizmo")

	res := p.LastResult()
	assert.True(t, res.HasCycle)
	assert.GreaterOrEqual(t, res.Passes, 1)
}
