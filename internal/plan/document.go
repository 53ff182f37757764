package plan

import (
	"github.com/beltline/beltline/internal/catalog"
)

// Node is a placed instance of a recipe.
//
// TargetPerMin is the desired output rate in primary-output items per
// minute. nil means "derive entirely from downstream demand"; the
// solver seeds both nil and explicit 0 as 0, the distinction exists
// only for display.
//
// Modules always has exactly as many entries as the selected tier has
// module slots; nil entries are empty slots. Changing tier resets the
// slice to a fresh all-nil slice sized to the new tier.
type Node struct {
	ID                    string            `json:"id"`
	RecipeID              string            `json:"recipeID"`
	X                     float64           `json:"x"`
	Y                     float64           `json:"y"`
	TargetPerMin          *float64          `json:"targetPerMin,omitempty"`
	SpeedMultiplier       float64           `json:"speedMultiplier"`
	SelectedMachineTierID string            `json:"selectedMachineTierID,omitempty"`
	Modules               []*catalog.Module `json:"modules"`
}

// Clone returns a deep copy of the node. The target pointer and module
// slice are duplicated so callers cannot alias engine-owned state.
func (n Node) Clone() Node {
	c := n
	if n.TargetPerMin != nil {
		v := *n.TargetPerMin
		c.TargetPerMin = &v
	}
	if n.Modules != nil {
		c.Modules = make([]*catalog.Module, len(n.Modules))
		for i, m := range n.Modules {
			if m != nil {
				mc := *m
				c.Modules[i] = &mc
			}
		}
	}
	return c
}

// Edge is a directed, item-typed connection from one node's output
// port to another node's input port.
//
// No self-loops; the (FromNode, ToNode, Item) triple is unique at
// insertion time. An edge whose item is not among the producer's
// outputs or the consumer's inputs is ignored by the solver but never
// deleted on its behalf.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	Item     string `json:"item"`
}

// Document is the single persisted/serialized form of a plan.
// Import is a full-document replace; there is no merge and no schema
// version field.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := Document{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		c.Nodes[i] = n.Clone()
	}
	copy(c.Edges, d.Edges)
	return c
}
