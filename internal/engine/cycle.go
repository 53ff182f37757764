package engine

import "github.com/beltline/beltline/internal/plan"

// hasCycle reports whether the directed graph formed by the edges
// contains a cycle. Purely diagnostic: a cyclic plan (a recycling loop,
// or a miswired belt) still solves, it just stops at the pass cap with
// best-effort rates, and the Result carries this flag so a UI can
// surface it.
//
// Iterative three-color DFS. Recursion is avoided so a pathological
// plan cannot blow the stack.
func hasCycle(nodes map[string]plan.Node, edges []plan.Edge) bool {
	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if _, ok := nodes[e.FromNode]; !ok {
			continue
		}
		if _, ok := nodes[e.ToNode]; !ok {
			continue
		}
		adj[e.FromNode] = append(adj[e.FromNode], e.ToNode)
	}

	const (
		white = 0 // unvisited
		grey  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(nodes))

	type frame struct {
		node string
		next int
	}

	for start := range adj {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		color[start] = grey

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := adj[top.node]
			if top.next < len(neighbors) {
				n := neighbors[top.next]
				top.next++
				switch color[n] {
				case grey:
					return true
				case white:
					color[n] = grey
					stack = append(stack, frame{node: n})
				}
				continue
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}
	return false
}
