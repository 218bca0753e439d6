package visible

import (
	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
)

// Engine computes the next visible state from the current one and an action.
// It holds no view state of its own and is safe for concurrent use.
type Engine struct {
	mutators *mutator.Registry
}

// NewEngine returns an engine that resolves RunMutatorFromNode actions
// against reg. A nil registry makes every mutator action a no-op.
func NewEngine(reg *mutator.Registry) *Engine {
	return &Engine{mutators: reg}
}

// Mutators returns the registry the engine resolves mutator names against.
func (e *Engine) Mutators() *mutator.Registry { return e.mutators }

// Apply returns the state that follows s after a. Neither s nor g is
// modified. Ids missing from g are ignored. Every result has been through the
// filter pass, so its invariants hold regardless of the action.
func (e *Engine) Apply(s State, a Action, g *graph.Graph) State {
	if g == nil {
		g = graph.Empty()
	}
	next := s

	switch act := a.(type) {
	case SetVisibleNodes:
		next.Nodes = resolveNodes(g, act.IDs)

	case SetVisibleEdges:
		next.Edges = resolveEdges(g, act.IDs)

	case PullInNeighbors:
		next.Nodes = pullInNeighbors(s, act.Node, g)
		next.Edges = g.EdgesAmong(next.Nodes)

	case HideNode:
		next.Nodes = make([]*graph.Node, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			if n.ID != act.Node {
				next.Nodes = append(next.Nodes, n)
			}
		}
		next.Edges = edgesWithin(s.Edges, next.Nodes)

	case AddNode:
		n, ok := g.Node(act.Node)
		if !ok {
			break
		}
		if !s.HasNode(act.Node) {
			next.Nodes = make([]*graph.Node, 0, len(s.Nodes)+1)
			next.Nodes = append(next.Nodes, n)
			next.Nodes = append(next.Nodes, s.Nodes...)
		}
		next.Edges = g.EdgesAmong(next.Nodes)

	case SetVisibleNodeTypes:
		next.NodeTypes = uniq(act.Types)

	case SetVisibleEdgeTypes:
		next.EdgeTypes = uniq(act.Types)

	case RunMutatorFromNode:
		if e.mutators == nil {
			break
		}
		m, err := e.mutators.Get(act.Mutator)
		if err != nil {
			break
		}
		res := m.Mutate(mutator.Input{
			VisibleNodes: s.Nodes,
			VisibleEdges: s.Edges,
			NodeTypes:    s.NodeTypes,
			EdgeTypes:    s.EdgeTypes,
			Graph:        g,
			SelectedNode: act.Node,
			SelectedEdge: act.Edge,
		})
		next.Nodes = res.Nodes
		next.Edges = res.Edges
	}

	return filter(next)
}

// pullInNeighbors appends the one-hop neighbours of id over allowed edge
// types. Candidates keep encounter order, skip visible nodes, unknown ids and
// hidden node types, and are truncated to PullInLimit. Hidden types are
// skipped before truncation, so the cap counts nodes that actually become visible.
func pullInNeighbors(s State, id int64, g *graph.Graph) []*graph.Node {
	edgeTypes := set(s.EdgeTypes)
	nodeTypes := set(s.NodeTypes)
	present := graph.IDSet(s.Nodes)

	seen := make(map[int64]struct{})
	added := make([]*graph.Node, 0, PullInLimit)
	consider := func(candidate int64) {
		if len(added) == PullInLimit {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		if _, ok := present[candidate]; ok {
			return
		}
		n, ok := g.Node(candidate)
		if !ok {
			return
		}
		if _, ok := nodeTypes[n.NodeType]; !ok {
			return
		}
		added = append(added, n)
	}

	for _, e := range g.Edges() {
		if len(added) == PullInLimit {
			break
		}
		if !e.Touches(id) {
			continue
		}
		if _, ok := edgeTypes[e.Label]; !ok {
			continue
		}
		consider(e.From)
		consider(e.To)
	}

	out := make([]*graph.Node, 0, len(s.Nodes)+len(added))
	out = append(out, s.Nodes...)
	return append(out, added...)
}

func resolveNodes(g *graph.Graph, ids []int64) []*graph.Node {
	out := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func resolveEdges(g *graph.Graph, ids []int64) []*graph.Edge {
	out := make([]*graph.Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := g.Edge(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// edgesWithin keeps the edges whose endpoints are both in nodes.
func edgesWithin(edges []*graph.Edge, nodes []*graph.Node) []*graph.Edge {
	ids := graph.IDSet(nodes)
	out := make([]*graph.Edge, 0, len(edges))
	for _, e := range edges {
		_, from := ids[e.From]
		_, to := ids[e.To]
		if from && to {
			out = append(out, e)
		}
	}
	return out
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func set(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}
