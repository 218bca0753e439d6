package mutator

import "github.com/gyaneshwarpardhi/casegraph/internal/graph"

const (
	NameForwardTravel  = "forward_travel"
	NameBackwardTravel = "backward_travel"
	NameEdgeEndpoints  = "edge_endpoints"
)

type direction int

const (
	outgoing direction = iota
	incoming
)

// ForwardTravel shows everything reachable from the selected node by
// following allowed edges in their direction.
type ForwardTravel struct{}

func (ForwardTravel) Name() string { return NameForwardTravel }
func (ForwardTravel) Description() string {
	return "Show every node reachable from the selected node along outgoing edges"
}
func (ForwardTravel) Mutate(in Input) Result {
	return merge(in, reachable(in, outgoing))
}

// BackwardTravel shows everything that reaches the selected node.
type BackwardTravel struct{}

func (BackwardTravel) Name() string { return NameBackwardTravel }
func (BackwardTravel) Description() string {
	return "Show every node that reaches the selected node along incoming edges"
}
func (BackwardTravel) Mutate(in Input) Result {
	return merge(in, reachable(in, incoming))
}

// reachable runs a breadth-first search from the selected node. Ids are marked
// when they are queued, so each node is scheduled at most once and cycles
// terminate. The start node is included when it exists.
func reachable(in Input, dir direction) []int64 {
	if _, ok := in.Graph.Node(in.SelectedNode); !ok {
		return nil
	}
	labels := allowed(in.EdgeTypes)
	adj := adjacency(in.Graph, labels, dir)

	visited := map[int64]struct{}{in.SelectedNode: {}}
	queue := []int64{in.SelectedNode}
	order := make([]int64, 0)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adj[id] {
			if _, seen := visited[next]; seen {
				continue // cycle
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return order
}

func adjacency(g *graph.Graph, labels map[string]struct{}, dir direction) map[int64][]int64 {
	adj := make(map[int64][]int64)
	for _, e := range g.Edges() {
		if _, ok := labels[e.Label]; !ok {
			continue
		}
		if dir == outgoing {
			adj[e.From] = append(adj[e.From], e.To)
		} else {
			adj[e.To] = append(adj[e.To], e.From)
		}
	}
	return adj
}

// EdgeEndpoints shows both endpoints of the selected edge.
type EdgeEndpoints struct{}

func (EdgeEndpoints) Name() string { return NameEdgeEndpoints }
func (EdgeEndpoints) Description() string {
	return "Show both endpoints of the selected edge"
}
func (EdgeEndpoints) Mutate(in Input) Result {
	if in.SelectedEdge == nil {
		return Result{Nodes: in.VisibleNodes, Edges: in.VisibleEdges}
	}
	e, ok := in.Graph.Edge(*in.SelectedEdge)
	if !ok {
		return Result{Nodes: in.VisibleNodes, Edges: in.VisibleEdges}
	}
	return merge(in, []int64{e.From, e.To})
}
