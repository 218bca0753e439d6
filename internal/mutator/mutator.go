package mutator

import "github.com/gyaneshwarpardhi/casegraph/internal/graph"

// Input is everything a mutator may look at. Slices are shared with the
// caller and must not be modified.
type Input struct {
	VisibleNodes []*graph.Node
	VisibleEdges []*graph.Edge
	NodeTypes    []string
	EdgeTypes    []string
	Graph        *graph.Graph
	SelectedNode int64
	// SelectedEdge is nil when no edge is selected.
	SelectedEdge *int64
}

// Result is the visible node and edge set a mutator proposes. The engine still
// runs its filter pass over it.
type Result struct {
	Nodes []*graph.Node
	Edges []*graph.Edge
}

// Mutator is the interface every traversal strategy must satisfy.
type Mutator interface {
	// Name returns the key this mutator is registered under.
	Name() string
	// Description is a one-line, human readable summary.
	Description() string
	// Mutate computes the next visible node and edge set.
	Mutate(in Input) Result
}

// merge appends the ids in discovered that are not yet in visible, resolving
// them against g, and recomputes the edges among the merged nodes.
func merge(in Input, discovered []int64) Result {
	nodes := make([]*graph.Node, 0, len(in.VisibleNodes)+len(discovered))
	nodes = append(nodes, in.VisibleNodes...)
	present := graph.IDSet(in.VisibleNodes)
	for _, id := range discovered {
		if _, ok := present[id]; ok {
			continue
		}
		n, ok := in.Graph.Node(id)
		if !ok {
			continue
		}
		present[id] = struct{}{}
		nodes = append(nodes, n)
	}
	return Result{Nodes: nodes, Edges: in.Graph.EdgesAmong(nodes)}
}

func allowed(types []string) map[string]struct{} {
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		out[t] = struct{}{}
	}
	return out
}
