package selection

import "github.com/gyaneshwarpardhi/casegraph/internal/graph"

// Tracker holds at most one selected node and one selected edge. It stores
// ids and resolves them against the graph handed to each read, so a selection
// never outlives the graph it was made in.
type Tracker struct {
	node *int64
	edge *int64
}

// SelectNode selects the node with the given id. A nil id, or one absent
// from g, clears the node selection.
func (t *Tracker) SelectNode(g *graph.Graph, id *int64) {
	t.node = nil
	if id == nil || g == nil {
		return
	}
	if _, ok := g.Node(*id); ok {
		v := *id
		t.node = &v
	}
}

// SelectEdge selects the edge with the given id. A nil id, or one absent
// from g, clears the edge selection.
func (t *Tracker) SelectEdge(g *graph.Graph, id *int64) {
	t.edge = nil
	if id == nil || g == nil {
		return
	}
	if _, ok := g.Edge(*id); ok {
		v := *id
		t.edge = &v
	}
}

// Node returns the selected node as found in g.
func (t *Tracker) Node(g *graph.Graph) (*graph.Node, bool) {
	if t.node == nil || g == nil {
		return nil, false
	}
	return g.Node(*t.node)
}

// Edge returns the selected edge as found in g.
func (t *Tracker) Edge(g *graph.Graph) (*graph.Edge, bool) {
	if t.edge == nil || g == nil {
		return nil, false
	}
	return g.Edge(*t.edge)
}

// NodeID returns the selected node id, nil when none.
func (t *Tracker) NodeID() *int64 { return copyID(t.node) }

// EdgeID returns the selected edge id, nil when none.
func (t *Tracker) EdgeID() *int64 { return copyID(t.edge) }

// Clear drops both selections.
func (t *Tracker) Clear() {
	t.node = nil
	t.edge = nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
