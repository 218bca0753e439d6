package graph

import (
	"github.com/cockroachdb/errors"
)

// Graph holds the complete node and edge universe of one case.
// It is immutable once built; a new case load builds a new Graph and the
// Store swaps it in atomically.
type Graph struct {
	nodes     []*Node
	edges     []*Edge
	nodeIndex map[int64]*Node
	edgeIndex map[int64]*Edge
}

// Empty returns a graph with no nodes and no edges.
func Empty() *Graph {
	return &Graph{
		nodeIndex: map[int64]*Node{},
		edgeIndex: map[int64]*Edge{},
	}
}

// New builds a Graph from nodes and edges, keeping their order.
// Node ids and edge ids must be unique. Edges that reference unknown nodes are
// kept; they can never become visible.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes:     make([]*Node, 0, len(nodes)),
		edges:     make([]*Edge, 0, len(edges)),
		nodeIndex: make(map[int64]*Node, len(nodes)),
		edgeIndex: make(map[int64]*Edge, len(edges)),
	}
	for i := range nodes {
		n := nodes[i]
		if _, dup := g.nodeIndex[n.ID]; dup {
			return nil, errors.Newf("graph: duplicate node id %d", n.ID)
		}
		if n.Label == "" {
			n.Label = shortLabel(n.Display)
		}
		g.nodes = append(g.nodes, &n)
		g.nodeIndex[n.ID] = &n
	}
	for i := range edges {
		e := edges[i]
		if _, dup := g.edgeIndex[e.ID]; dup {
			return nil, errors.Newf("graph: duplicate edge id %d", e.ID)
		}
		g.edges = append(g.edges, &e)
		g.edgeIndex[e.ID] = &e
	}
	return g, nil
}

// Nodes returns every node in load order. Callers must not modify the slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns every edge in load order. Callers must not modify the slice.
func (g *Graph) Edges() []*Edge { return g.edges }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (*Node, bool) {
	n, ok := g.nodeIndex[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id int64) (*Edge, bool) {
	e, ok := g.edgeIndex[id]
	return e, ok
}

// NodeTypes returns the distinct node types in encounter order.
func (g *Graph) NodeTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range g.nodes {
		if _, ok := seen[n.NodeType]; ok {
			continue
		}
		seen[n.NodeType] = struct{}{}
		out = append(out, n.NodeType)
	}
	return out
}

// EdgeTypes returns the distinct edge labels in encounter order.
func (g *Graph) EdgeTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range g.edges {
		if _, ok := seen[e.Label]; ok {
			continue
		}
		seen[e.Label] = struct{}{}
		out = append(out, e.Label)
	}
	return out
}

// NodesOfType returns the nodes whose type equals nodeType, in load order.
func (g *Graph) NodesOfType(nodeType string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.NodeType == nodeType {
			out = append(out, n)
		}
	}
	return out
}

// EdgesAmong returns, in graph order, every edge whose endpoints are both in
// nodes.
func (g *Graph) EdgesAmong(nodes []*Node) []*Edge {
	ids := IDSet(nodes)
	out := make([]*Edge, 0)
	for _, e := range g.edges {
		if _, ok := ids[e.From]; !ok {
			continue
		}
		if _, ok := ids[e.To]; !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

// IDSet collects the ids of nodes into a set.
func IDSet(nodes []*Node) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}
