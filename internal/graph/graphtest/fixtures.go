// Package graphtest builds small case graphs for tests.
package graphtest

import (
	"fmt"
	"testing"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
)

// Build constructs a graph and fails the test on error.
func Build(t testing.TB, nodes []graph.Node, edges []graph.Edge) *graph.Graph {
	t.Helper()
	g, err := graph.New(nodes, edges)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

// Node returns a node of the given type with a display derived from its id.
func Node(id int64, nodeType string) graph.Node {
	return graph.Node{
		ID:         id,
		NodeType:   nodeType,
		Display:    fmt.Sprintf("%s-%d", nodeType, id),
		Properties: map[string]interface{}{"name": fmt.Sprintf("%s-%d", nodeType, id)},
	}
}

// Edge returns an edge carrying one event per timestamp.
func Edge(id, from, to int64, label string, timestamps ...interface{}) graph.Edge {
	data := make([]graph.Event, 0, len(timestamps))
	for _, ts := range timestamps {
		data = append(data, graph.Event{"timestamp": ts})
	}
	return graph.Edge{
		ID:         id,
		From:       from,
		To:         to,
		Label:      label,
		Properties: graph.EdgeProperties{Data: data},
	}
}

// Scenario is the two-host, one-process case:
//
//	1 (Host) --Connected@100--> 2 (Host) --Spawned--> 3 (Process)
func Scenario(t testing.TB) *graph.Graph {
	t.Helper()
	return Build(t,
		[]graph.Node{Node(1, "Host"), Node(2, "Host"), Node(3, "Process")},
		[]graph.Edge{
			Edge(10, 1, 2, "Connected", float64(100)),
			Edge(11, 2, 3, "Spawned"),
		},
	)
}

// Star returns a hub (id 0, type "Host") with n "File" leaves (ids 1..n),
// each joined by an outgoing "Wrote" edge (ids 1000+i).
func Star(t testing.TB, n int) *graph.Graph {
	t.Helper()
	nodes := []graph.Node{Node(0, "Host")}
	edges := make([]graph.Edge, 0, n)
	for i := 1; i <= n; i++ {
		nodes = append(nodes, Node(int64(i), "File"))
		edges = append(edges, Edge(int64(1000+i), 0, int64(i), "Wrote", float64(i)))
	}
	return Build(t, nodes, edges)
}

// Cycle returns A(1) -> B(2) -> C(3) -> A(1) plus a tail D(4) -> A(1).
func Cycle(t testing.TB) *graph.Graph {
	t.Helper()
	return Build(t,
		[]graph.Node{Node(1, "Process"), Node(2, "Process"), Node(3, "Process"), Node(4, "Process")},
		[]graph.Edge{
			Edge(21, 1, 2, "Launched"),
			Edge(22, 2, 3, "Launched"),
			Edge(23, 3, 1, "Launched"),
			Edge(24, 4, 1, "Launched"),
		},
	)
}
