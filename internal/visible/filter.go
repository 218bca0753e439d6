package visible

import "github.com/gyaneshwarpardhi/casegraph/internal/graph"

// filter restores the state invariants: visible nodes are unique and of an
// allowed type, visible edges are unique, of an allowed label and join two
// visible nodes. It only ever removes entries, then derives the time window.
func filter(s State) State {
	nodeTypes := set(s.NodeTypes)
	edgeTypes := set(s.EdgeTypes)

	nodes := make([]*graph.Node, 0, len(s.Nodes))
	ids := make(map[int64]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n == nil {
			continue
		}
		if _, ok := nodeTypes[n.NodeType]; !ok {
			continue
		}
		if _, dup := ids[n.ID]; dup {
			continue
		}
		ids[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}

	edges := make([]*graph.Edge, 0, len(s.Edges))
	seen := make(map[int64]struct{}, len(s.Edges))
	for _, e := range s.Edges {
		if e == nil {
			continue
		}
		if _, ok := edgeTypes[e.Label]; !ok {
			continue
		}
		if _, ok := ids[e.From]; !ok {
			continue
		}
		if _, ok := ids[e.To]; !ok {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		edges = append(edges, e)
	}

	nodeTypeList := s.NodeTypes
	if nodeTypeList == nil {
		nodeTypeList = []string{}
	}
	edgeTypeList := s.EdgeTypes
	if edgeTypeList == nil {
		edgeTypeList = []string{}
	}

	return State{
		Nodes:     nodes,
		Edges:     edges,
		NodeTypes: nodeTypeList,
		EdgeTypes: edgeTypeList,
		Window:    window(edges),
	}
}

// window scans every event of edges once, keeping the earliest and latest
// timestamp. Events without a usable timestamp are skipped. It returns nil
// when nothing was timestamped.
func window(edges []*graph.Edge) *TimeRange {
	var r *TimeRange
	for _, e := range edges {
		for _, ev := range e.Properties.Data {
			ts, ok := ev.Timestamp()
			if !ok {
				continue
			}
			if r == nil {
				r = &TimeRange{Earliest: ts, Latest: ts}
				continue
			}
			if ts.Before(r.Earliest) {
				r.Earliest = ts
			}
			if ts.After(r.Latest) {
				r.Latest = ts
			}
		}
	}
	return r
}
