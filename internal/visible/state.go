package visible

import (
	"time"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
)

// PullInLimit caps how many neighbours a single pull-in adds.
const PullInLimit = 25

// TimeRange bounds the timestamped events of the visible edges.
type TimeRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// State is the visible projection of a case graph.
type State struct {
	Nodes     []*graph.Node `json:"visible_nodes"`
	Edges     []*graph.Edge `json:"visible_edges"`
	NodeTypes []string      `json:"visible_node_types"`
	EdgeTypes []string      `json:"visible_edge_types"`
	// Window is nil when no visible edge carries a timestamped event.
	Window *TimeRange `json:"window"`
}

// Initial is the state before any graph is loaded.
func Initial() State {
	return State{
		Nodes:     []*graph.Node{},
		Edges:     []*graph.Edge{},
		NodeTypes: []string{},
		EdgeTypes: []string{},
	}
}

// NodeIDs returns the visible node ids in order.
func (s State) NodeIDs() []int64 {
	out := make([]int64, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		out = append(out, n.ID)
	}
	return out
}

// EdgeIDs returns the visible edge ids in order.
func (s State) EdgeIDs() []int64 {
	out := make([]int64, 0, len(s.Edges))
	for _, e := range s.Edges {
		out = append(out, e.ID)
	}
	return out
}

// HasNode reports whether id is visible.
func (s State) HasNode(id int64) bool {
	for _, n := range s.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// LimitReached reports whether the step from before to after added exactly
// PullInLimit nodes, meaning repeating the pull-in may reveal more.
func LimitReached(before, after State) bool {
	return len(after.Nodes)-len(before.Nodes) == PullInLimit
}
