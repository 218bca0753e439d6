package visible

// Kind discriminates the actions the engine accepts.
type Kind string

const (
	KindSetVisibleNodes     Kind = "set_visible_nodes"
	KindSetVisibleEdges     Kind = "set_visible_edges"
	KindPullInNeighbors     Kind = "pull_in_neighbors"
	KindHideNode            Kind = "hide_node"
	KindAddNode             Kind = "add_node"
	KindSetVisibleNodeTypes Kind = "set_visible_node_types"
	KindSetVisibleEdgeTypes Kind = "set_visible_edge_types"
	KindRunMutatorFromNode  Kind = "run_mutator_from_node"
)

// Kinds lists every action kind.
var Kinds = []Kind{
	KindSetVisibleNodes,
	KindSetVisibleEdges,
	KindPullInNeighbors,
	KindHideNode,
	KindAddNode,
	KindSetVisibleNodeTypes,
	KindSetVisibleEdgeTypes,
	KindRunMutatorFromNode,
}

// Action is one user intent. Actions carry ids only; they are resolved
// against the graph passed to Apply, never against a captured snapshot.
type Action interface {
	Kind() Kind
}

// SetVisibleNodes replaces the visible nodes.
type SetVisibleNodes struct{ IDs []int64 }

// SetVisibleEdges replaces the visible edges.
type SetVisibleEdges struct{ IDs []int64 }

// PullInNeighbors shows up to PullInLimit one-hop neighbours of Node.
type PullInNeighbors struct{ Node int64 }

// HideNode removes Node from the view.
type HideNode struct{ Node int64 }

// AddNode puts Node at the front of the view.
type AddNode struct{ Node int64 }

// SetVisibleNodeTypes replaces the node-type allow-list.
type SetVisibleNodeTypes struct{ Types []string }

// SetVisibleEdgeTypes replaces the edge-type allow-list.
type SetVisibleEdgeTypes struct{ Types []string }

// RunMutatorFromNode runs the named traversal from Node. Edge is the
// selected edge, nil when none.
type RunMutatorFromNode struct {
	Node    int64
	Edge    *int64
	Mutator string
}

func (SetVisibleNodes) Kind() Kind     { return KindSetVisibleNodes }
func (SetVisibleEdges) Kind() Kind     { return KindSetVisibleEdges }
func (PullInNeighbors) Kind() Kind     { return KindPullInNeighbors }
func (HideNode) Kind() Kind            { return KindHideNode }
func (AddNode) Kind() Kind             { return KindAddNode }
func (SetVisibleNodeTypes) Kind() Kind { return KindSetVisibleNodeTypes }
func (SetVisibleEdgeTypes) Kind() Kind { return KindSetVisibleEdgeTypes }
func (RunMutatorFromNode) Kind() Kind  { return KindRunMutatorFromNode }
