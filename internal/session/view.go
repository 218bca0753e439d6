package session

import (
	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

// TypeInfo describes one node type of the loaded graph for type toggles.
type TypeInfo struct {
	Type    string `json:"type"`
	Color   string `json:"color,omitempty"`
	Visible bool   `json:"visible"`
}

// EdgeTypeInfo describes one edge type of the loaded graph.
type EdgeTypeInfo struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// View is a read-only projection of a session for rendering.
type View struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
	visible.State
	SelectedNode *graph.Node    `json:"selected_node"`
	SelectedEdge *graph.Edge    `json:"selected_edge"`
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	AllNodeTypes []TypeInfo     `json:"node_types"`
	AllEdgeTypes []EdgeTypeInfo `json:"edge_types"`
	UndoDepth    int            `json:"undo_depth"`
	RedoDepth    int            `json:"redo_depth"`
}

// View snapshots the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.store.Current()
	st := s.hist.Present()
	v := View{
		SessionID:    s.id,
		CaseID:       s.caseID,
		State:        st,
		TotalNodes:   g.NodeCount(),
		TotalEdges:   g.EdgeCount(),
		AllNodeTypes: []TypeInfo{},
		AllEdgeTypes: []EdgeTypeInfo{},
		UndoDepth:    s.hist.PastLen(),
		RedoDepth:    s.hist.FutureLen(),
	}
	if n, ok := s.sel.Node(g); ok {
		v.SelectedNode = n
	}
	if e, ok := s.sel.Edge(g); ok {
		v.SelectedEdge = e
	}

	shownNodes := setOf(st.NodeTypes)
	for _, t := range g.NodeTypes() {
		info := TypeInfo{Type: t}
		if nodes := g.NodesOfType(t); len(nodes) > 0 {
			info.Color = nodes[0].Color
		}
		_, info.Visible = shownNodes[t]
		v.AllNodeTypes = append(v.AllNodeTypes, info)
	}
	shownEdges := setOf(st.EdgeTypes)
	for _, t := range g.EdgeTypes() {
		_, on := shownEdges[t]
		v.AllEdgeTypes = append(v.AllEdgeTypes, EdgeTypeInfo{Type: t, Visible: on})
	}
	return v
}

func setOf(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
