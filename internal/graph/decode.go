package graph

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// Wire is the node-link document served by the graph endpoint.
type Wire struct {
	Directed   bool                   `json:"directed"`
	Multigraph bool                   `json:"multigraph"`
	Graph      map[string]interface{} `json:"graph,omitempty"`
	Nodes      []WireNode             `json:"nodes"`
	Links      []WireLink             `json:"links"`
}

// WireNode is a node as serialised by the graph endpoint.
type WireNode struct {
	ID         int64                  `json:"id"`
	NodeType   string                 `json:"_node_type"`
	NodeClass  string                 `json:"_node_class,omitempty"`
	Display    string                 `json:"_display"`
	Color      string                 `json:"_color"`
	Properties map[string]interface{} `json:"properties"`
}

// WireLink is an edge as serialised by the graph endpoint.
type WireLink struct {
	ID         int64  `json:"id"`
	Source     int64  `json:"source"`
	Target     int64  `json:"target"`
	Type       string `json:"type"`
	Properties struct {
		Data []json.RawMessage `json:"data"`
	} `json:"properties"`
}

// Decode reads a node-link document and builds a Graph from it.
func Decode(r io.Reader) (*Graph, error) {
	var w Wire
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(err, "decode graph document")
	}
	return FromWire(&w)
}

// FromWire maps a node-link document onto the graph model:
// source becomes From, target becomes To and type becomes Label.
func FromWire(w *Wire) (*Graph, error) {
	nodes := make([]Node, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		props := wn.Properties
		if props == nil {
			props = map[string]interface{}{}
		}
		nodes = append(nodes, Node{
			ID:         wn.ID,
			NodeType:   wn.NodeType,
			Class:      wn.NodeClass,
			Display:    wn.Display,
			Label:      shortLabel(wn.Display),
			Color:      wn.Color,
			Properties: props,
		})
	}

	edges := make([]Edge, 0, len(w.Links))
	for _, wl := range w.Links {
		data := make([]Event, 0, len(wl.Properties.Data))
		for i, raw := range wl.Properties.Data {
			ev, err := decodeEvent(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "link %d: data[%d]", wl.ID, i)
			}
			data = append(data, ev)
		}
		edges = append(edges, Edge{
			ID:         wl.ID,
			From:       wl.Source,
			To:         wl.Target,
			Label:      wl.Type,
			Properties: EdgeProperties{Data: data},
		})
	}
	return New(nodes, edges)
}

// decodeEvent returns nil for entries that are not JSON objects.
func decodeEvent(raw json.RawMessage) (Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var ev Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ToWire converts g back into a node-link document that Decode accepts.
func ToWire(g *Graph) (*Wire, error) {
	w := &Wire{
		Directed:   true,
		Multigraph: true,
		Nodes:      make([]WireNode, 0, g.NodeCount()),
		Links:      make([]WireLink, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		w.Nodes = append(w.Nodes, WireNode{
			ID:         n.ID,
			NodeType:   n.NodeType,
			NodeClass:  n.Class,
			Display:    n.Display,
			Color:      n.Color,
			Properties: n.Properties,
		})
	}
	for _, e := range g.Edges() {
		wl := WireLink{ID: e.ID, Source: e.From, Target: e.To, Type: e.Label}
		wl.Properties.Data = make([]json.RawMessage, 0, len(e.Properties.Data))
		for _, ev := range e.Properties.Data {
			raw, err := json.Marshal(ev)
			if err != nil {
				return nil, errors.Wrapf(err, "edge %d", e.ID)
			}
			wl.Properties.Data = append(wl.Properties.Data, raw)
		}
		w.Links = append(w.Links, wl)
	}
	return w, nil
}

// Encode writes g as an indented node-link document.
func Encode(wr io.Writer, g *Graph) error {
	w, err := ToWire(g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(wr)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(w), "encode graph document")
}
