package graph

import "unicode/utf8"

// labelWidth is the longest display label shown before truncation
// (len("255.255.255.255")).
const labelWidth = 15

// Event is one instance of the relationship an edge records, e.g. a single
// connection or file write. A nil Event marks an entry that carried no data.
type Event map[string]interface{}

// Node is an entity in a case graph: a host, process, file, alert, ...
// Nodes are never modified after the graph is built.
type Node struct {
	ID         int64                  `json:"id"`
	NodeType   string                 `json:"_node_type"`
	Class      string                 `json:"_node_class,omitempty"`
	Display    string                 `json:"_display"`
	Label      string                 `json:"label"`
	Color      string                 `json:"color,omitempty"`
	Properties map[string]interface{} `json:"properties"`
}

// EdgeProperties wraps the ordered event instances behind an edge.
type EdgeProperties struct {
	Data []Event `json:"data"`
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	ID         int64          `json:"id"`
	From       int64          `json:"from"`
	To         int64          `json:"to"`
	Label      string         `json:"label"`
	Properties EdgeProperties `json:"properties"`
}

// Touches reports whether id is either endpoint of e.
func (e *Edge) Touches(id int64) bool {
	return e.From == id || e.To == id
}

func shortLabel(display string) string {
	if utf8.RuneCountInString(display) < labelWidth {
		return display
	}
	r := []rune(display)
	return string(r[:labelWidth]) + "..."
}
