// Package search finds nodes whose properties mention a query string.
package search

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
)

// MinQueryLength is the shortest query that is searched at all.
const MinQueryLength = 3

// Group holds the hits of one node type.
type Group struct {
	NodeType string        `json:"node_type"`
	Color    string        `json:"color,omitempty"`
	Results  []*graph.Node `json:"results"`
}

// Nodes matches query literally and case-insensitively against the JSON
// encoding of each node's properties. Groups follow the order in which node
// types first appear in nodes, hits keep node order.
func Nodes(nodes []*graph.Node, query string) []Group {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Group{}
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))

	groups := []Group{}
	index := make(map[string]int)
	for _, n := range nodes {
		if n == nil || !matches(re, n) {
			continue
		}
		i, ok := index[n.NodeType]
		if !ok {
			i = len(groups)
			index[n.NodeType] = i
			groups = append(groups, Group{NodeType: n.NodeType, Color: n.Color})
		}
		groups[i].Results = append(groups[i].Results, n)
	}
	return groups
}

func matches(re *regexp.Regexp, n *graph.Node) bool {
	raw, err := json.Marshal(n.Properties)
	if err != nil {
		return false
	}
	return re.Match(raw)
}

// Count returns the total number of hits across groups.
func Count(groups []Group) int {
	total := 0
	for _, g := range groups {
		total += len(g.Results)
	}
	return total
}
