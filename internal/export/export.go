// Package export renders the visible part of a case as Markdown or JIRA
// tables for pasting into tickets and reports.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
)

// Style selects the heading syntax.
type Style string

const (
	Markdown Style = "markdown"
	JIRA     Style = "jira"
)

// ErrUnknownStyle is returned by ParseStyle for unsupported names.
var ErrUnknownStyle = errors.New("unknown export style")

// ParseStyle maps a case-insensitive name to a Style. An empty name is
// Markdown.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "jira":
		return JIRA, nil
	}
	return "", errors.Wrapf(ErrUnknownStyle, "%q", name)
}

func (s Style) heading(title string) string {
	if s == JIRA {
		return "h3. " + title
	}
	return "### " + title
}

const (
	unknownTime = "Unknown"
	noData      = "-1"
	timeLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// Write renders one table per node type, then one table of edge events.
// Edges are flattened to one row per event and sorted by timestamp.
func Write(w io.Writer, style Style, nodes []*graph.Node, edges []*graph.Edge) error {
	var b strings.Builder
	if len(nodes) > 0 {
		writeNodeTables(&b, style, nodes)
	}
	if len(edges) > 0 {
		writeEdgeTable(&b, style, nodes, edges)
	}
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "write export")
}

func writeNodeTables(b *strings.Builder, style Style, nodes []*graph.Node) {
	var order []string
	byType := make(map[string][]*graph.Node)
	for _, n := range nodes {
		if _, ok := byType[n.NodeType]; !ok {
			order = append(order, n.NodeType)
		}
		byType[n.NodeType] = append(byType[n.NodeType], n)
	}

	for _, t := range order {
		group := byType[t]
		keys := make([]string, 0, len(group[0].Properties))
		for k := range group[0].Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(style.heading(t))
		b.WriteString("\n")
		writeRow(b, keys)
		writeSeparator(b, len(keys))
		for _, n := range group {
			cells := make([]string, len(keys))
			for i, k := range keys {
				cells[i] = cell(n.Properties[k])
			}
			writeRow(b, cells)
		}
		b.WriteString("\n")
	}
}

type edgeRow struct {
	from, to, kind, data, timestamp string
}

func writeEdgeTable(b *strings.Builder, style Style, nodes []*graph.Node, edges []*graph.Edge) {
	names := make(map[int64]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Display
	}
	name := func(id int64) string {
		if d, ok := names[id]; ok {
			return d
		}
		return strconv.FormatInt(id, 10)
	}

	var rows []edgeRow
	for _, e := range edges {
		from, to := name(e.From), name(e.To)
		if len(e.Properties.Data) == 0 {
			rows = append(rows, edgeRow{from, to, e.Label, "{}", noData})
			continue
		}
		for _, ev := range e.Properties.Data {
			ts := unknownTime
			if t, ok := ev.Timestamp(); ok {
				ts = t.Format(timeLayout)
			}
			rest := make(map[string]interface{}, len(ev))
			for k, v := range ev {
				if k != "timestamp" {
					rest[k] = v
				}
			}
			rows = append(rows, edgeRow{from, to, e.Label, escape(encode(rest)), ts})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].timestamp < rows[j].timestamp })

	b.WriteString(style.heading("Edges"))
	b.WriteString("\n")
	writeRow(b, []string{"from", "to", "type", "data", "timestamp"})
	writeSeparator(b, 5)
	for _, r := range rows {
		writeRow(b, []string{escape(r.from), escape(r.to), escape(r.kind), r.data, r.timestamp})
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	b.WriteString(strings.Join(cells, "|"))
	b.WriteString("|\n")
}

func writeSeparator(b *strings.Builder, n int) {
	seps := make([]string, n)
	for i := range seps {
		seps[i] = "--"
	}
	writeRow(b, seps)
}

func cell(v interface{}) string {
	if s, ok := v.(string); ok {
		return escape(s)
	}
	if v == nil {
		return ""
	}
	return escape(encode(v))
}

// encode renders v as compact JSON without HTML escaping.
func encode(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
