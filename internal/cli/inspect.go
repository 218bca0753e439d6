package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

func inspectCmd(g *globals) *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise a case graph by node and edge type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gr, err := src.load(cmd.Context(), g)
			if err != nil {
				return err
			}
			excluded := setOf(g.viewOptions().ExcludedEdgeTypes)
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "%s %s\n", ui.Brand.Sprint(src.name()),
				ui.Subtle.Sprintf("(%d nodes, %d edges)", gr.NodeCount(), gr.EdgeCount()))

			ui.Heading(w, "Node types")
			var rows [][]string
			for _, t := range gr.NodeTypes() {
				nodes := gr.NodesOfType(t)
				rows = append(rows, []string{t, ui.Swatch(nodes[0].Color), strconv.Itoa(len(nodes))})
			}
			ui.Table(w, []string{"TYPE", "COLOR", "NODES"}, rows)

			ui.Heading(w, "Edge types")
			rows = rows[:0]
			for _, t := range gr.EdgeTypes() {
				st := edgeStatsOf(gr, t)
				_, hidden := excluded[t]
				rows = append(rows, []string{
					t,
					strconv.Itoa(st.edges),
					strconv.Itoa(st.events),
					formatTime(st.earliest),
					formatTime(st.latest),
					ui.StatusIcon(!hidden),
				})
			}
			ui.Table(w, []string{"TYPE", "EDGES", "EVENTS", "EARLIEST", "LATEST", "SHOWN"}, rows)
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}

type edgeStats struct {
	edges, events    int
	earliest, latest time.Time
}

func edgeStatsOf(gr *graph.Graph, label string) edgeStats {
	var st edgeStats
	for _, e := range gr.Edges() {
		if e.Label != label {
			continue
		}
		st.edges++
		for _, ev := range e.Properties.Data {
			if ev == nil {
				continue
			}
			st.events++
			ts, ok := ev.Timestamp()
			if !ok {
				continue
			}
			if st.earliest.IsZero() || ts.Before(st.earliest) {
				st.earliest = ts
			}
			if ts.After(st.latest) {
				st.latest = ts
			}
		}
	}
	return st
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func setOf(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
