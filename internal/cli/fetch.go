package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

func fetchCmd(g *globals) *cobra.Command {
	var (
		outDir  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "fetch <case-id>...",
		Short: "Download case graphs from the upstream",
		Long: "Fetches one or more cases concurrently. With --out each graph is saved as\n" +
			"<case-id>.json, readable by the --file flag of the other commands.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return errors.Wrap(err, "create output directory")
				}
			}

			w := cmd.OutOrStdout()
			failed := 0
			rows := make([][]string, 0, len(args))
			for _, o := range client.FetchAll(cmd.Context(), args, workers) {
				if o.Err == nil && outDir != "" {
					o.Err = saveGraph(filepath.Join(outDir, o.CaseID+".json"), o.Graph)
				}
				if o.Err != nil {
					failed++
					rows = append(rows, []string{ui.StatusIcon(false), o.CaseID, "-", "-", o.Err.Error()})
					continue
				}
				rows = append(rows, []string{
					ui.StatusIcon(true),
					o.CaseID,
					strconv.Itoa(o.Graph.NodeCount()),
					strconv.Itoa(o.Graph.EdgeCount()),
					"",
				})
			}
			ui.Table(w, []string{"", "CASE", "NODES", "EDGES", "ERROR"}, rows)

			if failed > 0 {
				return errors.Newf("%d of %d cases failed", failed, len(args))
			}
			fmt.Fprintln(w, ui.Good.Sprintf("fetched %d case(s)", len(args)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to save the graphs in")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent fetches")
	return cmd
}

func saveGraph(path string, gr *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create graph file")
	}
	if err := graph.Encode(f, gr); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close graph file")
}
