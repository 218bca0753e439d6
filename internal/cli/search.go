package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/search"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

func searchCmd(g *globals) *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"s", "find"},
		Short:   "Find nodes whose properties mention a string",
		Long: fmt.Sprintf("Matches the query case-insensitively against every node's properties.\n"+
			"Queries shorter than %d characters match nothing.", search.MinQueryLength),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			w := cmd.OutOrStdout()
			if len([]rune(strings.TrimSpace(query))) < search.MinQueryLength {
				ui.Warn.Fprintf(w, "query %q is too short (need %d characters)\n", query, search.MinQueryLength)
				return nil
			}

			gr, err := src.load(cmd.Context(), g)
			if err != nil {
				return err
			}
			groups := search.Nodes(gr.Nodes(), query)
			if len(groups) == 0 {
				ui.Warn.Fprintf(w, "No nodes match %q\n", query)
				return nil
			}

			fmt.Fprintf(w, "%s %s\n", ui.Brand.Sprintf("%d matches", search.Count(groups)),
				ui.Subtle.Sprintf("for %q", query))
			for _, grp := range groups {
				ui.Heading(w, fmt.Sprintf("%s (%d)", grp.NodeType, len(grp.Results)))
				rows := make([][]string, 0, len(grp.Results))
				for _, n := range grp.Results {
					rows = append(rows, []string{strconv.FormatInt(n.ID, 10), n.Display})
				}
				ui.Table(w, []string{"ID", "DISPLAY"}, rows)
			}
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}
