package cli

import (
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

func mutatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutators",
		Short: "List the graph mutators an exploration can run",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			reg := mutator.Default()
			desc := reg.Describe()
			rows := make([][]string, 0, len(desc))
			for _, name := range reg.Names() {
				rows = append(rows, []string{name, desc[name]})
			}
			ui.Table(cmd.OutOrStdout(), []string{"NAME", "DESCRIPTION"}, rows)
		},
	}
}
