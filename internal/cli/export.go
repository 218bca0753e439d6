package cli

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/export"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

func exportCmd(g *globals) *cobra.Command {
	var (
		src        source
		style      string
		out        string
		scriptPath string
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the visible nodes and edge events as Markdown or JIRA tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := export.ParseStyle(style)
			if err != nil {
				return err
			}
			gr, err := src.load(cmd.Context(), g)
			if err != nil {
				return err
			}

			nodes, edges := gr.Nodes(), gr.Edges()
			if !all {
				sess := session.New("cli", src.name(), visible.NewEngine(mutator.Default()), g.viewOptions())
				if err := sess.Load(sess.Begin(), gr); err != nil {
					return err
				}
				if scriptPath != "" {
					if err := replay(sess, scriptPath); err != nil {
						return err
					}
				}
				v := sess.State()
				nodes, edges = v.Nodes, v.Edges
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "create export file")
				}
				defer f.Close()
				w = f
			}
			return export.Write(w, st, nodes, edges)
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&style, "style", "markdown", "Table style: markdown or jira")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Exploration script applied before exporting")
	cmd.Flags().BoolVar(&all, "all", false, "Export the whole graph instead of the initial view")
	return cmd
}

func replay(sess *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open script")
	}
	defer f.Close()
	script, err := ReadScript(f)
	if err != nil {
		return err
	}
	for i, st := range script.Steps {
		if _, err := st.Run(sess); err != nil {
			return errors.Wrapf(err, "step %d", i+1)
		}
	}
	return nil
}
