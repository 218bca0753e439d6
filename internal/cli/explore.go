package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

// Script is an exploration replayed against a freshly loaded case.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one scripted interaction. Without an op it is an action and the
// embedded command fields describe it.
type Step struct {
	Op              string `yaml:"op,omitempty"`
	visible.Command `yaml:",inline"`
	Index           *int `yaml:"index,omitempty"`
}

const (
	opAction     = "action"
	opUndo       = "undo"
	opRedo       = "redo"
	opJump       = "jump"
	opSelectNode = "select_node"
	opSelectEdge = "select_edge"
	opReveal     = "reveal"
)

// ReadScript decodes an exploration script, rejecting unknown keys.
func ReadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, errors.Wrap(err, "parse script")
	}
	return &s, nil
}

// Run applies the step to sess and returns a one-line description of what
// happened.
func (st Step) Run(sess *session.Session) (string, error) {
	switch st.Op {
	case "", opAction:
		a, err := st.Command.Action()
		if err != nil {
			return "", err
		}
		tr, err := sess.Dispatch(a)
		if err != nil {
			return "", err
		}
		return describe(tr), nil
	case opUndo:
		return changed("undo", sess.Undo()), nil
	case opRedo:
		return changed("redo", sess.Redo()), nil
	case opJump:
		if st.Index == nil {
			return "", errors.New("jump needs index")
		}
		return changed(fmt.Sprintf("jump %d", *st.Index), sess.JumpToPast(*st.Index)), nil
	case opSelectNode:
		sess.SelectNode(st.Node)
		return "select node " + optionalID(st.Node), nil
	case opSelectEdge:
		sess.SelectEdge(st.Edge)
		return "select edge " + optionalID(st.Edge), nil
	case opReveal:
		if st.Node == nil {
			return "", errors.New("reveal needs node")
		}
		tr, err := sess.Reveal(*st.Node)
		if err != nil {
			return "", err
		}
		return describe(tr), nil
	default:
		return "", errors.Newf("unknown op %q", st.Op)
	}
}

func describe(tr session.Transition) string {
	s := fmt.Sprintf("%s %s %s", tr.Kind,
		ui.Good.Sprintf("+%d", len(tr.Added)), ui.Bad.Sprintf("-%d", len(tr.Removed)))
	if tr.LimitReached {
		s += " " + ui.Warn.Sprintf("(limited to %d neighbours)", visible.PullInLimit)
	}
	return s
}

func changed(what string, ok bool) string {
	if ok {
		return what
	}
	return what + ui.Subtle.Sprint(" (nothing to do)")
}

func optionalID(id *int64) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(*id, 10)
}

func exploreCmd(g *globals) *cobra.Command {
	var (
		src        source
		scriptPath string
		seed       int64
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Load a case, replay an exploration script and print the view",
		Long: "Loads a case the way the investigation page does (alerts and their neighbours,\n" +
			"or a random sample), then applies the steps of --script in order.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := &Script{}
			if scriptPath != "" {
				f, err := os.Open(scriptPath)
				if err != nil {
					return errors.Wrap(err, "open script")
				}
				script, err = ReadScript(f)
				f.Close()
				if err != nil {
					return err
				}
			}

			gr, err := src.load(cmd.Context(), g)
			if err != nil {
				return err
			}
			opts := g.viewOptions()
			if cmd.Flags().Changed("seed") {
				opts.Rand = rand.New(rand.NewSource(seed))
			}
			sess := session.New("cli", src.name(), visible.NewEngine(mutator.Default()), opts)
			if err := sess.Load(sess.Begin(), gr); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, st := range script.Steps {
				line, err := st.Run(sess)
				if err != nil {
					return errors.Wrapf(err, "step %d", i+1)
				}
				if !asJSON {
					fmt.Fprintf(w, "%s %s\n", ui.Subtle.Sprintf("%3d", i+1), line)
				}
			}

			v := sess.View()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			printView(w, v)
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "YAML exploration script")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the random sample shown when a case has no alerts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final view as JSON")
	return cmd
}

func printView(w io.Writer, v session.View) {
	fmt.Fprintf(w, "\n%s %s\n", ui.Brand.Sprint(v.CaseID),
		ui.Subtle.Sprintf("(%d of %d nodes, %d of %d edges visible; undo %d, redo %d)",
			len(v.Nodes), v.TotalNodes, len(v.Edges), v.TotalEdges, v.UndoDepth, v.RedoDepth))
	if v.Window != nil {
		fmt.Fprintf(w, "  window: %s .. %s\n", formatTime(v.Window.Earliest), formatTime(v.Window.Latest))
	}

	ui.Heading(w, "Nodes")
	rows := make([][]string, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		rows = append(rows, []string{strconv.FormatInt(n.ID, 10), n.NodeType, n.Label})
	}
	ui.Table(w, []string{"ID", "TYPE", "LABEL"}, rows)

	ui.Heading(w, "Edges")
	rows = make([][]string, 0, len(v.Edges))
	for _, e := range v.Edges {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.From, 10),
			strconv.FormatInt(e.To, 10),
			e.Label,
			strconv.Itoa(len(e.Properties.Data)),
		})
	}
	ui.Table(w, []string{"ID", "FROM", "TO", "TYPE", "EVENTS"}, rows)

	var hidden []string
	for _, t := range v.AllEdgeTypes {
		if !t.Visible {
			hidden = append(hidden, t.Type)
		}
	}
	if len(hidden) > 0 {
		fmt.Fprintf(w, "\n  %s %s\n", ui.Subtle.Sprint("hidden edge types:"), strings.Join(hidden, ", "))
	}
	if v.SelectedNode != nil {
		fmt.Fprintf(w, "  %s %s\n", ui.Info.Sprint("selected node:"), nodeSummary(v.SelectedNode))
	}
	if v.SelectedEdge != nil {
		e := v.SelectedEdge
		fmt.Fprintf(w, "  %s %d (%d -> %d %s)\n", ui.Info.Sprint("selected edge:"), e.ID, e.From, e.To, e.Label)
	}
}

func nodeSummary(n *graph.Node) string {
	return fmt.Sprintf("%d %s %q", n.ID, n.NodeType, n.Display)
}
