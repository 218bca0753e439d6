// Package cli implements the beaglectl command tree.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/fetch"
	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

var version = "0.3.0"

// globals carries the persistent flags shared by every command.
type globals struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the beaglectl command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "beaglectl",
		Short: "beaglectl inspects and explores case graphs",
		Long: ui.Brand.Sprint("beaglectl") + " explores case graphs from the command line\n" +
			ui.Subtle.Sprint("Load a graph file or fetch a case, then search, explore and export it"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if g.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.SetVersionTemplate("beaglectl {{ .Version }}\n")
	root.PersistentFlags().StringVar(&g.configPath, "config", "configs/casegraph.yaml", "Config file (upstream and view settings)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log debug output to stderr")

	root.AddCommand(
		inspectCmd(g),
		exploreCmd(g),
		searchCmd(g),
		exportCmd(g),
		fetchCmd(g),
		mutatorsCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// source names where a command reads its graph from.
type source struct {
	file   string
	caseID string
}

func (s *source) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Read the graph from a node-link JSON file")
	cmd.Flags().StringVarP(&s.caseID, "case", "c", "", "Fetch the graph for a case from the upstream")
	cmd.MarkFlagsMutuallyExclusive("file", "case")
	cmd.MarkFlagsOneRequired("file", "case")
}

// name labels the graph in output and sessions.
func (s *source) name() string {
	if s.caseID != "" {
		return s.caseID
	}
	return s.file
}

func (s *source) load(ctx context.Context, g *globals) (*graph.Graph, error) {
	if s.file != "" {
		return readGraphFile(s.file)
	}
	client, err := g.client()
	if err != nil {
		return nil, err
	}
	return client.Fetch(ctx, s.caseID)
}

func readGraphFile(path string) (*graph.Graph, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open graph file")
		}
		defer f.Close()
		r = f
	}
	gr, err := graph.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return gr, nil
}

// loadConfig reads and validates the --config file.
func (g *globals) loadConfig() (*config.Config, error) {
	data, err := os.ReadFile(g.configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", g.configPath)
	}
	return config.Parse(data, config.FormatOf(g.configPath))
}

func (g *globals) client() (*fetch.Client, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, errors.WithHint(err, "fetching a case needs upstream.base_url from --config")
	}
	return fetch.New(fetch.OptionsFrom(cfg.Upstream))
}

// viewOptions returns the session options from the config file, falling
// back to the defaults when no config can be read.
func (g *globals) viewOptions() session.Options {
	cfg, err := g.loadConfig()
	if err != nil {
		slog.Debug("using default view options", "err", err)
		return session.DefaultOptions()
	}
	return session.OptionsFrom(cfg.View)
}
