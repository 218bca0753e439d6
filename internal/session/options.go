package session

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
)

// Options control how a freshly loaded case is first shown.
type Options struct {
	// ExcludedEdgeTypes are edge labels hidden when a case loads.
	ExcludedEdgeTypes []string
	// SeedNodeType is the node type shown first when present (alerts).
	SeedNodeType string
	// SampleSize is how many random nodes are shown when no seed node exists.
	SampleSize int
	// HistoryLimit bounds the undo trail; zero keeps everything.
	HistoryLimit int
	// Rand picks the random sample. Tests set it for determinism.
	Rand   *rand.Rand
	Logger *slog.Logger
}

// DefaultOptions mirrors the investigation page defaults.
func DefaultOptions() Options {
	return Options{
		ExcludedEdgeTypes: []string{"Loaded", "File Of"},
		SeedNodeType:      "Alert",
		SampleSize:        10,
	}
}

// OptionsFrom builds Options from the view section of a config file.
func OptionsFrom(v config.ViewConf) Options {
	return Options{
		ExcludedEdgeTypes: append([]string(nil), v.ExcludedEdgeTypes...),
		SeedNodeType:      v.SeedNodeType,
		SampleSize:        v.SampleSize,
		HistoryLimit:      v.HistoryLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = 10
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
