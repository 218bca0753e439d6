package session

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/history"
	"github.com/gyaneshwarpardhi/casegraph/internal/metrics"
	"github.com/gyaneshwarpardhi/casegraph/internal/selection"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

var (
	// ErrStaleLoad is returned when a graph arrives for a load that has since
	// been superseded by a newer load or a reset.
	ErrStaleLoad = errors.New("stale graph load")
	// ErrNilAction is returned by Dispatch for a nil action.
	ErrNilAction = errors.New("nil action")
)

// Epoch identifies one graph load. Only the latest epoch may be applied.
type Epoch uint64

// Fetcher retrieves the graph of a case.
type Fetcher interface {
	Fetch(ctx context.Context, caseID string) (*graph.Graph, error)
}

// Transition summarises what one dispatched action changed.
type Transition struct {
	Kind    visible.Kind `json:"kind"`
	Added   []int64      `json:"added"`
	Removed []int64      `json:"removed"`
	// LimitReached is set when a pull-in hit the cap; repeating it may
	// reveal more neighbours.
	LimitReached bool `json:"limit_reached"`
}

// Session is one investigation view over one case: the graph store, the
// visible state with its undo trail, and the selection. Every method runs to
// completion before the next one starts.
type Session struct {
	mu     sync.Mutex
	id     string
	caseID string
	store  *graph.Store
	engine *visible.Engine
	hist   *history.History[visible.State]
	sel    selection.Tracker
	epoch  Epoch
	opts   Options
	rng    *rand.Rand
	log    *slog.Logger
}

// New creates an empty session for caseID.
func New(id, caseID string, engine *visible.Engine, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:     id,
		caseID: caseID,
		store:  graph.NewStore(),
		engine: engine,
		hist:   history.New(visible.Initial(), opts.HistoryLimit),
		opts:   opts,
		rng:    opts.Rand,
		log:    opts.Logger.With("session", id, "case", caseID),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// CaseID returns the case the session shows.
func (s *Session) CaseID() string { return s.caseID }

// Graph returns the loaded graph, empty before the first load.
func (s *Session) Graph() *graph.Graph { return s.store.Current() }

// Begin starts a new load and returns its epoch. Any load begun earlier
// becomes stale.
func (s *Session) Begin() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Load installs g for the load identified by ep and seeds the view from it.
// The seeded view is the history baseline; it cannot be undone.
func (s *Session) Load(ep Epoch, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ep != s.epoch {
		metrics.StaleLoads.Inc()
		return errors.Wrapf(ErrStaleLoad, "epoch %d, current %d", ep, s.epoch)
	}
	g = s.store.Load(g)
	s.sel.Clear()
	seededState := s.seed(g)
	s.hist.Reset(seededState)

	metrics.GraphLoads.WithLabelValues("ok").Inc()
	s.log.Info("graph loaded",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"visible_nodes", len(seededState.Nodes),
		"visible_edges", len(seededState.Edges))
	return nil
}

// LoadFrom fetches the case graph and loads it. The session is not locked
// while the fetch is in flight; a reset or newer load meanwhile makes this
// one stale.
func (s *Session) LoadFrom(ctx context.Context, f Fetcher) error {
	ep := s.Begin()
	g, err := f.Fetch(ctx, s.caseID)
	if err != nil {
		metrics.GraphLoads.WithLabelValues("error").Inc()
		return errors.Wrapf(err, "load case %s", s.caseID)
	}
	return s.Load(ep, g)
}

// seed builds the first view of g: every node type, every edge type except
// the excluded ones, then either the seed-type nodes with their neighbours
// or a random sample with the first sampled node's neighbours.
func (s *Session) seed(g *graph.Graph) visible.State {
	excluded := make(map[string]struct{}, len(s.opts.ExcludedEdgeTypes))
	for _, t := range s.opts.ExcludedEdgeTypes {
		excluded[t] = struct{}{}
	}
	var edgeTypes []string
	for _, t := range g.EdgeTypes() {
		if _, skip := excluded[t]; !skip {
			edgeTypes = append(edgeTypes, t)
		}
	}

	st := visible.Initial()
	st = s.engine.Apply(st, visible.SetVisibleNodeTypes{Types: g.NodeTypes()}, g)
	st = s.engine.Apply(st, visible.SetVisibleEdgeTypes{Types: edgeTypes}, g)

	var start []int64
	if s.opts.SeedNodeType != "" {
		for _, n := range g.NodesOfType(s.opts.SeedNodeType) {
			start = append(start, n.ID)
		}
	}
	if len(start) > 0 {
		st = s.engine.Apply(st, visible.SetVisibleNodes{IDs: start}, g)
		for _, id := range start {
			st = s.engine.Apply(st, visible.PullInNeighbors{Node: id}, g)
		}
		return st
	}

	sample := s.sample(g)
	st = s.engine.Apply(st, visible.SetVisibleNodes{IDs: sample}, g)
	if len(sample) > 0 {
		st = s.engine.Apply(st, visible.PullInNeighbors{Node: sample[0]}, g)
	}
	return st
}

func (s *Session) sample(g *graph.Graph) []int64 {
	nodes := g.Nodes()
	k := s.opts.SampleSize
	if k > len(nodes) {
		k = len(nodes)
	}
	out := make([]int64, 0, k)
	for _, i := range s.rng.Perm(len(nodes))[:k] {
		out = append(out, nodes[i].ID)
	}
	return out
}

// Dispatch applies a to the present state and records the step for undo.
// Mutator actions without an explicit edge use the selected edge.
func (s *Session) Dispatch(a visible.Action) (Transition, error) {
	if a == nil {
		return Transition{}, ErrNilAction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Session) dispatchLocked(a visible.Action) (Transition, error) {
	if run, ok := a.(visible.RunMutatorFromNode); ok {
		if _, err := s.engine.Mutators().Get(run.Mutator); err != nil {
			return Transition{}, err
		}
		if run.Edge == nil {
			run.Edge = s.sel.EdgeID()
		}
		a = run
	}

	g := s.store.Current()
	before := s.hist.Present()
	after := s.engine.Apply(before, a, g)
	s.hist.Push(after)

	tr := diff(a.Kind(), before, after)
	if a.Kind() == visible.KindPullInNeighbors && tr.LimitReached {
		metrics.PullInLimitReached.Inc()
		s.log.Info("pull-in limit reached", "limit", visible.PullInLimit)
	}
	metrics.Transitions.WithLabelValues(string(a.Kind())).Inc()
	metrics.VisibleNodes.Observe(float64(len(after.Nodes)))
	return tr, nil
}

func diff(kind visible.Kind, before, after visible.State) Transition {
	prev := make(map[int64]struct{}, len(before.Nodes))
	for _, n := range before.Nodes {
		prev[n.ID] = struct{}{}
	}
	next := make(map[int64]struct{}, len(after.Nodes))
	tr := Transition{Kind: kind, Added: []int64{}, Removed: []int64{}}
	for _, n := range after.Nodes {
		next[n.ID] = struct{}{}
		if _, ok := prev[n.ID]; !ok {
			tr.Added = append(tr.Added, n.ID)
		}
	}
	for _, n := range before.Nodes {
		if _, ok := next[n.ID]; !ok {
			tr.Removed = append(tr.Removed, n.ID)
		}
	}
	tr.LimitReached = kind == visible.KindPullInNeighbors && visible.LimitReached(before, after)
	return tr
}

// Undo steps the view back once.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Undo()
}

// Redo steps the view forward once.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Redo()
}

// JumpToPast returns to the recorded view at index; 0 is the oldest.
func (s *Session) JumpToPast(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.JumpToPast(index)
}

// SelectNode selects a node of the loaded graph; nil or unknown clears.
func (s *Session) SelectNode(id *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SelectNode(s.store.Current(), id)
}

// SelectEdge selects an edge of the loaded graph; nil or unknown clears.
func (s *Session) SelectEdge(id *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SelectEdge(s.store.Current(), id)
}

// Reveal shows a node and selects it, as picking a search hit does.
func (s *Session) Reveal(id int64) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, err := s.dispatchLocked(visible.AddNode{Node: id})
	if err != nil {
		return tr, err
	}
	s.sel.SelectNode(s.store.Current(), &id)
	return tr, nil
}

// ToggleNodeType adds or removes one node type from the allow-list.
func (s *Session) ToggleNodeType(nodeType string, on bool) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := toggle(s.hist.Present().NodeTypes, nodeType, on)
	return s.dispatchLocked(visible.SetVisibleNodeTypes{Types: types})
}

// ToggleEdgeType adds or removes one edge type from the allow-list.
func (s *Session) ToggleEdgeType(edgeType string, on bool) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := toggle(s.hist.Present().EdgeTypes, edgeType, on)
	return s.dispatchLocked(visible.SetVisibleEdgeTypes{Types: types})
}

func toggle(current []string, t string, on bool) []string {
	out := make([]string, 0, len(current)+1)
	for _, c := range current {
		if c != t {
			out = append(out, c)
		}
	}
	if on {
		out = append(out, t)
	}
	return out
}

// Reset empties the session as closing the view does: pending loads become
// stale, the graph, view, selection and history are cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.store.Reset()
	s.sel.Clear()
	s.hist.Reset(visible.Initial())
}

// State returns the present visible state.
func (s *Session) State() visible.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Present()
}
