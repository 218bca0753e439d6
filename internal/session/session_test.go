package session_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/graph/graphtest"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

func id(v int64) *int64 { return &v }

func newSession(t *testing.T) *session.Session {
	t.Helper()
	opts := session.DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	return session.New("s1", "case-1", visible.NewEngine(mutator.Default()), opts)
}

func load(t *testing.T, s *session.Session, g *graph.Graph) {
	t.Helper()
	require.NoError(t, s.Load(s.Begin(), g))
}

// alertCase: 1 Alert --Triggered--> 2 Host --Loaded--> 3 File, 2 --Connected--> 4 Host.
func alertCase(t *testing.T) *graph.Graph {
	return graphtest.Build(t,
		[]graph.Node{
			graphtest.Node(1, "Alert"),
			graphtest.Node(2, "Host"),
			graphtest.Node(3, "File"),
			graphtest.Node(4, "Host"),
		},
		[]graph.Edge{
			graphtest.Edge(30, 1, 2, "Triggered", float64(50)),
			graphtest.Edge(31, 2, 3, "Loaded"),
			graphtest.Edge(32, 2, 4, "Connected", float64(70)),
		},
	)
}

func TestLoadSeedsFromAlerts(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))

	v := s.View()
	assert.Equal(t, []int64{1, 2}, v.NodeIDs())
	assert.Equal(t, []int64{30}, v.EdgeIDs())
	assert.Equal(t, []string{"Alert", "Host", "File"}, v.NodeTypes)
	assert.Equal(t, []string{"Triggered", "Connected"}, v.EdgeTypes, "excluded edge types start hidden")
	assert.Equal(t, 0, v.UndoDepth, "seeding is the history baseline")
	assert.Equal(t, 4, v.TotalNodes)
	require.Len(t, v.AllEdgeTypes, 3)
	assert.False(t, v.AllEdgeTypes[1].Visible)
}

func TestLoadSeedsFromSampleWithoutAlerts(t *testing.T) {
	s := newSession(t)
	load(t, s, graphtest.Scenario(t))

	st := s.State()
	assert.ElementsMatch(t, []int64{1, 2, 3}, st.NodeIDs(), "a sample larger than the graph shows every node")
	assert.ElementsMatch(t, []int64{10, 11}, st.EdgeIDs())
	assert.False(t, s.Undo())
}

func TestLoadEmptyGraph(t *testing.T) {
	s := newSession(t)
	load(t, s, graph.Empty())

	st := s.State()
	assert.Empty(t, st.Nodes)
	assert.Nil(t, st.Window)
}

func TestUndoRedoExcludesLoad(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))
	seeded := s.State()

	_, err := s.Dispatch(visible.PullInNeighbors{Node: 2})
	require.NoError(t, err)
	_, err = s.Dispatch(visible.HideNode{Node: 1})
	require.NoError(t, err)
	last := s.State()
	assert.Equal(t, []int64{2, 4}, last.NodeIDs())

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Equal(t, seeded, s.State())
	assert.False(t, s.Undo(), "the load cannot be undone")

	require.True(t, s.Redo())
	require.True(t, s.Redo())
	assert.Equal(t, last, s.State())
	assert.False(t, s.Redo())
}

func TestJumpToPast(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))
	seeded := s.State()

	_, _ = s.Dispatch(visible.PullInNeighbors{Node: 2})
	_, _ = s.Dispatch(visible.HideNode{Node: 4})
	require.True(t, s.JumpToPast(0))
	assert.Equal(t, seeded, s.State())
	assert.False(t, s.Redo())
}

func TestDispatchReportsTransition(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))

	tr, err := s.Dispatch(visible.PullInNeighbors{Node: 2})
	require.NoError(t, err)
	assert.Equal(t, visible.KindPullInNeighbors, tr.Kind)
	assert.Equal(t, []int64{4}, tr.Added)
	assert.Empty(t, tr.Removed)
	assert.False(t, tr.LimitReached)

	tr, err = s.Dispatch(visible.HideNode{Node: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, tr.Removed)
}

func TestDispatchLimitReached(t *testing.T) {
	s := newSession(t)
	load(t, s, graphtest.Star(t, 30))

	_, err := s.Dispatch(visible.SetVisibleNodes{IDs: []int64{0}})
	require.NoError(t, err)
	tr, err := s.Dispatch(visible.PullInNeighbors{Node: 0})
	require.NoError(t, err)
	assert.True(t, tr.LimitReached)
	assert.Len(t, tr.Added, visible.PullInLimit)

	tr, err = s.Dispatch(visible.PullInNeighbors{Node: 0})
	require.NoError(t, err)
	assert.False(t, tr.LimitReached)
	assert.Len(t, tr.Added, 5)
}

func TestDispatchRejectsUnknownMutator(t *testing.T) {
	s := newSession(t)
	load(t, s, graphtest.Scenario(t))

	_, err := s.Dispatch(visible.RunMutatorFromNode{Node: 1, Mutator: "sideways"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mutator.ErrUnknown))
	assert.Equal(t, 0, s.View().UndoDepth)

	_, err = s.Dispatch(nil)
	assert.True(t, errors.Is(err, session.ErrNilAction))
}

func TestMutatorUsesSelectedEdge(t *testing.T) {
	s := newSession(t)
	load(t, s, graphtest.Scenario(t))
	_, err := s.Dispatch(visible.SetVisibleNodes{IDs: []int64{1}})
	require.NoError(t, err)

	s.SelectEdge(id(11))
	_, err = s.Dispatch(visible.RunMutatorFromNode{Node: 1, Mutator: mutator.NameEdgeEndpoints})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, s.State().NodeIDs())
}

func TestStaleLoadIsRejected(t *testing.T) {
	s := newSession(t)
	first := s.Begin()
	second := s.Begin()

	err := s.Load(first, alertCase(t))
	assert.True(t, errors.Is(err, session.ErrStaleLoad))
	assert.Equal(t, 0, s.Graph().NodeCount())

	require.NoError(t, s.Load(second, graphtest.Scenario(t)))
	assert.Equal(t, 3, s.Graph().NodeCount())

	pending := s.Begin()
	s.Reset()
	err = s.Load(pending, alertCase(t))
	assert.True(t, errors.Is(err, session.ErrStaleLoad), "a reset supersedes loads in flight")
	assert.Equal(t, 0, s.Graph().NodeCount())
}

type fetcherFunc func(ctx context.Context, caseID string) (*graph.Graph, error)

func (f fetcherFunc) Fetch(ctx context.Context, caseID string) (*graph.Graph, error) {
	return f(ctx, caseID)
}

func TestLoadFrom(t *testing.T) {
	s := newSession(t)
	var asked string
	err := s.LoadFrom(context.Background(), fetcherFunc(func(_ context.Context, caseID string) (*graph.Graph, error) {
		asked = caseID
		return alertCase(t), nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "case-1", asked)
	assert.Equal(t, 4, s.Graph().NodeCount())

	boom := errors.New("upstream down")
	err = s.LoadFrom(context.Background(), fetcherFunc(func(context.Context, string) (*graph.Graph, error) {
		return nil, boom
	}))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 4, s.Graph().NodeCount(), "a failed fetch keeps the current graph")

	err = s.LoadFrom(context.Background(), fetcherFunc(func(context.Context, string) (*graph.Graph, error) {
		s.Reset()
		return graphtest.Scenario(t), nil
	}))
	assert.True(t, errors.Is(err, session.ErrStaleLoad))
}

func TestResetClearsSelectionAndView(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))
	s.SelectNode(id(1))
	s.SelectEdge(id(30))
	_, _ = s.Dispatch(visible.PullInNeighbors{Node: 2})

	s.Reset()
	v := s.View()
	assert.Nil(t, v.SelectedNode)
	assert.Nil(t, v.SelectedEdge)
	assert.Empty(t, v.Nodes)
	assert.Empty(t, v.NodeTypes)
	assert.Equal(t, 0, v.UndoDepth)
	assert.Equal(t, 0, v.TotalNodes)

	load(t, s, alertCase(t))
	assert.Nil(t, s.View().SelectedNode, "selection does not survive into the next graph")
}

func TestRevealAddsAndSelects(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))

	tr, err := s.Reveal(3)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, tr.Added)
	v := s.View()
	require.NotNil(t, v.SelectedNode)
	assert.Equal(t, int64(3), v.SelectedNode.ID)
	assert.Equal(t, int64(3), v.Nodes[0].ID)
}

func TestToggleTypes(t *testing.T) {
	s := newSession(t)
	load(t, s, alertCase(t))

	tr, err := s.ToggleNodeType("Alert", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, tr.Removed)
	assert.NotContains(t, s.State().NodeTypes, "Alert")

	_, err = s.ToggleEdgeType("Loaded", true)
	require.NoError(t, err)
	assert.Contains(t, s.State().EdgeTypes, "Loaded")

	_, err = s.ToggleNodeType("Alert", true)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, s.State().NodeIDs(), "re-enabling a type does not bring nodes back")
}

func TestManager(t *testing.T) {
	m := session.NewManager(visible.NewEngine(mutator.Default()), session.DefaultOptions())
	s, err := m.Create("case-9")
	require.NoError(t, err)
	assert.Equal(t, "case-9", s.CaseID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID()))
	_, err = m.Get(s.ID())
	assert.True(t, errors.Is(err, session.ErrNotFound))
	assert.True(t, errors.Is(m.Delete(s.ID()), session.ErrNotFound))
	assert.Equal(t, 0, m.Len())
}

func TestManagerLimit(t *testing.T) {
	m := session.NewManager(visible.NewEngine(mutator.Default()), session.DefaultOptions())
	m.SetMaxSessions(1)
	first, err := m.Create("a")
	require.NoError(t, err)

	_, err = m.Create("b")
	assert.True(t, errors.Is(err, session.ErrTooMany))

	require.NoError(t, m.Delete(first.ID()))
	_, err = m.Create("b")
	assert.NoError(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	v := config.ViewConf{
		ExcludedEdgeTypes: []string{"Loaded"},
		SeedNodeType:      "Alert",
		SampleSize:        3,
		HistoryLimit:      20,
	}
	opts := session.OptionsFrom(v)
	assert.Equal(t, []string{"Loaded"}, opts.ExcludedEdgeTypes)
	assert.Equal(t, "Alert", opts.SeedNodeType)
	assert.Equal(t, 3, opts.SampleSize)
	assert.Equal(t, 20, opts.HistoryLimit)

	opts.ExcludedEdgeTypes[0] = "changed"
	assert.Equal(t, "Loaded", v.ExcludedEdgeTypes[0])
}

func TestUnboundedHistoryFromConfig(t *testing.T) {
	opts := session.OptionsFrom(config.ViewConf{SeedNodeType: "Alert", SampleSize: 10})
	opts.Rand = rand.New(rand.NewSource(1))
	s := session.New("s1", "case-1", visible.NewEngine(mutator.Default()), opts)
	load(t, s, alertCase(t))

	const steps = 600
	for i := 0; i < steps; i++ {
		var a visible.Action = visible.HideNode{Node: 2}
		if i%2 == 1 {
			a = visible.AddNode{Node: 2}
		}
		_, err := s.Dispatch(a)
		require.NoError(t, err)
	}
	for i := 0; i < steps; i++ {
		require.True(t, s.Undo(), "undo %d", i)
	}
	assert.False(t, s.Undo())
	for i := 0; i < steps; i++ {
		require.True(t, s.Redo(), "redo %d", i)
	}
	assert.False(t, s.Redo())
}
