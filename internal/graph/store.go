package graph

import "sync/atomic"

// Store holds the graph of the currently loaded case.
// Load and Reset replace the whole graph; there are no partial updates.
// The store does not reset anything built on top of it.
type Store struct {
	current atomic.Pointer[Graph]
}

// NewStore returns a store holding an empty graph.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Load atomically replaces the stored graph. A nil graph is stored as empty.
func (s *Store) Load(g *Graph) *Graph {
	if g == nil {
		g = Empty()
	}
	s.current.Store(g)
	return g
}

// Reset replaces the stored graph with an empty one.
func (s *Store) Reset() *Graph {
	return s.Load(nil)
}

// Current returns the stored graph. It is never nil.
func (s *Store) Current() *Graph {
	return s.current.Load()
}
