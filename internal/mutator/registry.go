package mutator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrUnknown is returned by Get for names that were never registered.
var ErrUnknown = errors.New("unknown mutator")

// Registry maps mutator names to implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	mutators map[string]Mutator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{mutators: make(map[string]Mutator)}
}

// Default returns a registry holding the built-in traversals.
func Default() *Registry {
	r := NewRegistry()
	r.Register(ForwardTravel{})
	r.Register(BackwardTravel{})
	r.Register(EdgeEndpoints{})
	return r
}

// Register adds a mutator. Panics on a duplicate name to surface misconfiguration early.
func (r *Registry) Register(m Mutator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.mutators[m.Name()]; exists {
		panic(fmt.Sprintf("mutator registry: duplicate name %q", m.Name()))
	}
	r.mutators[m.Name()] = m
}

// Get returns the mutator registered under name.
func (r *Registry) Get(name string) (Mutator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mutators[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "%q", name)
	}
	return m, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.mutators))
	for k := range r.mutators {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Describe returns name → description for every registered mutator.
func (r *Registry) Describe() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.mutators))
	for k, m := range r.mutators {
		out[k] = m.Description()
	}
	return out
}
