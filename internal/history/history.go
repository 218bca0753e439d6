// Package history keeps a linear undo/redo trail of immutable values.
package history

// History holds a present value with the values before and after it.
// Values are stored as given; callers must treat them as immutable.
type History[T any] struct {
	past    []T
	present T
	future  []T
	limit   int
}

// New returns a history whose baseline is initial. A positive limit bounds how
// many past values are kept; the oldest are dropped first.
func New[T any](initial T, limit int) *History[T] {
	return &History[T]{present: initial, limit: limit}
}

// Present returns the current value.
func (h *History[T]) Present() T { return h.present }

// Push records next as the present value. The previous present moves to the
// past and the future is discarded.
func (h *History[T]) Push(next T) {
	h.past = append(h.past, h.present)
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = append([]T(nil), h.past[len(h.past)-h.limit:]...)
	}
	h.present = next
	h.future = nil
}

// Replace sets the present value without recording a step.
func (h *History[T]) Replace(v T) { h.present = v }

// Undo steps back once. It reports false when there is nothing to undo.
func (h *History[T]) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	last := len(h.past) - 1
	h.future = append(h.future, h.present)
	h.present = h.past[last]
	h.past = h.past[:last]
	return true
}

// Redo steps forward once. It reports false when there is nothing to redo.
func (h *History[T]) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	last := len(h.future) - 1
	h.past = append(h.past, h.present)
	h.present = h.future[last]
	h.future = h.future[:last]
	return true
}

// JumpToPast makes past[index] the present value. Everything after it,
// including the future, is discarded. JumpToPast(0) returns to the oldest
// recorded value. It reports false for an index out of range.
func (h *History[T]) JumpToPast(index int) bool {
	if index < 0 || index >= len(h.past) {
		return false
	}
	h.present = h.past[index]
	h.past = h.past[:index]
	h.future = nil
	return true
}

// Clear drops past and future and keeps the present as the new baseline.
func (h *History[T]) Clear() {
	h.past = nil
	h.future = nil
}

// Reset replaces the present and clears past and future.
func (h *History[T]) Reset(v T) {
	h.present = v
	h.Clear()
}

// PastLen returns how many steps can be undone.
func (h *History[T]) PastLen() int { return len(h.past) }

// FutureLen returns how many steps can be redone.
func (h *History[T]) FutureLen() int { return len(h.future) }
