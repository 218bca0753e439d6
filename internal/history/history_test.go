package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/casegraph/internal/history"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	h := history.New(0, 0)
	for i := 1; i <= 5; i++ {
		h.Push(i)
	}
	assert.Equal(t, 5, h.Present())

	for i := 0; i < 5; i++ {
		assert.True(t, h.Undo())
	}
	assert.Equal(t, 0, h.Present(), "the baseline is reached but never undone past")
	assert.False(t, h.Undo())

	for i := 0; i < 5; i++ {
		assert.True(t, h.Redo())
	}
	assert.Equal(t, 5, h.Present())
	assert.False(t, h.Redo())
}

func TestPushClearsFuture(t *testing.T) {
	h := history.New("a", 0)
	h.Push("b")
	h.Push("c")
	h.Undo()
	assert.Equal(t, 1, h.FutureLen())

	h.Push("d")
	assert.Equal(t, 0, h.FutureLen())
	assert.False(t, h.Redo())
	assert.Equal(t, "d", h.Present())
	assert.Equal(t, 2, h.PastLen())
}

func TestJumpToPast(t *testing.T) {
	h := history.New("base", 0)
	h.Push("one")
	h.Push("two")
	h.Undo()

	assert.False(t, h.JumpToPast(5))
	assert.True(t, h.JumpToPast(0))
	assert.Equal(t, "base", h.Present())
	assert.Equal(t, 0, h.PastLen())
	assert.Equal(t, 0, h.FutureLen())
}

func TestClearMakesPresentTheBaseline(t *testing.T) {
	h := history.New(0, 0)
	h.Push(1)
	h.Push(2)
	h.Clear()

	assert.Equal(t, 2, h.Present())
	assert.False(t, h.Undo())

	h.Reset(9)
	assert.Equal(t, 9, h.Present())
}

func TestLimitDropsOldest(t *testing.T) {
	h := history.New(0, 2)
	h.Push(1)
	h.Push(2)
	h.Push(3)

	assert.Equal(t, 2, h.PastLen())
	h.Undo()
	h.Undo()
	assert.Equal(t, 1, h.Present())
	assert.False(t, h.Undo())
}
