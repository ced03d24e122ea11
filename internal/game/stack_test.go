package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPushStack appends entries in cast order
func TestPushStack(t *testing.T) {
	e := newTestEngine(t, 2)

	require.NoError(t, e.PushStack("Counterspell", "https://img/counterspell.jpg", 1))
	require.NoError(t, e.PushStack("Lightning Bolt", "", 0))

	s := e.Snapshot()
	require.Len(t, s.Stack, 2)
	assert.Equal(t, StackEntry{CardName: "Counterspell", ImageURL: "https://img/counterspell.jpg", Owner: 1}, s.Stack[0])
	assert.Equal(t, StackEntry{CardName: "Lightning Bolt", Owner: 0}, s.Stack[1])
}

// TestPushStackValidatesOwner entries must belong to a seated player
func TestPushStackValidatesOwner(t *testing.T) {
	e := newTestEngine(t, 2)

	assert.ErrorIs(t, e.PushStack("Opt", "", 5), ErrInvalidPlayer)
	assert.Empty(t, e.Snapshot().Stack)
}

// TestPushStackFull pushing onto a full stack is refused
func TestPushStackFull(t *testing.T) {
	e := newTestEngine(t, 2)

	for i := 0; i < MaxStackSize; i++ {
		require.NoError(t, e.PushStack(fmt.Sprintf("Spell %d", i), "", 0))
	}
	assert.ErrorIs(t, e.PushStack("One Too Many", "", 0), ErrStackFull)
	assert.Len(t, e.Snapshot().Stack, MaxStackSize)
}

// TestDuplicateStackEntry inserts an equal copy immediately after the original
func TestDuplicateStackEntry(t *testing.T) {
	e := newTestEngine(t, 2)

	require.NoError(t, e.PushStack("Fork", "", 0))
	require.NoError(t, e.PushStack("Lightning Bolt", "", 1))
	require.NoError(t, e.PushStack("Opt", "", 0))

	require.NoError(t, e.DuplicateStackEntry(1))

	s := e.Snapshot()
	require.Len(t, s.Stack, 4)
	assert.Equal(t, s.Stack[1], s.Stack[2])
	assert.Equal(t, "Opt", s.Stack[3].CardName)
}

// TestDuplicateStackEntryBounds index checks and the capacity limit
func TestDuplicateStackEntryBounds(t *testing.T) {
	e := newTestEngine(t, 2)

	assert.Error(t, e.DuplicateStackEntry(0))

	for i := 0; i < MaxStackSize; i++ {
		require.NoError(t, e.PushStack(fmt.Sprintf("Spell %d", i), "", 0))
	}
	assert.ErrorIs(t, e.DuplicateStackEntry(0), ErrStackFull)
}

// TestRemoveStackEntry splices the entry out by index
func TestRemoveStackEntry(t *testing.T) {
	e := newTestEngine(t, 2)

	require.NoError(t, e.PushStack("A", "", 0))
	require.NoError(t, e.PushStack("B", "", 0))
	require.NoError(t, e.PushStack("C", "", 1))

	require.NoError(t, e.RemoveStackEntry(1))

	s := e.Snapshot()
	require.Len(t, s.Stack, 2)
	assert.Equal(t, "A", s.Stack[0].CardName)
	assert.Equal(t, "C", s.Stack[1].CardName)

	assert.Error(t, e.RemoveStackEntry(2))
	assert.Error(t, e.RemoveStackEntry(-1))
}

// TestStackUndo removing an entry is undoable like any other mutation
func TestStackUndo(t *testing.T) {
	e := newTestEngine(t, 2)

	require.NoError(t, e.PushStack("Counterspell", "", 0))
	require.NoError(t, e.RemoveStackEntry(0))
	assert.Empty(t, e.Snapshot().Stack)

	require.NoError(t, e.Undo())
	require.Len(t, e.Snapshot().Stack, 1)
	assert.Equal(t, "Counterspell", e.Snapshot().Stack[0].CardName)
}
