package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStartGame sets first player, active player, and turn one
func TestStartGame(t *testing.T) {
	e := newTestEngine(t, 4)

	require.NoError(t, e.StartGame(2))
	s := e.Snapshot()
	assert.Equal(t, 2, s.FirstPlayerIndex)
	assert.Equal(t, 2, s.ActivePlayerIndex)
	assert.Equal(t, 1, s.TurnCount)
	assert.True(t, s.Started())

	assert.ErrorIs(t, e.StartGame(0), ErrGameAlreadyStarted)
}

// TestPassTurnFourPlayerOrder follows the 0,1,3,2 table traversal
func TestPassTurnFourPlayerOrder(t *testing.T) {
	e := newTestEngine(t, 4)
	require.NoError(t, e.StartGame(0))

	var visited []int
	for i := 0; i < 8; i++ {
		require.NoError(t, e.PassTurn())
		visited = append(visited, e.Snapshot().ActivePlayerIndex)
	}
	assert.Equal(t, []int{1, 3, 2, 0, 1, 3, 2, 0}, visited)
	// The count ticks exactly when the turn returns to the first player.
	assert.Equal(t, 3, e.Snapshot().TurnCount)
}

// TestPassTurnTwoAndThreePlayerOrder small tables pass in index order
func TestPassTurnTwoAndThreePlayerOrder(t *testing.T) {
	e := newTestEngine(t, 3)
	require.NoError(t, e.StartGame(1))

	require.NoError(t, e.PassTurn())
	assert.Equal(t, 2, e.Snapshot().ActivePlayerIndex)
	require.NoError(t, e.PassTurn())
	assert.Equal(t, 0, e.Snapshot().ActivePlayerIndex)
	assert.Equal(t, 1, e.Snapshot().TurnCount)
	require.NoError(t, e.PassTurn())
	assert.Equal(t, 1, e.Snapshot().ActivePlayerIndex)
	assert.Equal(t, 2, e.Snapshot().TurnCount)
}

// TestPassTurnSkipsEliminated knocked-out players leave the rotation
func TestPassTurnSkipsEliminated(t *testing.T) {
	e := newTestEngine(t, 4)
	require.NoError(t, e.StartGame(0))

	pending, err := e.LifeDelta(1, -40)
	require.NoError(t, err)
	pending.Confirm()

	require.NoError(t, e.PassTurn())
	assert.Equal(t, 3, e.Snapshot().ActivePlayerIndex)
}

// TestPassTurnSkipsCommanderDamageKnockout lethal commander damage removes
// a player from rotation even though their life is still positive
func TestPassTurnSkipsCommanderDamageKnockout(t *testing.T) {
	e := newTestEngine(t, 3)
	require.NoError(t, e.StartGame(0))

	pending, err := e.CommanderDamageDelta(1, 2, 0, 21)
	require.NoError(t, err)
	require.NotNil(t, pending)
	pending.Confirm()
	assert.Equal(t, 19, e.Snapshot().Players[1].Life)

	require.NoError(t, e.PassTurn())
	assert.Equal(t, 2, e.Snapshot().ActivePlayerIndex)
}

// TestPassTurnSingleSurvivor the turn passes back to the lone survivor
func TestPassTurnSingleSurvivor(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.StartGame(0))

	pending, err := e.LifeDelta(1, -40)
	require.NoError(t, err)
	pending.Confirm()

	require.NoError(t, e.PassTurn())
	s := e.Snapshot()
	assert.Equal(t, 0, s.ActivePlayerIndex)
	assert.Equal(t, 2, s.TurnCount)
}

// TestPassTurnNoEligiblePlayer leaves state unchanged and errors
func TestPassTurnNoEligiblePlayer(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.StartGame(0))

	for i := 0; i < 2; i++ {
		pending, err := e.LifeDelta(i, -40)
		require.NoError(t, err)
		pending.Confirm()
	}

	before := e.Snapshot()
	assert.ErrorIs(t, e.PassTurn(), ErrNoEligiblePlayer)
	after := e.Snapshot()
	assert.Equal(t, before.ActivePlayerIndex, after.ActivePlayerIndex)
	assert.Equal(t, before.TurnCount, after.TurnCount)
}

// TestPassTurnRecordsDurations each completed turn logs its wall-clock length
func TestPassTurnRecordsDurations(t *testing.T) {
	e := newTestEngine(t, 2)
	now := time.Unix(1700000000, 0)
	e.SetClock(func() time.Time { return now })

	require.NoError(t, e.StartGame(0))
	now = now.Add(10 * time.Second)
	require.NoError(t, e.PassTurn())
	now = now.Add(5 * time.Second)
	require.NoError(t, e.PassTurn())

	s := e.Snapshot()
	require.Len(t, s.TurnDurations, 2)
	assert.Equal(t, TurnDuration{Player: 0, Seconds: 10}, s.TurnDurations[0])
	assert.Equal(t, TurnDuration{Player: 1, Seconds: 5}, s.TurnDurations[1])
	assert.Equal(t, 2, s.TurnCount)
}

// TestRollStartingPlayer the flash animation lands on the chosen seat
func TestRollStartingPlayer(t *testing.T) {
	e := newTestEngine(t, 4)
	e.SetRand(rand.New(rand.NewSource(7)))

	var ticks []int
	chosen, err := e.RollStartingPlayer(func(seat int) { ticks = append(ticks, seat) })
	require.NoError(t, err)

	assert.GreaterOrEqual(t, chosen, 0)
	assert.Less(t, chosen, 4)
	assert.GreaterOrEqual(t, len(ticks), 15)
	assert.LessOrEqual(t, len(ticks), 24)
	assert.Equal(t, chosen, ticks[len(ticks)-1])

	s := e.Snapshot()
	assert.Equal(t, chosen, s.FirstPlayerIndex)
	assert.Equal(t, 1, s.TurnCount)

	_, err = e.RollStartingPlayer(nil)
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

// TestRollStartingPlayerTickWalkFollowsSeating consecutive ticks follow the cycle
func TestRollStartingPlayerTickWalkFollowsSeating(t *testing.T) {
	e := newTestEngine(t, 4)
	e.SetRand(rand.New(rand.NewSource(3)))

	order := ComputeSeatingOrder(4)
	pos := make(map[int]int, len(order))
	for i, seat := range order {
		pos[seat] = i
	}

	var ticks []int
	_, err := e.RollStartingPlayer(func(seat int) { ticks = append(ticks, seat) })
	require.NoError(t, err)

	for i := 1; i < len(ticks); i++ {
		assert.Equal(t, (pos[ticks[i-1]]+1)%len(order), pos[ticks[i]])
	}
}

// TestElapsedClocks game and turn timers run off the injected clock
func TestElapsedClocks(t *testing.T) {
	e := newTestEngine(t, 2)
	now := time.Unix(1700000000, 0)
	e.SetClock(func() time.Time { return now })

	assert.Equal(t, time.Duration(0), e.GameElapsed())

	require.NoError(t, e.StartGame(0))
	now = now.Add(90 * time.Second)
	require.NoError(t, e.PassTurn())
	now = now.Add(30 * time.Second)

	assert.Equal(t, 2*time.Minute, e.GameElapsed())
	assert.Equal(t, 30*time.Second, e.TurnElapsed())
}
