package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playThreePlayerGame drives a deterministic game used by the dashboard tests:
// P0 knocks out P1 on turn one, wounds P2, and is picked as the winner after
// two timed turns.
func playThreePlayerGame(t *testing.T) (*Engine, *GameStats) {
	t.Helper()
	e := newTestEngine(t, 3)
	now := time.Unix(1700000000, 0)
	e.SetClock(func() time.Time { return now })

	require.NoError(t, e.StartGame(0))
	require.NoError(t, e.DrawCards(0, 4))

	pending, err := e.LifeDelta(1, -40)
	require.NoError(t, err)
	pending.Confirm()

	now = now.Add(10 * time.Second)
	require.NoError(t, e.PassTurn()) // to P2; P1 is out
	now = now.Add(5 * time.Second)
	require.NoError(t, e.PassTurn()) // back to P0, turn two

	_, err = e.LifeDelta(2, -10)
	require.NoError(t, err)

	stats, err := e.EndGame(func(alive []int) int { return 0 })
	require.NoError(t, err)
	return e, stats
}

// TestEndGameDashboard winner, podium, kingmaker, and first blood line up
func TestEndGameDashboard(t *testing.T) {
	_, stats := playThreePlayerGame(t)

	assert.Equal(t, 0, stats.Winner)
	assert.Equal(t, []int{0, 2, 1}, stats.Rankings)
	assert.Equal(t, 2, stats.Turns)

	require.NotNil(t, stats.FirstBlood)
	assert.Equal(t, 0, stats.FirstBlood.Attacker)
	assert.Equal(t, 1, stats.FirstBlood.Victim)

	// P0 holds the only credited knockout.
	assert.Equal(t, 0, stats.Kingmaker)
	assert.Equal(t, 1, stats.Players[0].Kills)
	assert.Equal(t, 0, stats.Players[2].Kills)

	assert.Equal(t, 1, stats.Players[1].KnockoutTurn)
	assert.Equal(t, -1, stats.Players[0].KnockoutTurn)
	assert.Equal(t, -1, stats.Players[2].KnockoutTurn)

	assert.Equal(t, 30, stats.Players[2].FinalLife)
	assert.Equal(t, -10, stats.Players[2].LifeDelta)
	assert.Equal(t, 50, stats.Players[0].DamageDealt)
	assert.Equal(t, 2.0, stats.Players[0].DrawEfficiency)
}

// TestEndGameTurnPace averages, longest turn, fastest and slowest players
func TestEndGameTurnPace(t *testing.T) {
	_, stats := playThreePlayerGame(t)

	assert.Equal(t, 7.5, stats.AvgTurnSeconds)
	require.NotNil(t, stats.LongestTurn)
	assert.Equal(t, TurnDuration{Player: 0, Seconds: 10}, *stats.LongestTurn)
	assert.Equal(t, 2, stats.FastestPlayer)
	assert.Equal(t, 0, stats.SlowestPlayer)
	assert.Equal(t, 10.0, stats.Players[0].AvgTurnSeconds)
}

// TestEndGameHeatMap row intensity is the attacker's share of the maximum
func TestEndGameHeatMap(t *testing.T) {
	_, stats := playThreePlayerGame(t)

	require.Len(t, stats.HeatMap, 3)
	assert.Equal(t, 0.0, stats.HeatMap[0][0]) // diagonal excluded
	assert.Equal(t, 1.0, stats.HeatMap[0][1])
	assert.Equal(t, 1.0, stats.HeatMap[0][2])
	assert.Equal(t, []float64{0, 0, 0}, stats.HeatMap[1])
	assert.Equal(t, []float64{0, 0, 0}, stats.HeatMap[2])
}

// TestEndGameLifeSeries every life event plots a point per player
func TestEndGameLifeSeries(t *testing.T) {
	_, stats := playThreePlayerGame(t)

	require.Len(t, stats.LifeSeries, 3)
	// Two life events: the knockout on turn one, the hit on turn two.
	require.Len(t, stats.LifeSeries[2], 2)
	assert.Equal(t, LifePoint{Turn: 1, Life: 40}, stats.LifeSeries[2][0])
	assert.Equal(t, LifePoint{Turn: 2, Life: 30}, stats.LifeSeries[2][1])
}

// TestEndGameSingleSurvivorAutoWinner no picker needed with one player left
func TestEndGameSingleSurvivorAutoWinner(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.StartGame(0))

	pending, err := e.LifeDelta(1, -40)
	require.NoError(t, err)
	pending.Confirm()

	stats, err := e.EndGame(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Winner)
	assert.Equal(t, []int{0, 1}, stats.Rankings)
}

// TestEndGameNoWinnerWithoutPicker several survivors and no choice means no winner
func TestEndGameNoWinnerWithoutPicker(t *testing.T) {
	e := newTestEngine(t, 3)
	require.NoError(t, e.StartGame(0))

	stats, err := e.EndGame(nil)
	require.NoError(t, err)
	assert.Equal(t, -1, stats.Winner)
	assert.Len(t, stats.Rankings, 3)
}

// TestEndGamePickerMustChooseSurvivor an invalid pick records no winner
func TestEndGamePickerMustChooseSurvivor(t *testing.T) {
	e := newTestEngine(t, 3)
	require.NoError(t, e.StartGame(0))

	pending, err := e.LifeDelta(2, -40)
	require.NoError(t, err)
	pending.Confirm()

	stats, err := e.EndGame(func(alive []int) int { return 2 })
	require.NoError(t, err)
	assert.Equal(t, -1, stats.Winner)
}

// TestEndGameBeforeStart the dashboard needs a started game
func TestEndGameBeforeStart(t *testing.T) {
	e := newTestEngine(t, 2)

	_, err := e.EndGame(nil)
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

// TestEndGameIsTerminal a second end fails
func TestEndGameIsTerminal(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.StartGame(0))

	_, err := e.EndGame(func(alive []int) int { return alive[0] })
	require.NoError(t, err)
	_, err = e.EndGame(nil)
	assert.ErrorIs(t, err, ErrGameEnded)
}

// TestKingmakerExcludesResignations resignations credit nobody
func TestKingmakerExcludesResignations(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.StartGame(0))

	pending, err := e.Resign(1)
	require.NoError(t, err)
	pending.Confirm()

	stats, err := e.EndGame(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Winner)
	assert.Equal(t, -1, stats.Kingmaker)
	assert.Equal(t, 0, stats.Players[0].Kills)
}

// TestRankingsLaterKnockoutPlacesHigher knockout order decides the tail
func TestRankingsLaterKnockoutPlacesHigher(t *testing.T) {
	e := newTestEngine(t, 4)
	require.NoError(t, e.StartGame(0))

	knockOut := func(player int) {
		t.Helper()
		pending, err := e.LifeDelta(player, -40)
		require.NoError(t, err)
		pending.Confirm()
	}

	knockOut(3) // out on turn 1
	require.NoError(t, e.PassTurn())
	require.NoError(t, e.PassTurn())
	require.NoError(t, e.PassTurn()) // back to 0, turn 2
	knockOut(1) // out on turn 2

	stats, err := e.EndGame(func(alive []int) int { return 0 })
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1, 3}, stats.Rankings)
}

// TestComputeStatsHeatMapAllZerosWithoutDamage no damage means a flat grid
func TestComputeStatsHeatMapAllZerosWithoutDamage(t *testing.T) {
	s, err := NewSessionState(Setup{PlayerCount: 2, StartingLife: 40})
	require.NoError(t, err)

	stats := ComputeStats(s, 0)
	for _, row := range stats.HeatMap {
		for _, cell := range row {
			assert.Equal(t, 0.0, cell)
		}
	}
	assert.Equal(t, -1, stats.Kingmaker)
	assert.Equal(t, -1, stats.FastestPlayer)
	assert.Nil(t, stats.LongestTurn)
}
