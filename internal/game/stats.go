package game

import (
	"math"
	"sort"
)

// PlayerSummary is one player's line on the post-game dashboard.
type PlayerSummary struct {
	Player               int
	Name                 string
	FinalLife            int
	LifeDelta            int
	CommanderDamageTaken int
	KnockoutTurn         int // -1 when the player survived
	AvgTurnSeconds       float64
	DrawEfficiency       float64
	DamageDealt          int
	Kills                int
}

// LifePoint is one sample on a player's life-over-time line. Multiple
// events in the same turn all plot; duplicates are intentional.
type LifePoint struct {
	Turn int
	Life int
}

// GameStats is the derived aggregation produced once, at end of game.
type GameStats struct {
	Winner   int // -1 when no winner was recorded
	Rankings []int
	Players  []PlayerSummary

	AvgTurnSeconds float64
	LongestTurn    *TurnDuration
	FastestPlayer  int // lowest average turn duration, -1 when unknown
	SlowestPlayer  int

	HeatMap    [][]float64
	Kingmaker  int // -1 when nobody holds a credited knockout
	FirstBlood *FirstBlood
	LifeSeries [][]LifePoint

	Turns           int
	DurationSeconds float64
}

// EndGame finishes the session and produces the dashboard. The winner is
// the sole surviving player when exactly one remains; with several
// survivors the operator picks via pickWinner; with none, no winner is
// recorded. Producing the dashboard is terminal: further mutations fail.
func (e *Engine) EndGame(pickWinner func(alive []int) int) (*GameStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Ended {
		return nil, ErrGameEnded
	}
	if !e.state.Started() {
		return nil, ErrGameNotStarted
	}

	alive := e.state.AliveIndices()
	winner := -1
	switch {
	case len(alive) == 1:
		winner = alive[0]
	case len(alive) > 1 && pickWinner != nil:
		picked := pickWinner(append([]int(nil), alive...))
		for _, idx := range alive {
			if idx == picked {
				winner = picked
				break
			}
		}
	}

	e.state.Ended = true
	e.state.Winner = winner
	if winner >= 0 {
		e.logActionLocked("%s won the game", e.state.Players[winner].DisplayName())
	} else {
		e.logActionLocked("game ended with no winner")
	}

	stats := ComputeStats(e.state, e.now().Sub(e.state.GameStartTime).Seconds())
	e.notifyLocked()
	return stats, nil
}

// ComputeStats reduces a finished session into the dashboard aggregates.
func ComputeStats(s *SessionState, durationSeconds float64) *GameStats {
	n := len(s.Players)

	koTurn := make([]int, n)
	for i := range koTurn {
		koTurn[i] = -1
	}
	kills := make([]int, n)
	for _, ko := range s.Knockouts {
		if koTurn[ko.Player] < 0 {
			koTurn[ko.Player] = ko.Turn
		}
		// Resignations carry no killer and never count toward kingmaker.
		if ko.Killer != nil {
			kills[*ko.Killer]++
		}
	}

	turnTotals := make([]float64, n)
	turnCounts := make([]int, n)
	var allTotal float64
	var longest *TurnDuration
	for i := range s.TurnDurations {
		d := s.TurnDurations[i]
		turnTotals[d.Player] += d.Seconds
		turnCounts[d.Player]++
		allTotal += d.Seconds
		if longest == nil || d.Seconds > longest.Seconds {
			dd := d
			longest = &dd
		}
	}

	avgAll := 0.0
	if len(s.TurnDurations) > 0 {
		avgAll = allTotal / float64(len(s.TurnDurations))
	}

	fastest, slowest := -1, -1
	for i := 0; i < n; i++ {
		if turnCounts[i] == 0 {
			continue
		}
		avg := turnTotals[i] / float64(turnCounts[i])
		if fastest < 0 || avg < turnTotals[fastest]/float64(turnCounts[fastest]) {
			fastest = i
		}
		if slowest < 0 || avg > turnTotals[slowest]/float64(turnCounts[slowest]) {
			slowest = i
		}
	}

	summaries := make([]PlayerSummary, n)
	for i, p := range s.Players {
		avg := 0.0
		if turnCounts[i] > 0 {
			avg = turnTotals[i] / float64(turnCounts[i])
		}
		efficiency := 0.0
		if s.TurnCount > 0 {
			efficiency = round1(float64(p.CardsDrawn) / float64(s.TurnCount))
		}
		summaries[i] = PlayerSummary{
			Player:               i,
			Name:                 p.DisplayName(),
			FinalLife:            p.Life,
			LifeDelta:            p.Life - s.StartingLife,
			CommanderDamageTaken: p.TotalCommanderDamage(),
			KnockoutTurn:         koTurn[i],
			AvgTurnSeconds:       avg,
			DrawEfficiency:       efficiency,
			DamageDealt:          s.DamageDealt[i],
			Kills:                kills[i],
		}
	}

	return &GameStats{
		Winner:          s.Winner,
		Rankings:        computeRankings(s, koTurn),
		Players:         summaries,
		AvgTurnSeconds:  avgAll,
		LongestTurn:     longest,
		FastestPlayer:   fastest,
		SlowestPlayer:   slowest,
		HeatMap:         computeHeatMap(s),
		Kingmaker:       computeKingmaker(kills),
		FirstBlood:      s.FirstBlood,
		LifeSeries:      computeLifeSeries(s),
		Turns:           s.TurnCount,
		DurationSeconds: durationSeconds,
	}
}

// computeRankings orders players for the podium: winner first, then
// players never knocked out by life descending, then knocked-out players
// by knockout turn descending (a later knockout places higher), ties by
// current life descending.
func computeRankings(s *SessionState, koTurn []int) []int {
	var rest []int
	for i := range s.Players {
		if i != s.Winner {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		ia, ib := rest[a], rest[b]
		aKO, bKO := koTurn[ia] >= 0, koTurn[ib] >= 0
		if aKO != bKO {
			return !aKO
		}
		if aKO && koTurn[ia] != koTurn[ib] {
			return koTurn[ia] > koTurn[ib]
		}
		return s.Players[ia].Life > s.Players[ib].Life
	})

	rankings := make([]int, 0, len(s.Players))
	if s.Winner >= 0 {
		rankings = append(rankings, s.Winner)
	}
	return append(rankings, rest...)
}

// computeHeatMap builds the attacker-credit matrix: diagonal excluded,
// cell intensity proportional to the attacker's share of the maximum
// damage total. All zeros when no damage was dealt.
func computeHeatMap(s *SessionState) [][]float64 {
	n := len(s.Players)
	max := 0
	for _, v := range s.DamageDealt {
		if v > max {
			max = v
		}
	}

	grid := make([][]float64, n)
	for a := 0; a < n; a++ {
		grid[a] = make([]float64, n)
		if max == 0 {
			continue
		}
		for v := 0; v < n; v++ {
			if v == a {
				continue
			}
			grid[a][v] = float64(s.DamageDealt[a]) / float64(max)
		}
	}
	return grid
}

func computeKingmaker(kills []int) int {
	best, bestIdx := 0, -1
	for i, k := range kills {
		if k > best {
			best = k
			bestIdx = i
		}
	}
	return bestIdx
}

func computeLifeSeries(s *SessionState) [][]LifePoint {
	series := make([][]LifePoint, len(s.Players))
	for _, sample := range s.LifeHistory {
		for i, life := range sample.Lives {
			if i >= len(series) {
				break
			}
			series[i] = append(series[i], LifePoint{Turn: sample.Turn, Life: life})
		}
	}
	return series
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
