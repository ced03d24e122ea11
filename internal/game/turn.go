package game

import (
	"time"
)

// Starting-player roll flashes through the seating cycle before
// committing; the tick count matches the original tracker's animation.
const (
	minRollTicks = 15
	maxRollTicks = 24
)

// RollStartingPlayer picks a uniformly random starting player and begins
// the game. onTick, when non-nil, is invoked once per animation tick with
// the seat being flashed; the final tick lands on the chosen player.
func (e *Engine) RollStartingPlayer(onTick func(seat int)) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Started() {
		return -1, ErrGameAlreadyStarted
	}

	order := e.state.SeatingOrder
	chosen := order[e.rng.Intn(len(order))]

	ticks := minRollTicks + e.rng.Intn(maxRollTicks-minRollTicks+1)
	if onTick != nil {
		// Walk the cycle backwards from the landing seat so the flash
		// ends exactly on the chosen player.
		start := 0
		for i, seat := range order {
			if seat == chosen {
				start = i
				break
			}
		}
		for i := ticks - 1; i >= 0; i-- {
			idx := (start - i) % len(order)
			if idx < 0 {
				idx += len(order)
			}
			onTick(order[idx])
		}
	}

	e.startGameLocked(chosen)
	return chosen, nil
}

// StartGame begins the game with an explicitly chosen starting player.
func (e *Engine) StartGame(firstPlayer int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(firstPlayer); err != nil {
		return err
	}
	if e.state.Started() {
		return ErrGameAlreadyStarted
	}
	e.startGameLocked(firstPlayer)
	return nil
}

func (e *Engine) startGameLocked(firstPlayer int) {
	now := e.now()
	e.state.FirstPlayerIndex = firstPlayer
	e.state.ActivePlayerIndex = firstPlayer
	e.state.TurnCount = 1
	e.state.GameStartTime = now
	e.state.TurnStartTime = now
	e.logActionLocked("%s started turn %d", e.state.Players[firstPlayer].DisplayName(), e.state.TurnCount)
	e.notifyLocked()
}

// PassTurn ends the active player's turn and hands it to the next player
// in seating order who is still in the game. The turn count increments
// exactly when the turn comes back around to the first player. When no
// eligible player remains, the turn state is left unchanged and
// ErrNoEligiblePlayer is returned for the operator.
func (e *Engine) PassTurn() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Ended {
		return ErrGameEnded
	}

	next, ok := e.nextEligibleLocked()
	if !ok {
		return ErrNoEligiblePlayer
	}

	now := e.now()
	if e.state.Started() {
		active := e.state.ActivePlayerIndex
		elapsed := now.Sub(e.state.TurnStartTime).Seconds()
		e.state.TurnDurations = append(e.state.TurnDurations, TurnDuration{
			Player:  active,
			Seconds: elapsed,
		})
		e.logActionLocked("%s ended turn", e.state.Players[active].DisplayName())
	}

	firstAssignment := e.state.FirstPlayerIndex < 0
	e.state.ActivePlayerIndex = next
	if firstAssignment {
		e.state.FirstPlayerIndex = next
		e.state.TurnCount = 1
	} else if next == e.state.FirstPlayerIndex {
		e.state.TurnCount++
	}
	e.state.TurnStartTime = now
	if firstAssignment {
		e.state.GameStartTime = now
	}

	e.logActionLocked("%s started turn %d", e.state.Players[next].DisplayName(), e.state.TurnCount)
	e.notifyLocked()
	return nil
}

// nextEligibleLocked walks the seating cycle from the seat after the
// active player and returns the first player still in the game. With a
// single survivor the turn passes back to them.
func (e *Engine) nextEligibleLocked() (int, bool) {
	order := e.state.SeatingOrder
	start := 0
	if e.state.Started() {
		for i, seat := range order {
			if seat == e.state.ActivePlayerIndex {
				start = i + 1
				break
			}
		}
	}
	for i := 0; i < len(order); i++ {
		seat := order[(start+i)%len(order)]
		if !e.state.Eliminated(seat) {
			return seat, true
		}
	}
	return -1, false
}

// GameElapsed returns wall-clock time since the game started.
func (e *Engine) GameElapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Started() {
		return 0
	}
	return e.now().Sub(e.state.GameStartTime)
}

// TurnElapsed returns wall-clock time since the current turn started.
func (e *Engine) TurnElapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Started() {
		return 0
	}
	return e.now().Sub(e.state.TurnStartTime)
}
