package game

import "fmt"

// PlanarFace is the outcome of a planar die roll.
type PlanarFace string

const (
	PlanarBlank PlanarFace = "blank"
	PlanarChaos PlanarFace = "chaos"
	PlanarWalk  PlanarFace = "planeswalk"
)

// RollDie rolls an n-sided die (d6, d12, d20, ...), logs the result, and
// returns it. Results are uniform in [1, sides].
func (e *Engine) RollDie(sides int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sides < 2 {
		return 0, fmt.Errorf("die must have at least 2 sides")
	}
	result := e.rng.Intn(sides) + 1
	e.logActionLocked("rolled a d%d: %d", sides, result)
	e.notifyLocked()
	return result, nil
}

// FlipCoin flips a coin. Returns true for heads.
func (e *Engine) FlipCoin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	heads := e.rng.Intn(2) == 0
	if heads {
		e.logActionLocked("flipped a coin: heads")
	} else {
		e.logActionLocked("flipped a coin: tails")
	}
	e.notifyLocked()
	return heads
}

// RollPlanarDie rolls the six-sided planar die: one chaos face, one
// planeswalk face, four blanks.
func (e *Engine) RollPlanarDie() PlanarFace {
	e.mu.Lock()
	defer e.mu.Unlock()

	var face PlanarFace
	switch e.rng.Intn(6) {
	case 0:
		face = PlanarChaos
	case 1:
		face = PlanarWalk
	default:
		face = PlanarBlank
	}
	e.logActionLocked("rolled the planar die: %s", face)
	e.notifyLocked()
	return face
}
