package game

import "errors"

var (
	// ErrNothingToUndo is returned when undo is requested with an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNoEligiblePlayer is returned when every player is knocked out.
	ErrNoEligiblePlayer = errors.New("all players are knocked out")
	// ErrStackFull is returned when the shared stack is at capacity.
	ErrStackFull = errors.New("stack is full")
	// ErrGameNotStarted is returned for operations that need a running turn.
	ErrGameNotStarted = errors.New("game has not started")
	// ErrGameAlreadyStarted guards against rolling a starting player twice.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrGameEnded is returned for mutations after the dashboard was produced.
	ErrGameEnded = errors.New("game has ended")
	// ErrInvalidPlayer is returned for out-of-range player indices.
	ErrInvalidPlayer = errors.New("invalid player index")
)
