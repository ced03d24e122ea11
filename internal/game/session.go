package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Format identifies the constructed format chosen on the setup screen.
// Only FormatCommander enables the commander-specific panels; the core
// session invariants are identical across formats.
type Format string

const (
	FormatCommander Format = "commander"
	FormatStandard  Format = "standard"
	FormatModern    Format = "modern"
	FormatLegacy    Format = "legacy"
	FormatVintage   Format = "vintage"
	FormatPioneer   Format = "pioneer"
	FormatPauper    Format = "pauper"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatCommander, FormatStandard, FormatModern, FormatLegacy,
		FormatVintage, FormatPioneer, FormatPauper:
		return true
	}
	return false
}

// DayNight is the session's two-state day/night marker.
type DayNight string

const (
	Day   DayNight = "day"
	Night DayNight = "night"
)

// Plane is the current planechase card, display data only.
type Plane struct {
	Name     string
	ImageURL string
}

// StackEntry is one pending effect on the shared stack tracker.
type StackEntry struct {
	CardName string
	ImageURL string
	Owner    int
}

// LogEntry is one line of the human-readable action log.
type LogEntry struct {
	Timestamp time.Time
	TurnLabel string
	Message   string
}

// LifeSample captures every player's life total after a life-affecting event.
type LifeSample struct {
	Turn  int
	Lives []int
}

// Knockout records a player's elimination. Killer is nil for resignations.
type Knockout struct {
	Player int
	Killer *int
	Turn   int
	Time   time.Time
}

// FirstBlood records the first life loss inflicted by an active player
// on an opponent.
type FirstBlood struct {
	Attacker int
	Victim   int
	Turn     int
}

// TurnDuration records the wall-clock length of one completed turn.
type TurnDuration struct {
	Player  int
	Seconds float64
}

// Session limits.
const (
	MaxStackSize   = 50
	MaxUndoHistory = 50

	minPlayers = 2
	maxPlayers = 4
)

// SessionState is the aggregate state of one tracked game. All mutation
// routes through the Engine so the snapshot/log/clamp contract holds;
// nothing outside this package writes fields directly.
type SessionState struct {
	ID           string
	Format       Format
	StartingLife int

	Players           []*PlayerRecord
	SeatingOrder      []int
	ActivePlayerIndex int // -1 before the first turn
	TurnCount         int
	FirstPlayerIndex  int

	MonarchIndex        int
	InitiativeIndex     int
	RingBearerIndex     int
	RingTemptationCount int
	DayNight            DayNight
	CurrentPlane        *Plane

	Stack       []StackEntry
	ActionLog   []LogEntry
	LifeHistory []LifeSample

	DamageDealt          map[int]int
	CommanderDamageDealt map[int]int
	FirstBlood           *FirstBlood
	Knockouts            []Knockout

	GameStartTime time.Time
	TurnStartTime time.Time
	TurnDurations []TurnDuration

	Ended  bool
	Winner int // -1 until a winner is recorded
}

// Setup holds the choices made on the setup screen.
type Setup struct {
	PlayerCount  int
	StartingLife int
	Format       Format
}

// NewSessionState creates a fresh session for the given setup.
func NewSessionState(setup Setup) (*SessionState, error) {
	if setup.PlayerCount < minPlayers || setup.PlayerCount > maxPlayers {
		return nil, fmt.Errorf("player count %d out of range [%d,%d]", setup.PlayerCount, minPlayers, maxPlayers)
	}
	if setup.StartingLife <= 0 {
		return nil, fmt.Errorf("starting life %d must be positive", setup.StartingLife)
	}
	format := setup.Format
	if format == "" {
		format = FormatCommander
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unknown format %q", format)
	}

	s := &SessionState{
		ID:                   uuid.NewString(),
		Format:               format,
		StartingLife:         setup.StartingLife,
		Players:              make([]*PlayerRecord, setup.PlayerCount),
		SeatingOrder:         ComputeSeatingOrder(setup.PlayerCount),
		ActivePlayerIndex:    -1,
		FirstPlayerIndex:     -1,
		MonarchIndex:         -1,
		InitiativeIndex:      -1,
		RingBearerIndex:      -1,
		DayNight:             Day,
		DamageDealt:          make(map[int]int),
		CommanderDamageDealt: make(map[int]int),
		Winner:               -1,
	}
	for i := range s.Players {
		s.Players[i] = NewPlayerRecord(i, setup.StartingLife)
		s.DamageDealt[i] = 0
		s.CommanderDamageDealt[i] = 0
	}
	return s, nil
}

// ComputeSeatingOrder returns the fixed clockwise traversal used for turn
// passing. Two and three player tables match index order; four players sit
// around a 2x2 grid, so visual adjacency is 0,1,3,2.
func ComputeSeatingOrder(playerCount int) []int {
	if playerCount == 4 {
		return []int{0, 1, 3, 2}
	}
	order := make([]int, playerCount)
	for i := range order {
		order[i] = i
	}
	return order
}

// AliveCount returns the number of players still in the game.
func (s *SessionState) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive() {
			n++
		}
	}
	return n
}

// AliveIndices returns the indices of players still in the game.
func (s *SessionState) AliveIndices() []int {
	var alive []int
	for i, p := range s.Players {
		if p.Alive() {
			alive = append(alive, i)
		}
	}
	return alive
}

// KnockedOut reports whether a knockout has been recorded for the player.
// Lethal commander damage knocks a player out while their life total can
// still be positive, so this is not the same check as Alive.
func (s *SessionState) KnockedOut(player int) bool {
	for _, ko := range s.Knockouts {
		if ko.Player == player {
			return true
		}
	}
	return false
}

// Eliminated reports whether the player is out of the turn rotation.
func (s *SessionState) Eliminated(player int) bool {
	return s.Players[player].Life <= 0 || s.KnockedOut(player)
}

// Started reports whether the first turn has begun.
func (s *SessionState) Started() bool {
	return s.ActivePlayerIndex >= 0
}

// Copy creates a deep, structural clone of the session state. Used for
// undo snapshots so that fields added later are never silently dropped
// the way a JSON round-trip would drop them.
func (s *SessionState) Copy() *SessionState {
	cpy := &SessionState{
		ID:                   s.ID,
		Format:               s.Format,
		StartingLife:         s.StartingLife,
		Players:              make([]*PlayerRecord, len(s.Players)),
		SeatingOrder:         append([]int(nil), s.SeatingOrder...),
		ActivePlayerIndex:    s.ActivePlayerIndex,
		TurnCount:            s.TurnCount,
		FirstPlayerIndex:     s.FirstPlayerIndex,
		MonarchIndex:         s.MonarchIndex,
		InitiativeIndex:      s.InitiativeIndex,
		RingBearerIndex:      s.RingBearerIndex,
		RingTemptationCount:  s.RingTemptationCount,
		DayNight:             s.DayNight,
		Stack:                append([]StackEntry(nil), s.Stack...),
		ActionLog:            append([]LogEntry(nil), s.ActionLog...),
		Knockouts:            append([]Knockout(nil), s.Knockouts...),
		TurnDurations:        append([]TurnDuration(nil), s.TurnDurations...),
		DamageDealt:          make(map[int]int, len(s.DamageDealt)),
		CommanderDamageDealt: make(map[int]int, len(s.CommanderDamageDealt)),
		GameStartTime:        s.GameStartTime,
		TurnStartTime:        s.TurnStartTime,
		Ended:                s.Ended,
		Winner:               s.Winner,
	}
	for i, p := range s.Players {
		cpy.Players[i] = p.Copy()
	}
	if s.CurrentPlane != nil {
		pl := *s.CurrentPlane
		cpy.CurrentPlane = &pl
	}
	cpy.LifeHistory = make([]LifeSample, len(s.LifeHistory))
	for i, sample := range s.LifeHistory {
		cpy.LifeHistory[i] = LifeSample{Turn: sample.Turn, Lives: append([]int(nil), sample.Lives...)}
	}
	for k, v := range s.DamageDealt {
		cpy.DamageDealt[k] = v
	}
	for k, v := range s.CommanderDamageDealt {
		cpy.CommanderDamageDealt[k] = v
	}
	if s.FirstBlood != nil {
		fb := *s.FirstBlood
		cpy.FirstBlood = &fb
	}
	for i := range cpy.Knockouts {
		if s.Knockouts[i].Killer != nil {
			k := *s.Knockouts[i].Killer
			cpy.Knockouts[i].Killer = &k
		}
	}
	return cpy
}
