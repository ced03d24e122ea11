package server

import (
	"time"

	"github.com/magefree/mage-tracker-go/internal/game"
)

// StateView is the JSON shape pushed to connected clients. It mirrors
// the session state with the wall-clock elapsed values precomputed so
// clients never need to agree with the server about time.
type StateView struct {
	ID           string `json:"id"`
	Format       string `json:"format"`
	StartingLife int    `json:"startingLife"`

	Players      []PlayerView `json:"players"`
	SeatingOrder []int        `json:"seatingOrder"`
	ActivePlayer int          `json:"activePlayer"`
	FirstPlayer  int          `json:"firstPlayer"`
	TurnCount    int          `json:"turnCount"`
	Started      bool         `json:"started"`
	Ended        bool         `json:"ended"`
	Winner       int          `json:"winner"`

	Monarch        int         `json:"monarch"`
	Initiative     int         `json:"initiative"`
	RingBearer     int         `json:"ringBearer"`
	RingTemptation int         `json:"ringTemptation"`
	DayNight       string      `json:"dayNight"`
	CurrentPlane   *game.Plane `json:"currentPlane,omitempty"`

	Stack []StackEntryView `json:"stack"`
	Log   []LogEntryView   `json:"log"`

	GameElapsedS float64 `json:"gameElapsedSeconds"`
	TurnElapsedS float64 `json:"turnElapsedSeconds"`
	UndoDepth    int     `json:"undoDepth"`
}

// PlayerView is one player's panel.
type PlayerView struct {
	Name            string               `json:"name"`
	Commanders      []*game.Commander    `json:"commanders"`
	Life            int                  `json:"life"`
	Eliminated      bool                 `json:"eliminated"`
	Counters        map[string]int       `json:"counters"`
	Mana            map[string]int       `json:"mana"`
	CommanderDamage map[string]int       `json:"commanderDamage"`
	Rotated         bool                 `json:"rotated"`
	Mulligans       int                  `json:"mulligans"`
	CardsInHand     int                  `json:"cardsInHand"`
	CardsDrawn      int                  `json:"cardsDrawn"`
	Planeswalkers   []game.Planeswalker  `json:"planeswalkers"`
	CitysBlessing   bool                 `json:"citysBlessing"`
	Dungeon         *game.DungeonProgress `json:"dungeon,omitempty"`
}

// StackEntryView is one stack card.
type StackEntryView struct {
	CardName string `json:"cardName"`
	ImageURL string `json:"imageUrl"`
	Owner    int    `json:"owner"`
}

// LogEntryView is one action log line.
type LogEntryView struct {
	Time    time.Time `json:"time"`
	Turn    string    `json:"turn"`
	Message string    `json:"message"`
}

// buildView reduces an engine snapshot to the client payload.
func buildView(e *game.Engine) StateView {
	s := e.Snapshot()

	view := StateView{
		ID:             s.ID,
		Format:         string(s.Format),
		StartingLife:   s.StartingLife,
		Players:        make([]PlayerView, len(s.Players)),
		SeatingOrder:   s.SeatingOrder,
		ActivePlayer:   s.ActivePlayerIndex,
		FirstPlayer:    s.FirstPlayerIndex,
		TurnCount:      s.TurnCount,
		Started:        s.Started(),
		Ended:          s.Ended,
		Winner:         s.Winner,
		Monarch:        s.MonarchIndex,
		Initiative:     s.InitiativeIndex,
		RingBearer:     s.RingBearerIndex,
		RingTemptation: s.RingTemptationCount,
		DayNight:       string(s.DayNight),
		CurrentPlane:   s.CurrentPlane,
		Stack:          make([]StackEntryView, len(s.Stack)),
		Log:            make([]LogEntryView, len(s.ActionLog)),
		GameElapsedS:   e.GameElapsed().Seconds(),
		TurnElapsedS:   e.TurnElapsed().Seconds(),
		UndoDepth:      e.UndoDepth(),
	}

	for i, p := range s.Players {
		counters := make(map[string]int)
		for kind, v := range p.Counters.Snapshot() {
			counters[string(kind)] = v
		}
		manaPool := make(map[string]int)
		for color, v := range p.Mana.Snapshot() {
			manaPool[string(color)] = v
		}
		view.Players[i] = PlayerView{
			Name:            p.DisplayName(),
			Commanders:      []*game.Commander{p.Commanders[0], p.Commanders[1]},
			Life:            p.Life,
			Eliminated:      s.Eliminated(i),
			Counters:        counters,
			Mana:            manaPool,
			CommanderDamage: p.CommanderDamage,
			Rotated:         p.Rotated,
			Mulligans:       p.Mulligans,
			CardsInHand:     p.CardsInHand,
			CardsDrawn:      p.CardsDrawn,
			Planeswalkers:   p.Planeswalkers,
			CitysBlessing:   p.CitysBlessing,
			Dungeon:         p.Dungeon,
		}
	}
	for i, entry := range s.Stack {
		view.Stack[i] = StackEntryView{CardName: entry.CardName, ImageURL: entry.ImageURL, Owner: entry.Owner}
	}
	for i, entry := range s.ActionLog {
		view.Log[i] = LogEntryView{Time: entry.Timestamp, Turn: entry.TurnLabel, Message: entry.Message}
	}
	return view
}
