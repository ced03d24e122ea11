package game

import (
	"fmt"
	"strings"

	"github.com/magefree/mage-tracker-go/internal/game/counters"
	"github.com/magefree/mage-tracker-go/internal/game/mana"
)

// Commander is an opaque card record supplied by the lookup collaborator.
// The tracker never validates legality; it only displays what it is given.
type Commander struct {
	Name          string
	ArtURL        string
	ColorIdentity []string
	HasPartner    bool
}

// Copy creates a deep copy of the commander record.
func (c *Commander) Copy() *Commander {
	if c == nil {
		return nil
	}
	cpy := *c
	cpy.ColorIdentity = append([]string(nil), c.ColorIdentity...)
	return &cpy
}

// Planeswalker is a loyalty tracker entry owned by one player.
type Planeswalker struct {
	Name     string
	ImageURL string
	Loyalty  int
}

// DungeonProgress records a player's position inside a dungeon.
// RoomIndex advances without an upper bound; the operator tracks
// completion against the dungeon card itself.
type DungeonProgress struct {
	DungeonID string
	RoomIndex int
}

// PlayerRecord is the per-player mutable record of the session.
type PlayerRecord struct {
	Name            string
	Commanders      [2]*Commander
	Life            int
	Counters        *counters.Set
	Mana            *mana.Pool
	CommanderDamage map[string]int // "attackerIndex-commanderSlot" -> total
	Rotated         bool
	Mulligans       int
	CardsInHand     int
	CardsDrawn      int
	CardsDiscarded  int
	Planeswalkers   []Planeswalker
	CitysBlessing   bool
	Dungeon         *DungeonProgress
}

// NewPlayerRecord creates a player record at the given starting life.
func NewPlayerRecord(index, startingLife int) *PlayerRecord {
	return &PlayerRecord{
		Name:            fmt.Sprintf("Player %d", index+1),
		Life:            startingLife,
		Counters:        counters.NewSet(),
		Mana:            mana.NewPool(),
		CommanderDamage: make(map[string]int),
		CardsInHand:     openingHandSize,
	}
}

// DisplayName returns the name shown on the player's panel: derived from
// assigned commanders when present, otherwise the manual label. Partner
// pairs show both first names joined with an ampersand.
func (p *PlayerRecord) DisplayName() string {
	first, second := p.Commanders[0], p.Commanders[1]
	switch {
	case first != nil && second != nil:
		return firstName(first.Name) + " & " + firstName(second.Name)
	case first != nil:
		return first.Name
	default:
		return p.Name
	}
}

func firstName(full string) string {
	if i := strings.Index(full, ","); i >= 0 {
		return full[:i]
	}
	return full
}

// TotalCommanderDamage sums all commander damage taken by this player.
func (p *PlayerRecord) TotalCommanderDamage() int {
	total := 0
	for _, v := range p.CommanderDamage {
		total += v
	}
	return total
}

// Alive reports whether the player is still in the game.
func (p *PlayerRecord) Alive() bool {
	return p.Life > 0
}

// Copy creates a deep copy of the player record.
func (p *PlayerRecord) Copy() *PlayerRecord {
	cpy := &PlayerRecord{
		Name:            p.Name,
		Life:            p.Life,
		Counters:        p.Counters.Copy(),
		Mana:            p.Mana.Copy(),
		CommanderDamage: make(map[string]int, len(p.CommanderDamage)),
		Rotated:         p.Rotated,
		Mulligans:       p.Mulligans,
		CardsInHand:     p.CardsInHand,
		CardsDrawn:      p.CardsDrawn,
		CardsDiscarded:  p.CardsDiscarded,
		CitysBlessing:   p.CitysBlessing,
	}
	cpy.Commanders[0] = p.Commanders[0].Copy()
	cpy.Commanders[1] = p.Commanders[1].Copy()
	for k, v := range p.CommanderDamage {
		cpy.CommanderDamage[k] = v
	}
	cpy.Planeswalkers = append([]Planeswalker(nil), p.Planeswalkers...)
	if p.Dungeon != nil {
		d := *p.Dungeon
		cpy.Dungeon = &d
	}
	return cpy
}

const openingHandSize = 7

// HandSizeAfterMulligans returns the hand size after n mulligans.
// The first mulligan is free (London-style house rule the tracker has
// always used); each further mulligan costs a card down to a floor of one.
func HandSizeAfterMulligans(n int) int {
	if n <= 1 {
		return openingHandSize
	}
	size := openingHandSize - (n - 1)
	if size < 1 {
		size = 1
	}
	return size
}

// CommanderDamageKey builds a commander-damage map key for the given
// attacking seat and commander slot.
func CommanderDamageKey(attackerIndex, slot int) string {
	return fmt.Sprintf("%d-%d", attackerIndex, slot)
}
