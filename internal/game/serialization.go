package game

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/magefree/mage-tracker-go/internal/game/counters"
	"github.com/magefree/mage-tracker-go/internal/game/mana"
)

// CurrentSchemaVersion is the save-format version written by this build.
// Version 1 saves predate the version field and key commander damage by
// bare opponent index; migrateSnapshot upgrades them on load.
const CurrentSchemaVersion = 2

// Snapshot is the JSON wire form of a SessionState. Fields whose default
// is not the zero value are pointers so a missing field in an older save
// falls back to the fresh-session default instead of a bogus zero.
type Snapshot struct {
	SchemaVersion int       `json:"schemaVersion,omitempty"`
	SavedAt       time.Time `json:"savedAt"`

	ID           string `json:"id"`
	Format       string `json:"format"`
	StartingLife *int   `json:"startingLife"`

	Players      []PlayerSnapshot `json:"players"`
	SeatingOrder []int            `json:"seatingOrder"`
	ActivePlayer *int             `json:"activePlayer"`
	TurnCount    *int             `json:"turnCount"`
	FirstPlayer  *int             `json:"firstPlayer"`

	Monarch        *int   `json:"monarch"`
	Initiative     *int   `json:"initiative"`
	RingBearer     *int   `json:"ringBearer"`
	RingTemptation int    `json:"ringTemptation"`
	DayNight       string `json:"dayNight"`
	CurrentPlane   *Plane `json:"currentPlane,omitempty"`

	Stack         []StackEntry   `json:"stack"`
	ActionLog     []LogSnapshot  `json:"log"`
	LifeHistory   []LifeSample   `json:"lifeHistory"`
	Knockouts     []Knockout     `json:"knockouts"`
	FirstBlood    *FirstBlood    `json:"firstBlood,omitempty"`
	TurnDurations []TurnDuration `json:"turnDurations"`

	DamageDealt          map[int]int `json:"damageDealt"`
	CommanderDamageDealt map[int]int `json:"commanderDamageDealt"`

	GameStart time.Time `json:"gameStart"`
	TurnStart time.Time `json:"turnStart"`

	Ended  bool `json:"ended"`
	Winner *int `json:"winner"`
}

// PlayerSnapshot is the JSON wire form of a PlayerRecord.
type PlayerSnapshot struct {
	Name            string          `json:"name"`
	Commanders      []*Commander    `json:"commanders"`
	Life            *int            `json:"life"`
	Counters        map[string]int  `json:"counters"`
	Mana            map[string]int  `json:"mana"`
	CommanderDamage map[string]int  `json:"commanderDamage"`
	Rotated         bool            `json:"rotated"`
	Mulligans       int             `json:"mulligans"`
	CardsInHand     *int            `json:"cardsInHand"`
	CardsDrawn      int             `json:"cardsDrawn"`
	CardsDiscarded  int             `json:"cardsDiscarded"`
	Planeswalkers   []Planeswalker  `json:"planeswalkers"`
	CitysBlessing   bool            `json:"citysBlessing"`
	Dungeon         *DungeonProgress `json:"dungeon,omitempty"`
}

// LogSnapshot is the JSON wire form of a LogEntry.
type LogSnapshot struct {
	Time    time.Time `json:"time"`
	Turn    string    `json:"turn"`
	Message string    `json:"message"`
}

// MarshalSession serializes the session wholesale for the autosave store.
func MarshalSession(s *SessionState, savedAt time.Time) ([]byte, error) {
	snap := Snapshot{
		SchemaVersion:        CurrentSchemaVersion,
		SavedAt:              savedAt,
		ID:                   s.ID,
		Format:               string(s.Format),
		StartingLife:         intPtr(s.StartingLife),
		Players:              make([]PlayerSnapshot, len(s.Players)),
		SeatingOrder:         s.SeatingOrder,
		ActivePlayer:         intPtr(s.ActivePlayerIndex),
		TurnCount:            intPtr(s.TurnCount),
		FirstPlayer:          intPtr(s.FirstPlayerIndex),
		Monarch:              intPtr(s.MonarchIndex),
		Initiative:           intPtr(s.InitiativeIndex),
		RingBearer:           intPtr(s.RingBearerIndex),
		RingTemptation:       s.RingTemptationCount,
		DayNight:             string(s.DayNight),
		CurrentPlane:         s.CurrentPlane,
		Stack:                s.Stack,
		ActionLog:            make([]LogSnapshot, len(s.ActionLog)),
		LifeHistory:          s.LifeHistory,
		Knockouts:            s.Knockouts,
		FirstBlood:           s.FirstBlood,
		TurnDurations:        s.TurnDurations,
		DamageDealt:          s.DamageDealt,
		CommanderDamageDealt: s.CommanderDamageDealt,
		GameStart:            s.GameStartTime,
		TurnStart:            s.TurnStartTime,
		Ended:                s.Ended,
		Winner:               intPtr(s.Winner),
	}
	for i, p := range s.Players {
		snap.Players[i] = marshalPlayer(p)
	}
	for i, entry := range s.ActionLog {
		snap.ActionLog[i] = LogSnapshot{Time: entry.Timestamp, Turn: entry.TurnLabel, Message: entry.Message}
	}
	return json.Marshal(&snap)
}

func marshalPlayer(p *PlayerRecord) PlayerSnapshot {
	cs := make(map[string]int)
	for k, v := range p.Counters.Snapshot() {
		cs[string(k)] = v
	}
	ms := make(map[string]int)
	for c, v := range p.Mana.Snapshot() {
		ms[string(c)] = v
	}
	return PlayerSnapshot{
		Name:            p.Name,
		Commanders:      []*Commander{p.Commanders[0], p.Commanders[1]},
		Life:            intPtr(p.Life),
		Counters:        cs,
		Mana:            ms,
		CommanderDamage: p.CommanderDamage,
		Rotated:         p.Rotated,
		Mulligans:       p.Mulligans,
		CardsInHand:     intPtr(p.CardsInHand),
		CardsDrawn:      p.CardsDrawn,
		CardsDiscarded:  p.CardsDiscarded,
		Planeswalkers:   p.Planeswalkers,
		CitysBlessing:   p.CitysBlessing,
		Dungeon:         p.Dungeon,
	}
}

// UnmarshalSession restores a session from a stored blob. The merge is
// schema tolerant: after migration, every missing field falls back to
// the value a freshly constructed session would have. Wall clocks resume
// with the pre-save elapsed time preserved across the reload gap.
func UnmarshalSession(data []byte, now time.Time) (*SessionState, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to load saved game: %w", err)
	}
	if err := migrateSnapshot(&snap); err != nil {
		return nil, err
	}
	if len(snap.Players) < minPlayers || len(snap.Players) > maxPlayers {
		return nil, fmt.Errorf("failed to load saved game: %d players", len(snap.Players))
	}

	startingLife := intOr(snap.StartingLife, 40)
	format := Format(snap.Format)
	if !format.Valid() {
		format = FormatCommander
	}

	s, err := NewSessionState(Setup{
		PlayerCount:  len(snap.Players),
		StartingLife: startingLife,
		Format:       format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load saved game: %w", err)
	}

	if snap.ID != "" {
		s.ID = snap.ID
	}
	if len(snap.SeatingOrder) == len(s.Players) {
		s.SeatingOrder = append([]int(nil), snap.SeatingOrder...)
	}
	s.ActivePlayerIndex = intOr(snap.ActivePlayer, -1)
	s.TurnCount = intOr(snap.TurnCount, 0)
	s.FirstPlayerIndex = intOr(snap.FirstPlayer, -1)
	s.MonarchIndex = intOr(snap.Monarch, -1)
	s.InitiativeIndex = intOr(snap.Initiative, -1)
	s.RingBearerIndex = intOr(snap.RingBearer, -1)
	s.RingTemptationCount = snap.RingTemptation
	if snap.DayNight == string(Night) {
		s.DayNight = Night
	}
	s.CurrentPlane = snap.CurrentPlane
	s.Stack = append([]StackEntry(nil), snap.Stack...)
	s.ActionLog = make([]LogEntry, len(snap.ActionLog))
	for i, entry := range snap.ActionLog {
		s.ActionLog[i] = LogEntry{Timestamp: entry.Time, TurnLabel: entry.Turn, Message: entry.Message}
	}
	s.LifeHistory = append([]LifeSample(nil), snap.LifeHistory...)
	s.Knockouts = append([]Knockout(nil), snap.Knockouts...)
	s.FirstBlood = snap.FirstBlood
	s.TurnDurations = append([]TurnDuration(nil), snap.TurnDurations...)
	for k, v := range snap.DamageDealt {
		if k >= 0 && k < len(s.Players) {
			s.DamageDealt[k] = v
		}
	}
	for k, v := range snap.CommanderDamageDealt {
		if k >= 0 && k < len(s.Players) {
			s.CommanderDamageDealt[k] = v
		}
	}
	s.Ended = snap.Ended
	s.Winner = intOr(snap.Winner, -1)

	for i, ps := range snap.Players {
		restorePlayer(s.Players[i], ps)
	}

	// Resume the wall clocks so elapsed time carries across the gap.
	if !snap.SavedAt.IsZero() {
		if !snap.GameStart.IsZero() {
			s.GameStartTime = now.Add(-snap.SavedAt.Sub(snap.GameStart))
		}
		if !snap.TurnStart.IsZero() {
			s.TurnStartTime = now.Add(-snap.SavedAt.Sub(snap.TurnStart))
		}
	} else {
		s.GameStartTime = snap.GameStart
		s.TurnStartTime = snap.TurnStart
	}

	return s, nil
}

func restorePlayer(p *PlayerRecord, snap PlayerSnapshot) {
	if snap.Name != "" {
		p.Name = snap.Name
	}
	for i := 0; i < 2 && i < len(snap.Commanders); i++ {
		p.Commanders[i] = snap.Commanders[i].Copy()
	}
	p.Life = intOr(snap.Life, p.Life)
	cs := make(map[counters.Kind]int, len(snap.Counters))
	for k, v := range snap.Counters {
		cs[counters.Kind(k)] = v
	}
	p.Counters.Restore(cs)
	ms := make(map[mana.Color]int, len(snap.Mana))
	for k, v := range snap.Mana {
		ms[mana.Color(k)] = v
	}
	p.Mana.Restore(ms)
	p.CommanderDamage = make(map[string]int, len(snap.CommanderDamage))
	for k, v := range snap.CommanderDamage {
		if v > 0 {
			p.CommanderDamage[k] = v
		}
	}
	p.Rotated = snap.Rotated
	p.Mulligans = snap.Mulligans
	p.CardsInHand = intOr(snap.CardsInHand, p.CardsInHand)
	p.CardsDrawn = snap.CardsDrawn
	p.CardsDiscarded = snap.CardsDiscarded
	p.Planeswalkers = append([]Planeswalker(nil), snap.Planeswalkers...)
	p.CitysBlessing = snap.CitysBlessing
	p.Dungeon = snap.Dungeon
}

// migrateSnapshot upgrades older save formats in place. Unknown newer
// versions are rejected rather than half-loaded.
func migrateSnapshot(snap *Snapshot) error {
	version := snap.SchemaVersion
	if version == 0 {
		version = 1 // saves written before the version field existed
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("failed to load saved game: unsupported schema version %d", version)
	}

	if version == 1 {
		// Version 1 keyed commander damage by bare opponent index; the
		// slot-qualified key treats the old value as slot zero.
		for i := range snap.Players {
			migrated := make(map[string]int, len(snap.Players[i].CommanderDamage))
			for k, v := range snap.Players[i].CommanderDamage {
				if !strings.Contains(k, "-") {
					k = k + "-0"
				}
				migrated[k] = v
			}
			snap.Players[i].CommanderDamage = migrated
		}
		version = 2
	}

	snap.SchemaVersion = version
	return nil
}

// ShareSummary is the minimal snapshot embedded in a share link.
type ShareSummary struct {
	Format  string        `json:"format"`
	Players []SharePlayer `json:"players"`
	Turns   int           `json:"turns"`
	Elapsed int           `json:"time"`
}

// SharePlayer is one player's line in a share summary.
type SharePlayer struct {
	Name string `json:"name"`
	Life int    `json:"life"`
}

// EncodeShareToken builds the compact reversible token for a share link.
func EncodeShareToken(s *SessionState, elapsed time.Duration) (string, error) {
	summary := ShareSummary{
		Format:  string(s.Format),
		Players: make([]SharePlayer, len(s.Players)),
		Turns:   s.TurnCount,
		Elapsed: int(elapsed.Seconds()),
	}
	for i, p := range s.Players {
		summary.Players[i] = SharePlayer{Name: p.DisplayName(), Life: p.Life}
	}
	data, err := json.Marshal(&summary)
	if err != nil {
		return "", fmt.Errorf("encode share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeShareToken parses a share token. An absent token is not an
// error; it decodes to nil.
func DecodeShareToken(token string) (*ShareSummary, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode share token: %w", err)
	}
	var summary ShareSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode share token: %w", err)
	}
	return &summary, nil
}

func intPtr(v int) *int { return &v }

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}
