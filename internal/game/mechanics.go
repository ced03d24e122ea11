package game

import "fmt"

// Advanced mechanics: loosely coupled optional subsystems that read and
// write SessionState without touching the core invariants.

// ToggleMonarch assigns the monarchy to the player, or removes it when
// they already hold it. Assigning always displaces any prior holder.
func (e *Engine) ToggleMonarch(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	if e.state.MonarchIndex == player {
		e.state.MonarchIndex = -1
		e.logActionLocked("%s is no longer the monarch", e.state.Players[player].DisplayName())
	} else {
		e.state.MonarchIndex = player
		e.logActionLocked("%s became the monarch", e.state.Players[player].DisplayName())
	}
	e.notifyLocked()
	return nil
}

// ToggleInitiative assigns or removes the initiative, same semantics as
// the monarchy.
func (e *Engine) ToggleInitiative(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	if e.state.InitiativeIndex == player {
		e.state.InitiativeIndex = -1
		e.logActionLocked("%s lost the initiative", e.state.Players[player].DisplayName())
	} else {
		e.state.InitiativeIndex = player
		e.logActionLocked("%s took the initiative", e.state.Players[player].DisplayName())
	}
	e.notifyLocked()
	return nil
}

// AssignRingBearer makes the player the ring-bearer. Plain assignment;
// re-clicking the current bearer does not clear it.
func (e *Engine) AssignRingBearer(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	e.state.RingBearerIndex = player
	e.logActionLocked("%s is the ring-bearer", e.state.Players[player].DisplayName())
	e.notifyLocked()
	return nil
}

// TemptRing increments the session's temptation count. It never decrements.
func (e *Engine) TemptRing() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshotLocked()
	e.state.RingTemptationCount++
	e.logActionLocked("the Ring tempts its bearer (%d)", e.state.RingTemptationCount)
	e.notifyLocked()
	return nil
}

// ToggleDayNight flips the day/night marker.
func (e *Engine) ToggleDayNight() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshotLocked()
	if e.state.DayNight == Day {
		e.state.DayNight = Night
	} else {
		e.state.DayNight = Day
	}
	e.logActionLocked("it became %s", e.state.DayNight)
	e.notifyLocked()
	return nil
}

// EnterDungeon starts (or restarts) a player's dungeon at room zero.
func (e *Engine) EnterDungeon(player int, dungeonID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.Dungeon = &DungeonProgress{DungeonID: dungeonID}
	e.logActionLocked("%s entered %s", p.DisplayName(), dungeonID)
	e.notifyLocked()
	return nil
}

// AdvanceDungeon moves the player one room deeper. The room index has no
// upper bound; completion is tracked by the operator against the card.
func (e *Engine) AdvanceDungeon(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	p := e.state.Players[player]
	if p.Dungeon == nil {
		return fmt.Errorf("player %d is not in a dungeon", player)
	}

	e.snapshotLocked()
	p.Dungeon.RoomIndex++
	e.logActionLocked("%s advanced to room %d of %s", p.DisplayName(), p.Dungeon.RoomIndex, p.Dungeon.DungeonID)
	e.notifyLocked()
	return nil
}

// AddPlaneswalker appends a loyalty tracker for the player.
func (e *Engine) AddPlaneswalker(player int, name, imageURL string, loyalty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if loyalty < 0 {
		loyalty = 0
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.Planeswalkers = append(p.Planeswalkers, Planeswalker{
		Name:     name,
		ImageURL: imageURL,
		Loyalty:  loyalty,
	})
	e.logActionLocked("%s controls %s (loyalty %d)", p.DisplayName(), name, loyalty)
	e.notifyLocked()
	return nil
}

// RemovePlaneswalker deletes the loyalty tracker at the given position.
func (e *Engine) RemovePlaneswalker(player, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	p := e.state.Players[player]
	if index < 0 || index >= len(p.Planeswalkers) {
		return fmt.Errorf("planeswalker index %d out of range", index)
	}

	e.snapshotLocked()
	name := p.Planeswalkers[index].Name
	p.Planeswalkers = append(p.Planeswalkers[:index], p.Planeswalkers[index+1:]...)
	e.logActionLocked("%s lost %s", p.DisplayName(), name)
	e.notifyLocked()
	return nil
}

// LoyaltyDelta adjusts a planeswalker's loyalty, clamped at zero.
func (e *Engine) LoyaltyDelta(player, index, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	p := e.state.Players[player]
	if index < 0 || index >= len(p.Planeswalkers) {
		return fmt.Errorf("planeswalker index %d out of range", index)
	}

	e.snapshotLocked()
	pw := &p.Planeswalkers[index]
	pw.Loyalty += delta
	if pw.Loyalty < 0 {
		pw.Loyalty = 0
	}
	e.logActionLocked("%s set to loyalty %d", pw.Name, pw.Loyalty)
	e.notifyLocked()
	return nil
}

// ToggleCitysBlessing flips a player's city's blessing flag.
func (e *Engine) ToggleCitysBlessing(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.CitysBlessing = !p.CitysBlessing
	if p.CitysBlessing {
		e.logActionLocked("%s gained the city's blessing", p.DisplayName())
	} else {
		e.logActionLocked("%s lost the city's blessing", p.DisplayName())
	}
	e.notifyLocked()
	return nil
}

// Planeswalk replaces the current plane.
func (e *Engine) Planeswalk(plane Plane) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshotLocked()
	e.state.CurrentPlane = &plane
	e.logActionLocked("planeswalked to %s", plane.Name)
	e.notifyLocked()
	return nil
}

// Vote is an ad-hoc table vote. It is ephemeral: never serialized and
// discarded when a new vote starts.
type Vote struct {
	Question string
	Options  []string
	Ballots  map[int]int // player -> option index
}

// StartVote opens a vote with the given options.
func (e *Engine) StartVote(question string, options []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(options) < 2 {
		return fmt.Errorf("a vote needs at least two options")
	}
	e.currentVote = &Vote{
		Question: question,
		Options:  append([]string(nil), options...),
		Ballots:  make(map[int]int),
	}
	e.logActionLocked("vote started: %s", question)
	e.notifyLocked()
	return nil
}

// CastVote records one player's ballot; re-voting replaces it.
func (e *Engine) CastVote(player, option int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if e.currentVote == nil {
		return fmt.Errorf("no vote in progress")
	}
	if option < 0 || option >= len(e.currentVote.Options) {
		return fmt.Errorf("vote option %d out of range", option)
	}
	e.currentVote.Ballots[player] = option
	e.notifyLocked()
	return nil
}

// EndVote closes the vote, logs the tally, and returns per-option counts
// and the winning options (plural on a tie).
func (e *Engine) EndVote() (map[string]int, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentVote == nil {
		return nil, nil, fmt.Errorf("no vote in progress")
	}
	vote := e.currentVote
	e.currentVote = nil

	tally := make(map[string]int, len(vote.Options))
	for _, opt := range vote.Options {
		tally[opt] = 0
	}
	for _, option := range vote.Ballots {
		tally[vote.Options[option]]++
	}

	best := 0
	for _, count := range tally {
		if count > best {
			best = count
		}
	}
	var leaders []string
	if best > 0 {
		for _, opt := range vote.Options {
			if tally[opt] == best {
				leaders = append(leaders, opt)
			}
		}
	}

	e.logActionLocked("vote closed: %s", vote.Question)
	e.notifyLocked()
	return tally, leaders, nil
}
