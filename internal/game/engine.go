package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/magefree/mage-tracker-go/internal/game/counters"
	"github.com/magefree/mage-tracker-go/internal/game/mana"
	"go.uber.org/zap"
)

// Lethal commander damage from a single commander.
const lethalCommanderDamage = 21

// Engine owns a SessionState and is the only way to mutate it. Every
// guarded operation follows the same protocol: pre-check (possibly a
// two-phase confirmation), undo snapshot, clamped apply, bookkeeping
// (log, life history, knockouts, attacker credit), change notification.
type Engine struct {
	mu     sync.Mutex
	state  *SessionState
	undo   *UndoHistory
	logger *zap.Logger

	now func() time.Time
	rng *rand.Rand

	onChange func()

	holdDelay    time.Duration
	holdInterval time.Duration

	currentVote *Vote
}

// NewEngine creates an engine with a freshly constructed session.
func NewEngine(setup Setup, logger *zap.Logger) (*Engine, error) {
	state, err := NewSessionState(setup)
	if err != nil {
		return nil, err
	}
	return NewEngineWithState(state, logger), nil
}

// NewEngineWithState wraps an existing session, typically one restored
// from the autosave store.
func NewEngineWithState(state *SessionState, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		state:        state,
		undo:         NewUndoHistory(MaxUndoHistory),
		logger:       logger,
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		holdDelay:    500 * time.Millisecond,
		holdInterval: time.Second,
	}
}

// SetClock overrides the wall clock. Used by tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// SetRand overrides the random source. Used by tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rng
}

// SetChangeListener registers a callback invoked after every applied
// mutation. The session manager uses it for autosave and broadcast.
func (e *Engine) SetChangeListener(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Snapshot returns a deep copy of the current session state.
func (e *Engine) Snapshot() *SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Copy()
}

// UndoDepth returns the number of undoable mutations.
func (e *Engine) UndoDepth() int {
	return e.undo.Size()
}

// PendingConfirmation is a mutation held back by a pre-check. Nothing is
// applied until Confirm; Cancel discards it and leaves state untouched.
type PendingConfirmation struct {
	Reason string

	engine   *Engine
	apply    func()
	resolved bool
}

// Confirm applies the held mutation through the standard protocol.
func (pc *PendingConfirmation) Confirm() {
	pc.engine.mu.Lock()
	defer pc.engine.mu.Unlock()
	if pc.resolved {
		return
	}
	pc.resolved = true
	pc.apply()
}

// Cancel discards the held mutation.
func (pc *PendingConfirmation) Cancel() {
	pc.engine.mu.Lock()
	defer pc.engine.mu.Unlock()
	pc.resolved = true
}

// --- protocol helpers (all require e.mu held) ---

func (e *Engine) checkPlayerLocked(player int) error {
	if player < 0 || player >= len(e.state.Players) {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	return nil
}

func (e *Engine) snapshotLocked() {
	e.undo.Push(e.state.Copy())
}

func (e *Engine) turnLabelLocked() string {
	if !e.state.Started() {
		return "Setup"
	}
	return fmt.Sprintf("P%d T%d", e.state.ActivePlayerIndex+1, e.state.TurnCount)
}

func (e *Engine) logActionLocked(format string, args ...any) {
	entry := LogEntry{
		Timestamp: e.now(),
		TurnLabel: e.turnLabelLocked(),
		Message:   fmt.Sprintf(format, args...),
	}
	e.state.ActionLog = append(e.state.ActionLog, entry)
	e.logger.Info("action",
		zap.String("turn", entry.TurnLabel),
		zap.String("message", entry.Message),
	)
}

func (e *Engine) sampleLifeLocked() {
	lives := make([]int, len(e.state.Players))
	for i, p := range e.state.Players {
		lives[i] = p.Life
	}
	e.state.LifeHistory = append(e.state.LifeHistory, LifeSample{
		Turn:  e.state.TurnCount,
		Lives: lives,
	})
}

func (e *Engine) recordKnockoutLocked(player int, killer *int) {
	e.state.Knockouts = append(e.state.Knockouts, Knockout{
		Player: player,
		Killer: killer,
		Turn:   e.state.TurnCount,
		Time:   e.now(),
	})
	e.logActionLocked("%s was knocked out", e.state.Players[player].DisplayName())
}

func (e *Engine) notifyLocked() {
	if e.onChange != nil {
		e.onChange()
	}
}

// --- life ---

// LifeDelta applies a signed life change. A change that would knock the
// player out (life crossing from positive to zero or below) is returned
// as a pending confirmation instead of being applied.
func (e *Engine) LifeDelta(player, delta int) (*PendingConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return nil, err
	}
	if e.state.Ended {
		return nil, ErrGameEnded
	}
	if delta == 0 {
		return nil, nil
	}

	p := e.state.Players[player]
	if p.Life > 0 && p.Life+delta <= 0 {
		return &PendingConfirmation{
			Reason: fmt.Sprintf("%s will be knocked out", p.DisplayName()),
			engine: e,
			apply:  func() { e.applyLifeDeltaLocked(player, delta) },
		}, nil
	}

	e.applyLifeDeltaLocked(player, delta)
	return nil, nil
}

func (e *Engine) applyLifeDeltaLocked(player, delta int) {
	e.snapshotLocked()

	p := e.state.Players[player]
	prevLife := p.Life
	wasKnockedOut := e.state.KnockedOut(player)
	p.Life += delta

	active := e.state.ActivePlayerIndex
	if delta < 0 && active >= 0 && active != player {
		e.state.DamageDealt[active] += -delta
		if e.state.FirstBlood == nil {
			e.state.FirstBlood = &FirstBlood{
				Attacker: active,
				Victim:   player,
				Turn:     e.state.TurnCount,
			}
		}
	}

	e.sampleLifeLocked()

	if delta > 0 {
		e.logActionLocked("%s gained %d life (now %d)", p.DisplayName(), delta, p.Life)
	} else {
		e.logActionLocked("%s lost %d life (now %d)", p.DisplayName(), -delta, p.Life)
	}

	if !wasKnockedOut && prevLife > 0 && p.Life <= 0 {
		var killer *int
		if active >= 0 && active != player {
			k := active
			killer = &k
		}
		e.recordKnockoutLocked(player, killer)
	}

	e.notifyLocked()
}

// --- counters and mana ---

// CounterDelta adjusts one of a player's counters, clamped at zero.
func (e *Engine) CounterDelta(player int, kind counters.Kind, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	value := p.Counters.Adjust(kind, delta)
	e.logActionLocked("%s set %s to %d", p.DisplayName(), kind, value)
	e.notifyLocked()
	return nil
}

// ManaDelta adjusts a player's mana pool, clamped at zero.
func (e *Engine) ManaDelta(player int, color mana.Color, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	if delta >= 0 {
		p.Mana.Add(color, delta)
	} else {
		p.Mana.Remove(color, -delta)
	}
	e.logActionLocked("%s set %s mana to %d", p.DisplayName(), color, p.Mana.Get(color))
	e.notifyLocked()
	return nil
}

// ClearMana empties a player's mana pool.
func (e *Engine) ClearMana(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.Mana.Clear()
	e.logActionLocked("%s emptied their mana pool", p.DisplayName())
	e.notifyLocked()
	return nil
}

// --- commander damage ---

// CommanderDamageDelta adjusts the commander damage a player has taken
// from one attacking commander. The same signed delta, negated, applies
// to the player's life in the same mutation. A change that reaches the
// lethal threshold, or that would knock the player out on life, is
// returned as a pending confirmation; declining leaves the entry at its
// prior value.
func (e *Engine) CommanderDamageDelta(player, attacker, slot, delta int) (*PendingConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return nil, err
	}
	if err := e.checkPlayerLocked(attacker); err != nil {
		return nil, err
	}
	if attacker == player {
		return nil, fmt.Errorf("%w: player cannot take commander damage from themselves", ErrInvalidPlayer)
	}
	if slot != 0 && slot != 1 {
		return nil, fmt.Errorf("invalid commander slot %d", slot)
	}
	if e.state.Ended {
		return nil, ErrGameEnded
	}

	p := e.state.Players[player]
	key := CommanderDamageKey(attacker, slot)
	current := p.CommanderDamage[key]
	next := current + delta
	if next < 0 {
		next = 0
	}
	effective := next - current
	if effective == 0 {
		return nil, nil
	}

	lethal := current < lethalCommanderDamage && next >= lethalCommanderDamage
	crossing := p.Life > 0 && p.Life-effective <= 0
	apply := func() { e.applyCommanderDamageLocked(player, attacker, key, effective, next) }

	if lethal || crossing {
		reason := fmt.Sprintf("%s will be knocked out", p.DisplayName())
		if lethal {
			reason = fmt.Sprintf("%s has taken lethal commander damage", p.DisplayName())
		}
		return &PendingConfirmation{Reason: reason, engine: e, apply: apply}, nil
	}

	apply()
	return nil, nil
}

func (e *Engine) applyCommanderDamageLocked(player, attacker int, key string, effective, next int) {
	e.snapshotLocked()

	p := e.state.Players[player]
	prevLife := p.Life
	wasKnockedOut := e.state.KnockedOut(player)
	prevTotal := p.CommanderDamage[key]

	p.CommanderDamage[key] = next
	p.Life -= effective

	active := e.state.ActivePlayerIndex
	if effective > 0 && active >= 0 && active != player {
		e.state.DamageDealt[active] += effective
		e.state.CommanderDamageDealt[active] += effective
		if e.state.FirstBlood == nil {
			e.state.FirstBlood = &FirstBlood{
				Attacker: active,
				Victim:   player,
				Turn:     e.state.TurnCount,
			}
		}
	}

	e.sampleLifeLocked()
	e.logActionLocked("%s took %d commander damage from %s (total %d)",
		p.DisplayName(), effective, e.state.Players[attacker].DisplayName(), next)

	lethalNow := prevTotal < lethalCommanderDamage && next >= lethalCommanderDamage
	lifeKO := prevLife > 0 && p.Life <= 0
	if !wasKnockedOut && (lethalNow || lifeKO) {
		k := attacker
		e.recordKnockoutLocked(player, &k)
	}

	e.notifyLocked()
}

// --- hands ---

// Mulligan records a mulligan and recomputes the player's hand size.
func (e *Engine) Mulligan(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.Mulligans++
	p.CardsInHand = HandSizeAfterMulligans(p.Mulligans)
	e.logActionLocked("%s mulliganed to %d cards", p.DisplayName(), p.CardsInHand)
	e.notifyLocked()
	return nil
}

// KeepHand logs that the player kept their current hand.
func (e *Engine) KeepHand(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	p := e.state.Players[player]
	e.logActionLocked("%s kept a hand of %d", p.DisplayName(), p.CardsInHand)
	e.notifyLocked()
	return nil
}

// DrawCards records n cards drawn.
func (e *Engine) DrawCards(player, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.CardsDrawn += n
	p.CardsInHand += n
	e.logActionLocked("%s drew %d (hand %d)", p.DisplayName(), n, p.CardsInHand)
	e.notifyLocked()
	return nil
}

// DiscardCards records n cards discarded; hand size clamps at zero.
func (e *Engine) DiscardCards(player, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	if e.state.Ended {
		return ErrGameEnded
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.CardsDiscarded += n
	p.CardsInHand -= n
	if p.CardsInHand < 0 {
		p.CardsInHand = 0
	}
	e.logActionLocked("%s discarded %d (hand %d)", p.DisplayName(), n, p.CardsInHand)
	e.notifyLocked()
	return nil
}

// --- resignation ---

// Resign proposes a resignation; it always requires confirmation. On
// confirm the player's life drops to zero and a knockout with no
// credited killer is recorded.
func (e *Engine) Resign(player int) (*PendingConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return nil, err
	}
	if e.state.Ended {
		return nil, ErrGameEnded
	}
	if e.state.Eliminated(player) {
		return nil, fmt.Errorf("player %d is already out", player)
	}

	return &PendingConfirmation{
		Reason: fmt.Sprintf("%s will resign", e.state.Players[player].DisplayName()),
		engine: e,
		apply: func() {
			e.snapshotLocked()
			p := e.state.Players[player]
			p.Life = 0
			e.sampleLifeLocked()
			e.logActionLocked("%s resigned", p.DisplayName())
			e.recordKnockoutLocked(player, nil)
			e.notifyLocked()
		},
	}, nil
}

// --- commanders ---

// SetCommander assigns a commander card to a player's slot. Slot 1 is
// only assignable when slot 0 declares partner capability.
func (e *Engine) SetCommander(player, slot int, card Commander) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	if slot != 0 && slot != 1 {
		return fmt.Errorf("invalid commander slot %d", slot)
	}
	p := e.state.Players[player]
	if slot == 1 && (p.Commanders[0] == nil || !p.Commanders[0].HasPartner) {
		return fmt.Errorf("slot 1 requires a partner-capable commander in slot 0")
	}

	e.snapshotLocked()
	c := card
	p.Commanders[slot] = &c
	if slot == 0 && !card.HasPartner {
		p.Commanders[1] = nil
	}
	e.logActionLocked("seat %d is now %s", player+1, p.DisplayName())
	e.notifyLocked()
	return nil
}

// ClearCommanders removes both commanders and restores the manual label.
func (e *Engine) ClearCommanders(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}

	e.snapshotLocked()
	p := e.state.Players[player]
	p.Commanders[0] = nil
	p.Commanders[1] = nil
	e.logActionLocked("seat %d cleared commanders", player+1)
	e.notifyLocked()
	return nil
}

// ToggleRotation flips a player's panel rotation. Visual only.
func (e *Engine) ToggleRotation(player int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(player); err != nil {
		return err
	}
	e.state.Players[player].Rotated = !e.state.Players[player].Rotated
	e.notifyLocked()
	return nil
}

// --- undo ---

// Undo restores the state captured before the most recent mutation.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.undo.Pop()
	if snapshot == nil {
		return ErrNothingToUndo
	}
	e.state = snapshot
	e.logger.Info("undo applied", zap.Int("remaining", e.undo.Size()))
	e.notifyLocked()
	return nil
}
