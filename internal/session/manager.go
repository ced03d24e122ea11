// Package session owns the lifecycle around a single tracked game: it
// creates or resumes the engine, autosaves it, and archives it when the
// game finishes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/magefree/mage-tracker-go/internal/game"
	"github.com/magefree/mage-tracker-go/internal/repository"
	"github.com/magefree/mage-tracker-go/internal/storage"
)

// ErrNoGame is returned when an operation needs a running game.
var ErrNoGame = errors.New("no game in progress")

// Manager wires the engine to persistence. Saves happen on a fixed
// interval and only when something changed; every mutation marks the
// state dirty through the engine's change listener.
type Manager struct {
	mu      sync.Mutex
	engine  *game.Engine
	store   *storage.Store
	archive *repository.Archive
	logger  *zap.Logger

	interval time.Duration
	now      func() time.Time

	dirty    bool
	onChange func()
	stop     chan struct{}
	done     chan struct{}
}

// NewManager creates a manager. archive may be nil when no PostgreSQL
// backend is configured.
func NewManager(store *storage.Store, archive *repository.Archive, logger *zap.Logger, interval time.Duration) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Manager{
		store:    store,
		archive:  archive,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// SetClock overrides the wall clock. Used by tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetOnChange registers a callback fired after every engine mutation, in
// addition to the manager's own dirty tracking. The server uses it to
// broadcast state to connected clients.
func (m *Manager) SetOnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Engine returns the running engine, or nil before StartNew/Resume.
func (m *Manager) Engine() *game.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine
}

// PeekSaved decodes the autosave so the resume prompt can show what it
// holds. Returns storage.ErrNoSave when the slot is empty.
func (m *Manager) PeekSaved() (*game.SessionState, error) {
	blob, err := m.store.LoadAutosave()
	if err != nil {
		return nil, err
	}
	return game.UnmarshalSession(blob, m.clock()())
}

// DiscardSaved drops the autosave after the operator declines to resume.
func (m *Manager) DiscardSaved() error {
	return m.store.ClearAutosave()
}

// ArchivedGames lists recently finished games, newest first.
func (m *Manager) ArchivedGames(limit int) ([]storage.ArchiveRow, error) {
	return m.store.ListArchive(limit)
}

// ArchivedGame returns the saved state blob of one finished game.
// Returns storage.ErrNotFound for an unknown id.
func (m *Manager) ArchivedGame(id string) ([]byte, error) {
	return m.store.GetArchivedGame(id)
}

// StartNew begins a fresh game, replacing any previous engine.
func (m *Manager) StartNew(setup game.Setup) (*game.Engine, error) {
	engine, err := game.NewEngine(setup, m.logger)
	if err != nil {
		return nil, err
	}
	m.adopt(engine)
	return engine, nil
}

// Resume restores the engine from the autosave slot.
func (m *Manager) Resume() (*game.Engine, error) {
	blob, err := m.store.LoadAutosave()
	if err != nil {
		return nil, err
	}
	state, err := game.UnmarshalSession(blob, m.clock()())
	if err != nil {
		return nil, err
	}
	engine := game.NewEngineWithState(state, m.logger)
	m.adopt(engine)
	m.logger.Info("resumed saved game",
		zap.String("id", state.ID),
		zap.Int("turn", state.TurnCount),
	)
	return engine, nil
}

func (m *Manager) clock() func() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manager) adopt(engine *game.Engine) {
	m.stopLoop()

	m.mu.Lock()
	m.engine = engine
	m.dirty = true
	engine.SetChangeListener(func() { m.markDirty() })
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stop, m.done = stop, done
	m.mu.Unlock()

	go m.autosaveLoop(stop, done)
}

func (m *Manager) markDirty() {
	m.mu.Lock()
	m.dirty = true
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *Manager) autosaveLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.SaveNow(); err != nil {
				m.logger.Warn("autosave failed", zap.Error(err))
			}
		case <-stop:
			return
		}
	}
}

// SaveNow persists the current state immediately when it is dirty.
func (m *Manager) SaveNow() error {
	m.mu.Lock()
	engine, dirty, now := m.engine, m.dirty, m.now
	m.dirty = false
	m.mu.Unlock()

	if engine == nil || !dirty {
		return nil
	}
	blob, err := game.MarshalSession(engine.Snapshot(), now())
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	return m.store.SaveAutosave(blob)
}

// Finish ends the game, archives it, and clears the autosave slot. The
// stats are returned for the dashboard.
func (m *Manager) Finish(ctx context.Context, pickWinner func(alive []int) int) (*game.GameStats, error) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return nil, ErrNoGame
	}

	stats, err := engine.EndGame(pickWinner)
	if err != nil {
		return nil, err
	}

	// The game is over: stop autosaving so a late tick cannot write the
	// finished state back into the slot after it is cleared.
	m.stopLoop()
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()

	state := engine.Snapshot()
	blob, err := game.MarshalSession(state, m.clock()())
	if err != nil {
		return nil, fmt.Errorf("serialize finished game: %w", err)
	}

	winner := ""
	if stats.Winner >= 0 {
		winner = state.Players[stats.Winner].DisplayName()
	}
	if err := m.store.ArchiveGame(state.ID, string(state.Format), winner, stats.Turns, stats.DurationSeconds, blob); err != nil {
		m.logger.Warn("local archive failed", zap.Error(err))
	}
	if m.archive != nil {
		if err := m.archive.SaveFinishedGame(ctx, state, stats, blob); err != nil {
			m.logger.Warn("remote archive failed", zap.Error(err))
		}
	}
	if err := m.store.ClearAutosave(); err != nil {
		m.logger.Warn("clearing autosave failed", zap.Error(err))
	}
	return stats, nil
}

// Close stops the autosave loop and takes a final save.
func (m *Manager) Close() error {
	m.stopLoop()
	return m.SaveNow()
}

func (m *Manager) stopLoop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}
