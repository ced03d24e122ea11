// Package server is the table-side surface of the tracker: a small HTTP
// API plus a websocket feed. Every connected browser sees the same
// session; commands arrive as JSON messages and state flows back as
// broadcasts after each applied mutation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magefree/mage-tracker-go/internal/game"
	"github.com/magefree/mage-tracker-go/internal/game/counters"
	"github.com/magefree/mage-tracker-go/internal/game/mana"
	"github.com/magefree/mage-tracker-go/internal/scryfall"
	"github.com/magefree/mage-tracker-go/internal/session"
	"github.com/magefree/mage-tracker-go/internal/storage"
)

// Command is a client request over the websocket.
type Command struct {
	Type string `json:"type"`

	Player   int `json:"player"`
	Delta    int `json:"delta"`
	Attacker int `json:"attacker"`
	Slot     int `json:"slot"`
	Index    int `json:"index"`
	Count    int `json:"count"`
	Sides    int `json:"sides"`
	Option   int  `json:"option"`
	Winner   *int `json:"winner"`

	PlayerCount  int    `json:"playerCount"`
	StartingLife int    `json:"startingLife"`
	Format       string `json:"format"`

	Kind        string          `json:"kind"`
	Color       string          `json:"color"`
	CardName    string          `json:"cardName"`
	ImageURL    string          `json:"imageUrl"`
	Name        string          `json:"name"`
	Loyalty     int             `json:"loyalty"`
	DungeonID   string          `json:"dungeonId"`
	Question    string          `json:"question"`
	Options     []string        `json:"options"`
	Query       string          `json:"query"`
	PartnerOnly bool            `json:"partnerOnly"`
	Card        *game.Commander `json:"card"`
	Plane       *game.Plane     `json:"plane"`

	ConfirmID string `json:"confirmId"`
	Accept    bool   `json:"accept"`
}

// Event is a server push over the websocket.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Server owns the hub and translates commands into engine calls.
type Server struct {
	manager *session.Manager
	cards   *scryfall.Client
	hub     *Hub
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*game.PendingConfirmation

	changed chan struct{}
}

// New creates the server. cards may be nil when the commander picker is
// disabled.
func New(manager *session.Manager, cards *scryfall.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		manager: manager,
		cards:   cards,
		hub:     newHub(logger),
		logger:  logger,
		pending: make(map[string]*game.PendingConfirmation),
		changed: make(chan struct{}, 1),
	}
	s.hub.onMessage = s.handleMessage
	// The engine fires its listener under its own lock; snapshotting
	// happens on the broadcaster goroutine, never inline.
	manager.SetOnChange(s.signalChange)
	return s
}

// Run drives the hub and the state broadcaster until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.hub.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.changed:
			s.broadcastState()
		}
	}
}

// Routes returns the HTTP handler: the websocket feed plus a few plain
// GET endpoints for the share page and health checks.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/share", s.handleShare)
	mux.HandleFunc("/api/history", s.handleHistory)
	return mux
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	engine := s.manager.Engine()
	if engine == nil {
		http.Error(w, "no game in progress", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildView(engine))
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	engine := s.manager.Engine()
	if engine == nil {
		http.Error(w, "no game in progress", http.StatusNotFound)
		return
	}
	token, err := game.EncodeShareToken(engine.Snapshot(), engine.GameElapsed())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// handleHistory lists archived games, or returns one saved blob when an
// id query parameter is present.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		blob, err := s.manager.ArchivedGame(id)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(blob)
		return
	}

	rows, err := s.manager.ArchivedGames(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []storage.ArchiveRow{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (s *Server) signalChange() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Server) broadcastState() {
	engine := s.manager.Engine()
	if engine == nil {
		return
	}
	s.hub.Broadcast(Event{Type: "state", Data: buildView(engine)})
}

func (s *Server) handleMessage(c *Client, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.hub.sendTo(c, Event{Type: "error", Data: "malformed command"})
		return
	}

	if err := s.dispatch(c, cmd); err != nil {
		s.logger.Warn("command failed",
			zap.String("type", cmd.Type),
			zap.Error(err),
		)
		s.hub.sendTo(c, Event{Type: "error", Data: err.Error()})
	}
}

func (s *Server) dispatch(c *Client, cmd Command) error {
	switch cmd.Type {
	case "new_game":
		_, err := s.manager.StartNew(game.Setup{
			PlayerCount:  cmd.PlayerCount,
			StartingLife: cmd.StartingLife,
			Format:       game.Format(cmd.Format),
		})
		if err != nil {
			return err
		}
		s.signalChange()
		return nil

	case "resume_game":
		if _, err := s.manager.Resume(); err != nil {
			return err
		}
		s.signalChange()
		return nil

	case "discard_save":
		return s.manager.DiscardSaved()

	case "search_commanders":
		go s.searchCommanders(c, cmd.Query, cmd.PartnerOnly)
		return nil

	case "confirm":
		return s.resolveConfirmation(cmd.ConfirmID, cmd.Accept)
	}

	engine := s.manager.Engine()
	if engine == nil {
		return session.ErrNoGame
	}

	switch cmd.Type {
	case "start_game":
		return engine.StartGame(cmd.Player)
	case "roll_starting_player":
		_, err := engine.RollStartingPlayer(func(seat int) {
			s.hub.Broadcast(Event{Type: "roll_tick", Data: seat})
		})
		return err
	case "pass_turn":
		return engine.PassTurn()
	case "undo":
		return engine.Undo()

	case "life":
		pending, err := engine.LifeDelta(cmd.Player, cmd.Delta)
		s.offerConfirmation(pending)
		return err
	case "counter":
		return engine.CounterDelta(cmd.Player, counters.Kind(cmd.Kind), cmd.Delta)
	case "mana":
		return engine.ManaDelta(cmd.Player, mana.Color(cmd.Color), cmd.Delta)
	case "clear_mana":
		return engine.ClearMana(cmd.Player)
	case "commander_damage":
		pending, err := engine.CommanderDamageDelta(cmd.Player, cmd.Attacker, cmd.Slot, cmd.Delta)
		s.offerConfirmation(pending)
		return err

	case "mulligan":
		return engine.Mulligan(cmd.Player)
	case "keep_hand":
		return engine.KeepHand(cmd.Player)
	case "draw":
		return engine.DrawCards(cmd.Player, cmd.Count)
	case "discard":
		return engine.DiscardCards(cmd.Player, cmd.Count)
	case "resign":
		pending, err := engine.Resign(cmd.Player)
		s.offerConfirmation(pending)
		return err

	case "set_commander":
		if cmd.Card == nil {
			return errMissingCard
		}
		return engine.SetCommander(cmd.Player, cmd.Slot, *cmd.Card)
	case "clear_commanders":
		return engine.ClearCommanders(cmd.Player)
	case "toggle_rotation":
		return engine.ToggleRotation(cmd.Player)

	case "stack_push":
		return engine.PushStack(cmd.CardName, cmd.ImageURL, cmd.Player)
	case "stack_duplicate":
		return engine.DuplicateStackEntry(cmd.Index)
	case "stack_remove":
		return engine.RemoveStackEntry(cmd.Index)

	case "monarch":
		return engine.ToggleMonarch(cmd.Player)
	case "initiative":
		return engine.ToggleInitiative(cmd.Player)
	case "ring_bearer":
		return engine.AssignRingBearer(cmd.Player)
	case "tempt_ring":
		return engine.TemptRing()
	case "day_night":
		return engine.ToggleDayNight()
	case "dungeon_enter":
		return engine.EnterDungeon(cmd.Player, cmd.DungeonID)
	case "dungeon_advance":
		return engine.AdvanceDungeon(cmd.Player)
	case "planeswalker_add":
		return engine.AddPlaneswalker(cmd.Player, cmd.Name, cmd.ImageURL, cmd.Loyalty)
	case "planeswalker_remove":
		return engine.RemovePlaneswalker(cmd.Player, cmd.Index)
	case "loyalty":
		return engine.LoyaltyDelta(cmd.Player, cmd.Index, cmd.Delta)
	case "citys_blessing":
		return engine.ToggleCitysBlessing(cmd.Player)
	case "planeswalk":
		if cmd.Plane == nil {
			return errMissingPlane
		}
		return engine.Planeswalk(*cmd.Plane)

	case "vote_start":
		return engine.StartVote(cmd.Question, cmd.Options)
	case "vote_cast":
		return engine.CastVote(cmd.Player, cmd.Option)
	case "vote_end":
		tally, leaders, err := engine.EndVote()
		if err != nil {
			return err
		}
		s.hub.Broadcast(Event{Type: "vote_result", Data: map[string]any{
			"tally":   tally,
			"leaders": leaders,
		}})
		return nil

	case "roll_die":
		result, err := engine.RollDie(cmd.Sides)
		if err != nil {
			return err
		}
		s.hub.Broadcast(Event{Type: "die_roll", Data: result})
		return nil
	case "flip_coin":
		heads := engine.FlipCoin()
		s.hub.Broadcast(Event{Type: "coin_flip", Data: heads})
		return nil
	case "planar_die":
		s.hub.Broadcast(Event{Type: "planar_roll", Data: engine.RollPlanarDie()})
		return nil

	case "end_game":
		var picker func(alive []int) int
		if cmd.Winner != nil {
			winner := *cmd.Winner
			picker = func([]int) int { return winner }
		}
		stats, err := s.manager.Finish(context.Background(), picker)
		if err != nil {
			return err
		}
		s.hub.Broadcast(Event{Type: "stats", Data: stats})
		return nil
	}

	return errUnknownCommand(cmd.Type)
}

// offerConfirmation parks a held-back mutation and asks the table to
// accept or decline it.
func (s *Server) offerConfirmation(pending *game.PendingConfirmation) {
	if pending == nil {
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.pending[id] = pending
	s.mu.Unlock()

	s.hub.Broadcast(Event{Type: "confirm_request", Data: map[string]string{
		"id":     id,
		"reason": pending.Reason,
	}})
}

func (s *Server) resolveConfirmation(id string, accept bool) error {
	s.mu.Lock()
	pending, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		return errUnknownConfirmation
	}
	if accept {
		pending.Confirm()
	} else {
		pending.Cancel()
	}
	return nil
}

func (s *Server) searchCommanders(c *Client, query string, partnerOnly bool) {
	if s.cards == nil {
		s.hub.sendTo(c, Event{Type: "commanders", Data: []game.Commander{}})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	results, err := s.cards.SearchCommanders(ctx, query, partnerOnly)
	if err != nil {
		s.logger.Warn("commander search failed", zap.Error(err))
		s.hub.sendTo(c, Event{Type: "error", Data: "card search failed"})
		return
	}
	if results == nil {
		results = []game.Commander{}
	}
	s.hub.sendTo(c, Event{Type: "commanders", Data: results})
}
