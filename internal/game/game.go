// internal/game/game.go
package game

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/cache"
	"github.com/akarpia/presidentti/internal/database"
	"github.com/akarpia/presidentti/internal/models"
)

// GameEventType enumerates the notifications emitted by the engine.
type GameEventType string

const (
	EventTurnChanged    GameEventType = "turnChanged"
	EventGameEnded      GameEventType = "gameEnded"
	EventCardsExchanged GameEventType = "cardsExchanged"
)

// ResultEntry is one row of the final ranking broadcast on gameEnded,
// sorted by position ascending (1 = first to empty their hand).
type ResultEntry struct {
	Name        string `json:"name"`
	IsAutomated bool   `json:"isAutomated"`
	Position    int    `json:"position"`
}

// GameEvent holds data about an event broadcast to the clients in a
// consistent format. Cards and From are set only on cardsExchanged, which is
// delivered privately to the receiving counterpart.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Game    *SessionView  `json:"game,omitempty"`
	Results []ResultEntry `json:"results,omitempty"`
	Cards   []models.Card `json:"cards,omitempty"`
	From    string        `json:"fromPlayer,omitempty"`
}

// GameState is the session lifecycle state.
type GameState string

const (
	StateNotStarted   GameState = "NotStarted"
	StatePlaying      GameState = "Playing"
	StateCardExchange GameState = "CardExchange"
	StateEnded        GameState = "Ended"
)

// PlayingDirection is the turn-order traversal direction. A four-of-a-kind
// hit (revolution) toggles it and inverts rank comparisons.
type PlayingDirection string

const (
	Clockwise        PlayingDirection = "Clockwise"
	Counterclockwise PlayingDirection = "Counterclockwise"
)

// PreviousHit remembers who last hit and with what. Empty Cards with a
// non-nil Player means that player won the table and the next play is an
// open lead.
type PreviousHit struct {
	Player *models.Player
	Cards  []models.Card
}

// Game holds the entire state for a single session in memory. One mutex
// guards all mutation; scheduled automated turns re-enter through the same
// locked entry points as external calls.
type Game struct {
	ID          uuid.UUID
	PlayerCount int

	Players     []*models.Player
	Deck        []models.Card
	Table       []models.Card
	PreviousHit PreviousHit
	Turn        *models.Player
	Direction   PlayingDirection
	State       GameState

	shuffle     bool
	actionIndex int

	Mu sync.Mutex

	// BotDelay is the cosmetic pause before a scheduled automated turn, so
	// notifications can render between moves. Zero or negative disables
	// scheduling entirely; tests drive automated players by hand.
	BotDelay time.Duration

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
}

// NewGame builds a session waiting for playerCount players to join.
func NewGame(playerCount int, shuffle bool) (*Game, error) {
	if playerCount < 1 {
		return nil, ErrInvalidConfiguration
	}
	g := &Game{
		ID:          uuid.New(),
		PlayerCount: playerCount,
		shuffle:     shuffle,
		BotDelay:    time.Second,
	}
	g.resetRound(StateNotStarted)
	return g, nil
}

// resetRound re-initializes deck, hands, table, previous hit, turn and
// direction for a fresh round. Finishing positions survive the reset; the
// exchange phase derives its rules from them. Assumes lock is held (or
// construction).
func (g *Game) resetRound(state GameState) {
	g.Deck = NewDeck(g.shuffle)
	for _, p := range g.Players {
		p.Hand = nil
	}
	g.Table = nil
	g.PreviousHit = PreviousHit{}
	g.Turn = nil
	g.Direction = Clockwise
	g.State = state
}

// IsRevolution reports whether rank ordering is currently inverted.
// Assumes lock is held.
func (g *Game) IsRevolution() bool {
	return g.Direction == Counterclockwise
}

// AddPlayer seats a player. Only legal before the game starts and while the
// roster has room.
func (g *Game) AddPlayer(p *models.Player) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.State != StateNotStarted || len(g.Players) >= g.PlayerCount {
		return ErrCapacityExceeded
	}
	g.Players = append(g.Players, p)
	g.logAction(p.ID, "player_join", map[string]interface{}{"name": p.Name})
	return nil
}

// Full reports whether the roster is complete.
func (g *Game) Full() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return len(g.Players) == g.PlayerCount
}

// Start deals the cards and begins play. The holder of the two of clubs
// opens; if that player is automated their first move is scheduled.
func (g *Game) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.State != StateNotStarted || len(g.Players) != g.PlayerCount {
		return ErrInvalidConfiguration
	}
	g.dealCards()
	g.State = StatePlaying
	g.logAction(uuid.Nil, "game_start", nil)
	g.scheduleAutomatedTurn()
	return nil
}

// Shutdown marks the session ended. No further actions are accepted; the
// registry owner decides when to drop the instance.
func (g *Game) Shutdown() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.State = StateEnded
	g.logAction(uuid.Nil, "game_shutdown", nil)
}

// SubmitHit validates and applies a hit by playerID, returning the player's
// remaining hand. An empty cards slice is a pass.
func (g *Game) SubmitHit(playerID uuid.UUID, cards []models.Card) ([]models.Card, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.submitHit(playerID, cards)
}

// submitHit assumes the lock is held; scheduled automated turns re-enter here.
func (g *Game) submitHit(playerID uuid.UUID, cards []models.Card) ([]models.Card, error) {
	if g.State != StatePlaying || g.Turn == nil || g.Turn.ID != playerID {
		return nil, ErrWrongTurn
	}
	player := g.Turn
	if !player.HasCards(cards) {
		return nil, ErrCardsNotInHand
	}
	if !ValidateHit(cards, g.PreviousHit.Cards, len(g.Table) == 0, g.IsRevolution()) {
		return nil, ErrIllegalPlay
	}

	if len(cards) > 0 {
		g.PreviousHit = PreviousHit{
			Player: player,
			Cards:  append([]models.Card(nil), cards...),
		}
		player.RemoveCards(cards)
		g.Table = append(g.Table, cards...)
	}

	// First to empty their hand gets position 1, and so on.
	if len(player.Hand) == 0 && player.Position == 0 {
		player.Position = g.nextPosition()
	}

	// Revolution: a four-of-a-kind hit toggles the playing direction.
	if len(cards) == 4 {
		if g.IsRevolution() {
			g.Direction = Clockwise
		} else {
			g.Direction = Counterclockwise
		}
	}
	g.logAction(playerID, "hit", map[string]interface{}{"cardCount": len(cards)})

	g.advanceTurn()

	if g.playersWithCards() == 1 {
		// Last player standing takes the final position; the round is over.
		g.Turn.Position = g.nextPosition()
		g.notifyGameEnd()
		g.beginCardExchange()
	} else {
		g.notifyTurn()
		g.scheduleAutomatedTurn()
	}

	return player.Hand, nil
}

// advanceTurn walks the seat order along the current direction, skipping
// players whose hands are empty. Landing back on the previous hitter means a
// full circuit passed without the hit being beaten: the table is won and the
// next play is an open lead. Assumes lock is held.
func (g *Game) advanceTurn() {
	idx := g.playerIndex(g.Turn)
	for {
		if g.IsRevolution() {
			idx--
			if idx < 0 {
				idx = len(g.Players) - 1
			}
		} else {
			idx = (idx + 1) % len(g.Players)
		}
		g.Turn = g.Players[idx]

		if g.Turn == g.PreviousHit.Player {
			g.PreviousHit.Cards = nil
		}
		if len(g.Turn.Hand) > 0 {
			return
		}
	}
}

// nextPosition returns one past the highest position assigned so far.
// Assumes lock is held.
func (g *Game) nextPosition() int {
	next := 0
	for _, p := range g.Players {
		if p.Position > next {
			next = p.Position
		}
	}
	return next + 1
}

// playersWithCards counts players still holding cards. Assumes lock is held.
func (g *Game) playersWithCards() int {
	count := 0
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			count++
		}
	}
	return count
}

// playerIndex returns the seat index of player, or -1. Assumes lock is held.
func (g *Game) playerIndex(player *models.Player) int {
	for i, p := range g.Players {
		if p == player {
			return i
		}
	}
	return -1
}

// getPlayerByID is a helper to find a player struct by their ID.
// Assumes lock is held.
func (g *Game) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// results builds the final ranking sorted by position ascending.
// Assumes lock is held.
func (g *Game) results() []ResultEntry {
	results := make([]ResultEntry, 0, len(g.Players))
	for _, p := range g.Players {
		results = append(results, ResultEntry{
			Name:        p.Name,
			IsAutomated: p.Automated,
			Position:    p.Position,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	return results
}

// notifyTurn broadcasts the session view after a successful hit.
// Assumes lock is held.
func (g *Game) notifyTurn() {
	view := g.view()
	g.fireEvent(GameEvent{Type: EventTurnChanged, Game: &view})
}

// notifyGameEnd broadcasts the final ranking and hands it to the results
// recorder, best effort. Assumes lock is held.
func (g *Game) notifyGameEnd() {
	view := g.view()
	results := g.results()
	g.fireEvent(GameEvent{Type: EventGameEnded, Game: &view, Results: results})
	g.logAction(uuid.Nil, "game_end", map[string]interface{}{"players": len(results)})

	rows := make([]database.RoundResult, 0, len(results))
	for _, r := range results {
		rows = append(rows, database.RoundResult{
			PlayerName: r.Name,
			Automated:  r.IsAutomated,
			Position:   r.Position,
		})
	}
	go func(gameID uuid.UUID, rows []database.RoundResult) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.RecordRoundResults(ctx, gameID, rows); err != nil {
			log.Printf("game %s: record round results: %v", gameID, err)
		}
	}(g.ID, rows)
}

// fireEvent broadcasts an event to all players. Assumes lock is held.
func (g *Game) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player.
// Assumes lock is held.
func (g *Game) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// scheduleAutomatedTurn queues the current player's decision if that player
// is automated. The scheduled move re-enters submitHit under the lock; a
// stale schedule (turn moved on, phase changed) is dropped.
// Assumes lock is held.
func (g *Game) scheduleAutomatedTurn() {
	if g.BotDelay <= 0 || g.Turn == nil || !g.Turn.Automated {
		return
	}
	playerID := g.Turn.ID
	time.AfterFunc(g.BotDelay, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.State != StatePlaying || g.Turn == nil || g.Turn.ID != playerID {
			return
		}
		g.playAutomatedTurn()
	})
}

// playAutomatedTurn asks the current automated player for a hit and applies
// it, falling back to a pass if the chosen cards are rejected.
// Assumes lock is held.
func (g *Game) playAutomatedTurn() {
	player := g.Turn
	var cards []models.Card
	if player.ChooseHit != nil {
		cards = player.ChooseHit(append([]models.Card(nil), player.Hand...), models.HitContext{
			PreviousHit: append([]models.Card(nil), g.PreviousHit.Cards...),
			FirstPlay:   len(g.Table) == 0,
			Revolution:  g.IsRevolution(),
		})
	}
	if _, err := g.submitHit(player.ID, cards); err != nil {
		log.Printf("game %s: automated hit by %s rejected (%v), passing", g.ID, player.Name, err)
		if _, err := g.submitHit(player.ID, nil); err != nil {
			log.Printf("game %s: automated pass by %s rejected: %v", g.ID, player.Name, err)
		}
	}
}

// HandleConnect attaches a live connection to a seated player. An inactive
// human simply blocks the session; there is no forfeit or timeout here.
func (g *Game) HandleConnect(playerID uuid.UUID, conn *websocket.Conn) bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	p := g.getPlayerByID(playerID)
	if p == nil {
		return false
	}
	p.Conn = conn
	p.Connected = true
	g.logAction(playerID, "player_connect", nil)
	return true
}

// HandleDisconnect marks a player's connection gone. Game state is untouched.
func (g *Game) HandleDisconnect(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	p := g.getPlayerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	g.logAction(playerID, "player_disconnect", nil)
}

// logAction sends the action details to the historian queue via Redis.
// Assumes lock is held.
func (g *Game) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	// Asynchronously publish to Redis.
	go func(rec cache.GameActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("game %s: publish action %d: %v", rec.GameID, rec.ActionIndex, err)
		}
	}(record)
}
