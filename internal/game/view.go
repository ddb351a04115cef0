// internal/game/view.go
package game

import (
	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/models"
)

// PlayingStatus is a player's role in the current trick as shown to clients.
type PlayingStatus string

const (
	// StatusHit marks the owner of the standing hit.
	StatusHit PlayingStatus = "Hit"
	// StatusPass marks players who declined since that hit.
	StatusPass PlayingStatus = "Pass"
	// StatusWaiting marks players yet to act on it.
	StatusWaiting PlayingStatus = "Waiting"
)

// PlayerView is the public projection of a seated player. Hands stay
// hidden; only the count is shared.
type PlayerView struct {
	Name        string        `json:"name"`
	IsAutomated bool          `json:"isAutomated"`
	CardCount   int           `json:"cardCount"`
	Turn        bool          `json:"isTurn"`
	Status      PlayingStatus `json:"status"`
}

// PreviousHitView is the standing hit as shown to clients.
type PreviousHitView struct {
	PlayerName string        `json:"playerName,omitempty"`
	Cards      []models.Card `json:"cards,omitempty"`
}

// SessionView is the spectator-safe snapshot of a session, broadcast on
// every turn change.
type SessionView struct {
	ID           uuid.UUID       `json:"id"`
	State        GameState       `json:"state"`
	IsFirstTurn  bool            `json:"isFirstTurn"`
	IsRevolution bool            `json:"isRevolution"`
	PreviousHit  PreviousHitView `json:"previousHit"`
	Players      []PlayerView    `json:"players"`
}

// View returns a snapshot safe to hand to any client.
func (g *Game) View() SessionView {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.view()
}

// view assumes the lock is held.
func (g *Game) view() SessionView {
	v := SessionView{
		ID:           g.ID,
		State:        g.State,
		IsFirstTurn:  len(g.Table) == 0,
		IsRevolution: g.IsRevolution(),
		Players:      make([]PlayerView, 0, len(g.Players)),
	}
	if g.PreviousHit.Player != nil && len(g.PreviousHit.Cards) > 0 {
		v.PreviousHit = PreviousHitView{
			PlayerName: g.PreviousHit.Player.Name,
			Cards:      append([]models.Card(nil), g.PreviousHit.Cards...),
		}
	}
	for _, p := range g.Players {
		v.Players = append(v.Players, PlayerView{
			Name:        p.Name,
			IsAutomated: p.Automated,
			CardCount:   len(p.Hand),
			Turn:        p == g.Turn,
			Status:      g.statusOf(p),
		})
	}
	return v
}

// statusOf projects a player's role relative to the last hit. The hitter
// shows Hit while someone else holds the turn; seats the turn has moved past
// since that hit show Pass, even after a full circuit of passes hands the
// hitter an open lead. Distances are measured along the current playing
// direction. Assumes lock is held.
func (g *Game) statusOf(p *models.Player) PlayingStatus {
	if g.PreviousHit.Player == nil || g.Turn == nil {
		return StatusWaiting
	}
	if p == g.PreviousHit.Player && p != g.Turn {
		return StatusHit
	}
	// Players already out of the round never show as passing.
	if len(p.Hand) == 0 {
		return StatusWaiting
	}
	n := len(g.Players)
	from := g.playerIndex(g.PreviousHit.Player)
	dp := circularDistance(g.playerIndex(p), from, n)
	dt := circularDistance(g.playerIndex(g.Turn), from, n)
	if g.IsRevolution() {
		// The full-circuit distance marks the hitter's own seat and is not
		// mirrored when the order reverses.
		if dp != n {
			dp = n - dp
		}
		if dt != n {
			dt = n - dt
		}
	}
	if dp < dt {
		return StatusPass
	}
	return StatusWaiting
}

// circularDistance is the number of clockwise steps from seat from to seat
// idx, with a full circuit (n) rather than zero for the seat itself.
func circularDistance(idx, from, n int) int {
	if idx > from {
		return idx - from
	}
	return n - from + idx
}
