package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// CardExchangeType classifies what a player owes during the exchange phase.
type CardExchangeType string

const (
	// ExchangeNone means the player sits the exchange out.
	ExchangeNone CardExchangeType = "None"
	// ExchangeFree lets the player give any cards of their choosing.
	ExchangeFree CardExchangeType = "Free"
	// ExchangeBest forces the player to give their highest-ranked cards.
	ExchangeBest CardExchangeType = "Best"
)

// CardExchangeRule is derived from a player's finishing position once a round
// ends. A nil To (counterpart resolved to self) makes the rule inert.
type CardExchangeRule struct {
	Count int
	Type  CardExchangeType
	To    *Player
}

// HitContext is what an automated player sees when asked for a hit.
type HitContext struct {
	PreviousHit []Card
	FirstPlay   bool
	Revolution  bool
}

// Player is the single concrete participant record. Human and automated
// players share it; automated ones carry injected decision functions instead
// of a subclass.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Automated bool      `json:"isAutomated"`

	Hand []Card `json:"hand"`

	// Position is the finishing rank in the current round, 1 = first out.
	// Zero until the hand empties.
	Position int `json:"position"`

	ExchangeRule     *CardExchangeRule `json:"-"`
	CardsForExchange []Card            `json:"-"`

	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`

	// Decision capabilities, nil for humans. Called by the engine only on
	// this player's turn or exchange.
	ChooseHit      func(hand []Card, ctx HitContext) []Card        `json:"-"`
	ChooseExchange func(hand []Card, rule CardExchangeRule) []Card `json:"-"`
}

// HasCards reports whether every selected card is a distinct card currently
// in the hand. A repeated selection of the same card fails.
func (p *Player) HasCards(cards []Card) bool {
	used := make([]bool, len(p.Hand))
	for _, c := range cards {
		found := false
		for i, h := range p.Hand {
			if !used[i] && h.Equal(c) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RemoveCards deletes the given cards from the hand. Cards not present are
// ignored; validate with HasCards first.
func (p *Player) RemoveCards(cards []Card) {
	for _, c := range cards {
		for i, h := range p.Hand {
			if h.Equal(c) {
				p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
				break
			}
		}
	}
}
