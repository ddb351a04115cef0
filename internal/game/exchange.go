// internal/game/exchange.go
package game

import (
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/models"
)

// beginCardExchange deals a fresh round and derives each player's exchange
// rule from the finishing positions of the round that just ended. The best
// finisher takes two free cards off the worst, second best one off second
// worst; players in the losing half owe their highest cards back. With an
// odd roster the middle player sits the exchange out, and a counterpart that
// resolves to the player themselves makes the rule inert. Assumes lock is
// held.
func (g *Game) beginCardExchange() {
	g.resetRound(StateCardExchange)
	g.dealCards()

	n := len(g.Players)
	for _, p := range g.Players {
		count := 0
		switch p.Position {
		case 1, n:
			count = 2
		case 2, n - 1:
			count = 1
		}

		exType := models.ExchangeBest
		if p.Position <= n/2 {
			exType = models.ExchangeFree
		}

		to := g.playerAtPosition(n + 1 - p.Position)
		if to == p {
			to = nil
		}
		if count == 0 || to == nil {
			p.ExchangeRule = nil
			continue
		}
		p.ExchangeRule = &models.CardExchangeRule{Count: count, Type: exType, To: to}
	}
	g.logAction(uuid.Nil, "exchange_start", nil)

	for _, p := range g.Players {
		if p.Automated && g.exchangeActive(p) && p.ChooseExchange != nil {
			cards := p.ChooseExchange(append([]models.Card(nil), p.Hand...), *p.ExchangeRule)
			if err := g.submitExchangeCards(p.ID, cards); err != nil {
				log.Printf("game %s: automated exchange by %s rejected: %v", g.ID, p.Name, err)
			}
		}
	}
}

// SubmitExchangeCards records the cards playerID gives away this exchange.
// Once every owing player has submitted, the cards move and play resumes.
func (g *Game) SubmitExchangeCards(playerID uuid.UUID, cards []models.Card) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.submitExchangeCards(playerID, cards)
}

func (g *Game) submitExchangeCards(playerID uuid.UUID, cards []models.Card) error {
	if g.State != StateCardExchange {
		return ErrExchangeRejected
	}
	p := g.getPlayerByID(playerID)
	if p == nil || !g.exchangeActive(p) || p.CardsForExchange != nil {
		return ErrExchangeRejected
	}
	rule := p.ExchangeRule
	if len(cards) != rule.Count || !p.HasCards(cards) {
		return ErrExchangeRejected
	}
	if rule.Type == models.ExchangeBest && !matchesBestCards(p.Hand, cards) {
		return ErrExchangeRejected
	}

	p.CardsForExchange = append([]models.Card(nil), cards...)
	g.logAction(playerID, "exchange_submit", map[string]interface{}{"cardCount": len(cards)})

	for _, other := range g.Players {
		if g.exchangeActive(other) && other.CardsForExchange == nil {
			return nil
		}
	}
	g.executeExchange()
	return nil
}

// exchangeActive reports whether p still owes cards this exchange.
// Assumes lock is held.
func (g *Game) exchangeActive(p *models.Player) bool {
	return p.ExchangeRule != nil && p.ExchangeRule.Count > 0 && p.ExchangeRule.To != nil
}

// playerAtPosition finds the player who finished the previous round at pos.
// Assumes lock is held.
func (g *Game) playerAtPosition(pos int) *models.Player {
	for _, p := range g.Players {
		if p.Position == pos {
			return p
		}
	}
	return nil
}

// matchesBestCards reports whether selection is exactly the highest-ranked
// len(selection) cards of hand, compared by rank alone.
func matchesBestCards(hand, selection []models.Card) bool {
	if len(selection) > len(hand) {
		return false
	}
	ranks := make([]int, len(hand))
	for i, c := range hand {
		ranks[i] = c.Rank
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	best := ranks[:len(selection)]

	sel := make([]int, len(selection))
	for i, c := range selection {
		sel[i] = c.Rank
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sel)))

	for i := range best {
		if best[i] != sel[i] {
			return false
		}
	}
	return true
}

// executeExchange moves the submitted cards between counterparts, tells each
// receiver what arrived and from whom, then resumes play with whoever holds
// the two of clubs. Positions and rules are cleared. Assumes lock is held.
func (g *Game) executeExchange() {
	for _, p := range g.Players {
		if !g.exchangeActive(p) {
			continue
		}
		to := p.ExchangeRule.To
		p.RemoveCards(p.CardsForExchange)
		to.Hand = append(to.Hand, p.CardsForExchange...)
		g.fireEventToPlayer(to.ID, GameEvent{
			Type:  EventCardsExchanged,
			Cards: p.CardsForExchange,
			From:  p.Name,
		})
	}
	for _, p := range g.Players {
		p.Position = 0
		p.ExchangeRule = nil
		p.CardsForExchange = nil
	}

	// The exchange may have moved the two of clubs; the opener follows it.
	for _, p := range g.Players {
		if models.ContainsCard(p.Hand, models.TwoOfClubs()) {
			g.Turn = p
			break
		}
	}
	g.State = StatePlaying
	g.logAction(uuid.Nil, "exchange_done", nil)
	g.notifyTurn()
	g.scheduleAutomatedTurn()
}

// ExchangeRuleView is the per-player projection of an exchange obligation.
type ExchangeRuleView struct {
	Count int                     `json:"count"`
	Type  models.CardExchangeType `json:"type"`
	To    string                  `json:"toPlayer,omitempty"`
}

// ExchangeView returns what playerID needs to act on the exchange: their
// fresh hand and, if they owe cards, the rule. Nil rule means they wait.
func (g *Game) ExchangeView(playerID uuid.UUID) ([]models.Card, *ExchangeRuleView, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.State != StateCardExchange {
		return nil, nil, ErrExchangeRejected
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return nil, nil, ErrExchangeRejected
	}
	hand := append([]models.Card(nil), p.Hand...)
	if !g.exchangeActive(p) {
		return hand, nil, nil
	}
	return hand, &ExchangeRuleView{
		Count: p.ExchangeRule.Count,
		Type:  p.ExchangeRule.Type,
		To:    p.ExchangeRule.To.Name,
	}, nil
}
