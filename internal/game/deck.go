package game

import (
	"math/rand"
	"time"

	"github.com/akarpia/presidentti/internal/models"
)

// NewDeck returns all 52 distinct cards. Canonical order is suits
// Clubs, Diamonds, Hearts, Spades with ranks ascending; when shuffle is set
// the deck is permuted with a time-seeded source.
func NewDeck(shuffle bool) []models.Card {
	suits := []models.Suit{models.Clubs, models.Diamonds, models.Hearts, models.Spades}
	deck := make([]models.Card, 0, 52)
	for _, s := range suits {
		for r := models.MinRank; r <= models.MaxRank; r++ {
			deck = append(deck, models.Card{Suit: s, Rank: r})
		}
	}
	if shuffle {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		rnd.Shuffle(len(deck), func(i, j int) {
			deck[i], deck[j] = deck[j], deck[i]
		})
	}
	return deck
}

// dealCards distributes the deck round-robin starting at seat 0 until the
// deck is fully consumed, then hands the opening turn to whoever holds the
// two of clubs. With 4-8 players hand sizes differ by at most one card.
// Assumes lock is held.
func (g *Game) dealCards() {
	for i, c := range g.Deck {
		p := g.Players[i%len(g.Players)]
		p.Hand = append(p.Hand, c)
	}
	g.Deck = nil

	for _, p := range g.Players {
		if models.ContainsCard(p.Hand, models.TwoOfClubs()) {
			g.Turn = p
			break
		}
	}
}
