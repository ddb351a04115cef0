// internal/game/deck_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpia/presidentti/internal/models"
)

func TestNewDeckComplete(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		deck := NewDeck(shuffle)
		require.Len(t, deck, 52)

		seen := make(map[models.Card]bool, 52)
		for _, c := range deck {
			assert.False(t, seen[c], "duplicate card %v", c)
			seen[c] = true
			assert.GreaterOrEqual(t, c.Rank, models.MinRank)
			assert.LessOrEqual(t, c.Rank, models.MaxRank)
		}
	}

	// Canonical order starts at the two of clubs.
	assert.Equal(t, models.TwoOfClubs(), NewDeck(false)[0])
}

func TestDealConsumesDeckEvenly(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)

	// 52 cards over three seats: 18/17/17, nothing left over.
	assert.Empty(t, g.Deck)
	assert.Len(t, players[0].Hand, 18)
	assert.Len(t, players[1].Hand, 17)
	assert.Len(t, players[2].Hand, 17)

	require.NotNil(t, g.Turn)
	assert.True(t, g.Turn.HasCards([]models.Card{models.TwoOfClubs()}))
}

func TestDealFiveSeats(t *testing.T) {
	g, players, _ := setupTestGame(t, 5)

	total := 0
	for _, p := range players {
		total += len(p.Hand)
		assert.InDelta(t, 10.4, float64(len(p.Hand)), 0.6)
	}
	assert.Equal(t, 52, total)
	assert.Empty(t, g.Deck)
}
