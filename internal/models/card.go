package models

import "sort"

// Suit identifies one of the four French suits.
type Suit string

const (
	Clubs    Suit = "Clubs"
	Diamonds Suit = "Diamonds"
	Hearts   Suit = "Hearts"
	Spades   Suit = "Spades"
)

// Rank bounds. Two is the lowest rank in this game; aces rank 14 (highest).
const (
	MinRank = 2
	MaxRank = 14
)

// Card is an immutable (suit, rank) value. Two cards are equal iff both
// fields match. Suit never affects hit legality, only display ordering.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// TwoOfClubs is the opening card: the lowest card in the deck, and the one
// that must be part of the first hit of every round.
func TwoOfClubs() Card {
	return Card{Suit: Clubs, Rank: MinRank}
}

func (c Card) Equal(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

// CompareCards orders by rank. Suits tie only for display stability.
func CompareCards(a, b Card) int {
	return a.Rank - b.Rank
}

// SortCards sorts ascending by rank, keeping the original order of equal
// ranks.
func SortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return CompareCards(cards[i], cards[j]) < 0
	})
}

// ContainsCard reports whether cards holds an exact (suit, rank) match.
func ContainsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c.Equal(card) {
			return true
		}
	}
	return false
}
