package game

import "github.com/akarpia/presidentti/internal/models"

// ValidateHit reports whether selected is a legal hit over previous. It is a
// pure function: it reads no game state and mutates no argument.
//
// An empty selected is a pass, legal except on a round's first play. The
// first play of a round must be a same-rank combo that includes the two of
// clubs. Any hit must be a combo of one rank. A non-empty previous hit is
// beaten only by a combo of the same size and strictly higher rank, or
// strictly lower rank during a revolution. An empty previous hit (table won
// or round opened) accepts any combo.
func ValidateHit(selected, previous []models.Card, firstPlay, revolution bool) bool {
	if len(selected) == 0 {
		return !firstPlay
	}

	rank := selected[0].Rank
	for _, c := range selected[1:] {
		if c.Rank != rank {
			return false
		}
	}

	if firstPlay && !models.ContainsCard(selected, models.TwoOfClubs()) {
		return false
	}

	if len(previous) == 0 {
		return true
	}
	if len(selected) != len(previous) {
		return false
	}
	if revolution {
		return rank < previous[0].Rank
	}
	return rank > previous[0].Rank
}
