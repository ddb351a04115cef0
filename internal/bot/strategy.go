// internal/bot/strategy.go
package bot

import (
	"sort"

	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/models"
)

// NewPlayer seats an automated player with the greedy strategy wired in.
func NewPlayer(name string) *models.Player {
	return &models.Player{
		ID:             uuid.New(),
		Name:           name,
		Automated:      true,
		Connected:      true,
		ChooseHit:      ChooseHit,
		ChooseExchange: ChooseExchange,
	}
}

// ChooseHit picks a hit greedily: dump the cheapest cards that stay legal.
// Opening the round plays the entire rank group around the two of clubs; an
// open lead sheds the full lowest group (highest during a revolution);
// beating a standing hit plays the weakest group that still wins, trimmed to
// the required size. Nil means pass.
func ChooseHit(hand []models.Card, ctx models.HitContext) []models.Card {
	groups := groupByRank(hand)
	if len(groups) == 0 {
		return nil
	}

	if ctx.FirstPlay {
		for _, grp := range groups {
			if models.ContainsCard(grp, models.TwoOfClubs()) {
				return grp
			}
		}
		return nil
	}

	ranks := sortedRanks(groups, ctx.Revolution)

	if len(ctx.PreviousHit) == 0 {
		return groups[ranks[0]]
	}

	need := len(ctx.PreviousHit)
	prev := ctx.PreviousHit[0].Rank
	for _, r := range ranks {
		if ctx.Revolution {
			if r >= prev {
				continue
			}
		} else if r <= prev {
			continue
		}
		if grp := groups[r]; len(grp) >= need {
			return grp[:need]
		}
	}
	return nil
}

// ChooseExchange satisfies an exchange obligation: the forced Best selection
// gives the top cards, a Free choice sheds the bottom ones.
func ChooseExchange(hand []models.Card, rule models.CardExchangeRule) []models.Card {
	sorted := append([]models.Card(nil), hand...)
	models.SortCards(sorted)
	if rule.Count > len(sorted) {
		return nil
	}
	if rule.Type == models.ExchangeBest {
		return sorted[len(sorted)-rule.Count:]
	}
	return sorted[:rule.Count]
}

func groupByRank(hand []models.Card) map[int][]models.Card {
	groups := make(map[int][]models.Card, len(hand))
	for _, c := range hand {
		groups[c.Rank] = append(groups[c.Rank], c)
	}
	return groups
}

// sortedRanks lists the group ranks cheapest first, which under a revolution
// means highest first.
func sortedRanks(groups map[int][]models.Card, revolution bool) []int {
	ranks := make([]int, 0, len(groups))
	for r := range groups {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	if revolution {
		for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
			ranks[i], ranks[j] = ranks[j], ranks[i]
		}
	}
	return ranks
}
