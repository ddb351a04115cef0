// internal/game/game_test.go
package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpia/presidentti/internal/models"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent               // Events sent to everyone
	playerEvents map[uuid.UUID][]GameEvent // Events sent to specific players
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]GameEvent),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = []GameEvent{}
	mb.playerEvents = make(map[uuid.UUID][]GameEvent)
}

func (mb *mockBroadcaster) getLastEvent() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) eventsOfType(t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.allEvents {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (mb *mockBroadcaster) getLastPlayerEvent(playerID uuid.UUID) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events, ok := mb.playerEvents[playerID]
	if !ok || len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// setupTestGame starts an unshuffled game with numPlayers human players and
// mock broadcasters. Scheduling is disabled so tests drive every move.
func setupTestGame(t *testing.T, numPlayers int) (*Game, []*models.Player, *mockBroadcaster) {
	t.Helper()
	g, err := NewGame(numPlayers, false)
	require.NoError(t, err)
	g.BotDelay = 0

	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	players := make([]*models.Player, numPlayers)
	for i := 0; i < numPlayers; i++ {
		players[i] = &models.Player{
			ID:        uuid.New(),
			Name:      string(rune('A' + i)),
			Connected: true,
		}
		require.NoError(t, g.AddPlayer(players[i]))
	}
	require.NoError(t, g.Start())
	mb.clear()

	return g, players, mb
}

// setHands overwrites all hands, the turn holder and the table mid-game so a
// test can stage a precise situation.
func setHands(g *Game, hands map[*models.Player][]models.Card, turn *models.Player, table []models.Card) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for p, h := range hands {
		p.Hand = h
	}
	g.Turn = turn
	g.Table = table
	g.PreviousHit = PreviousHit{}
}

func card(suit models.Suit, rank int) models.Card {
	return models.Card{Suit: suit, Rank: rank}
}

func TestOpeningTurnGoesToTwoOfClubsHolder(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)

	// Unshuffled round-robin deal puts the two of clubs in seat 0.
	require.Equal(t, players[0], g.Turn)
	assert.True(t, players[0].HasCards([]models.Card{models.TwoOfClubs()}))
	assert.Equal(t, StatePlaying, g.State)
	assert.Equal(t, Clockwise, g.Direction)
}

func TestSubmitHitWrongTurn(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)

	_, err := g.SubmitHit(players[1].ID, []models.Card{players[1].Hand[0]})
	assert.ErrorIs(t, err, ErrWrongTurn)

	_, err = g.SubmitHit(uuid.New(), nil)
	assert.ErrorIs(t, err, ErrWrongTurn)
}

func TestSubmitHitCardsNotInHand(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)

	// The unshuffled deal never gives seat 0 the ace of spades.
	_, err := g.SubmitHit(players[0].ID, []models.Card{card(models.Spades, 14)})
	assert.ErrorIs(t, err, ErrCardsNotInHand)

	// Selecting the same physical card twice must fail too.
	two := models.TwoOfClubs()
	_, err = g.SubmitHit(players[0].ID, []models.Card{two, two})
	assert.ErrorIs(t, err, ErrCardsNotInHand)
}

func TestFirstPlayRequiresTwoOfClubs(t *testing.T) {
	g, players, mb := setupTestGame(t, 4)

	// Passing is not allowed before any card has hit the table.
	_, err := g.SubmitHit(players[0].ID, nil)
	assert.ErrorIs(t, err, ErrIllegalPlay)

	// A combo without the two of clubs is rejected.
	_, err = g.SubmitHit(players[0].ID, []models.Card{card(models.Clubs, 6)})
	assert.ErrorIs(t, err, ErrIllegalPlay)

	// Rejections leave the state untouched.
	assert.Equal(t, players[0], g.Turn)
	assert.Empty(t, g.Table)
	assert.Nil(t, mb.getLastEvent())

	hand, err := g.SubmitHit(players[0].ID, []models.Card{models.TwoOfClubs()})
	require.NoError(t, err)
	assert.Len(t, hand, 12)
	assert.Equal(t, players[1], g.Turn)
	assert.Equal(t, []models.Card{models.TwoOfClubs()}, g.PreviousHit.Cards)
	assert.Equal(t, players[0], g.PreviousHit.Player)

	ev := mb.getLastEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventTurnChanged, ev.Type)
	require.NotNil(t, ev.Game)
	assert.Equal(t, 12, ev.Game.Players[0].CardCount)
}

func TestHitMustBeatPreviousHit(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	a, b, c := players[0], players[1], players[2]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Clubs, 5), card(models.Diamonds, 5)},
		b: {card(models.Hearts, 5), card(models.Spades, 5), card(models.Hearts, 9)},
		c: {card(models.Spades, 9), card(models.Diamonds, 9)},
	}, a, []models.Card{card(models.Clubs, 3)})

	_, err := g.SubmitHit(a.ID, []models.Card{card(models.Clubs, 5), card(models.Diamonds, 5)})
	require.NoError(t, err)

	// Same rank does not beat; neither does a single against a pair.
	_, err = g.SubmitHit(b.ID, []models.Card{card(models.Hearts, 5), card(models.Spades, 5)})
	assert.ErrorIs(t, err, ErrIllegalPlay)
	_, err = g.SubmitHit(b.ID, []models.Card{card(models.Hearts, 9)})
	assert.ErrorIs(t, err, ErrIllegalPlay)

	// Passing keeps the standing hit in place.
	_, err = g.SubmitHit(b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, c, g.Turn)

	_, err = g.SubmitHit(c.ID, []models.Card{card(models.Spades, 9), card(models.Diamonds, 9)})
	require.NoError(t, err)
	assert.Equal(t, c, g.PreviousHit.Player)
}

func TestFullCircuitClearsPreviousHit(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	a, b, c := players[0], players[1], players[2]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Clubs, 10), card(models.Clubs, 4)},
		b: {card(models.Hearts, 6)},
		c: {card(models.Spades, 6)},
	}, a, []models.Card{card(models.Clubs, 3)})

	_, err := g.SubmitHit(a.ID, []models.Card{card(models.Clubs, 10)})
	require.NoError(t, err)
	_, err = g.SubmitHit(b.ID, nil)
	require.NoError(t, err)
	_, err = g.SubmitHit(c.ID, nil)
	require.NoError(t, err)

	// The hit came back around unbeaten: table won, open lead for A.
	assert.Equal(t, a, g.Turn)
	assert.Nil(t, g.PreviousHit.Cards)
	assert.Equal(t, a, g.PreviousHit.Player)

	// A may now lead anything, even below the previous hit.
	_, err = g.SubmitHit(a.ID, []models.Card{card(models.Clubs, 4)})
	require.NoError(t, err)
}

func TestFourOfAKindTogglesDirection(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)
	a, b, c, d := players[0], players[1], players[2], players[3]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Clubs, 7), card(models.Diamonds, 7), card(models.Hearts, 7), card(models.Spades, 7), card(models.Clubs, 3)},
		b: {card(models.Hearts, 10)},
		c: {card(models.Spades, 10)},
		d: {card(models.Diamonds, 10)},
	}, a, []models.Card{card(models.Clubs, 4)})

	_, err := g.SubmitHit(a.ID, []models.Card{
		card(models.Clubs, 7), card(models.Diamonds, 7), card(models.Hearts, 7), card(models.Spades, 7),
	})
	require.NoError(t, err)

	// Revolution: order reverses, so the next seat is D, not B.
	assert.Equal(t, Counterclockwise, g.Direction)
	assert.True(t, g.IsRevolution())
	assert.Equal(t, d, g.Turn)

	// Under revolution only lower ranks beat the standing hit.
	setHands(g, map[*models.Player][]models.Card{
		d: {card(models.Diamonds, 10), card(models.Diamonds, 3)},
	}, d, g.Table)
	g.Mu.Lock()
	g.PreviousHit = PreviousHit{Player: a, Cards: []models.Card{card(models.Clubs, 7)}}
	g.Mu.Unlock()

	_, err = g.SubmitHit(d.ID, []models.Card{card(models.Diamonds, 10)})
	assert.ErrorIs(t, err, ErrIllegalPlay)
	_, err = g.SubmitHit(d.ID, []models.Card{card(models.Diamonds, 3)})
	require.NoError(t, err)
	assert.Equal(t, c, g.Turn)
}

func TestSecondFourOfAKindRestoresDirection(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)
	a, b := players[0], players[1]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Clubs, 5), card(models.Diamonds, 5), card(models.Hearts, 5), card(models.Spades, 5), card(models.Clubs, 3)},
		b: {card(models.Clubs, 9), card(models.Diamonds, 9), card(models.Hearts, 9), card(models.Spades, 9), card(models.Clubs, 4)},
	}, a, []models.Card{card(models.Clubs, 4)})
	g.Mu.Lock()
	g.Direction = Counterclockwise
	g.Mu.Unlock()

	_, err := g.SubmitHit(a.ID, []models.Card{
		card(models.Clubs, 5), card(models.Diamonds, 5), card(models.Hearts, 5), card(models.Spades, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, Clockwise, g.Direction)
	assert.Equal(t, b, g.Turn)
}

func TestEmptyHandsAreSkipped(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)
	a, b, c, d := players[0], players[1], players[2], players[3]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Clubs, 6), card(models.Clubs, 3)},
		b: nil,
		c: nil,
		d: {card(models.Spades, 8), card(models.Spades, 3)},
	}, a, []models.Card{card(models.Clubs, 4)})
	b.Position = 1
	c.Position = 2

	_, err := g.SubmitHit(a.ID, []models.Card{card(models.Clubs, 6)})
	require.NoError(t, err)
	assert.Equal(t, d, g.Turn)
}

func TestFinishingPositionsAndRoundEnd(t *testing.T) {
	g, players, mb := setupTestGame(t, 2)
	a, b := players[0], players[1]

	setHands(g, map[*models.Player][]models.Card{
		a: {card(models.Hearts, 11)},
		b: {card(models.Spades, 4), card(models.Spades, 5)},
	}, a, []models.Card{card(models.Clubs, 4)})

	_, err := g.SubmitHit(a.ID, []models.Card{card(models.Hearts, 11)})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 2, b.Position)

	ended := mb.eventsOfType(EventGameEnded)
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Results, 2)
	assert.Equal(t, ResultEntry{Name: a.Name, Position: 1}, ended[0].Results[0])
	assert.Equal(t, ResultEntry{Name: b.Name, Position: 2}, ended[0].Results[1])

	// The next round is dealt and waits in the exchange phase.
	assert.Equal(t, StateCardExchange, g.State)
	assert.Len(t, a.Hand, 26)
	assert.Len(t, b.Hand, 26)
}

func TestCardConservation(t *testing.T) {
	g, players, _ := setupTestGame(t, 4)

	_, err := g.SubmitHit(players[0].ID, []models.Card{models.TwoOfClubs()})
	require.NoError(t, err)
	_, err = g.SubmitHit(players[1].ID, nil)
	require.NoError(t, err)

	total := len(g.Table)
	for _, p := range players {
		total += len(p.Hand)
	}
	assert.Equal(t, 52, total)
}

func TestAddPlayerAfterStartRejected(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)

	err := g.AddPlayer(&models.Player{ID: uuid.New(), Name: "late"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestNewGameRejectsBadSeatCount(t *testing.T) {
	_, err := NewGame(0, false)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	g, err := NewGame(4, true)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, g.ID)
}
