// internal/handlers/game_server.go
package handlers

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/bot"
	"github.com/akarpia/presidentti/internal/game"
	"github.com/akarpia/presidentti/internal/models"
)

// GameServer owns the in-memory session registry and seats players into it.
type GameServer struct {
	GameStore *game.GameStore
	Logf      func(f string, v ...interface{})
}

func NewGameServer() *GameServer {
	return &GameServer{
		GameStore: game.NewGameStore(),
		Logf:      log.Printf,
	}
}

// CreateGame builds a session for playerCount seats, seats the creating
// human, and optionally fills every remaining seat with an automated player.
// A fully seated game starts immediately.
func (gs *GameServer) CreateGame(playerCount int, playerName string, botFill, shuffle bool) (*game.Game, *models.Player, error) {
	g, err := game.NewGame(playerCount, shuffle)
	if err != nil {
		return nil, nil, err
	}

	human := &models.Player{ID: uuid.New(), Name: playerName}
	if err := g.AddPlayer(human); err != nil {
		return nil, nil, err
	}

	if botFill {
		for i := 2; !g.Full(); i++ {
			if err := g.AddPlayer(bot.NewPlayer(fmt.Sprintf("Bot %d", i))); err != nil {
				return nil, nil, err
			}
		}
	}

	gs.GameStore.AddGame(g)
	gs.Logf("created game %s (%d seats)", g.ID, playerCount)

	if g.Full() {
		if err := g.Start(); err != nil {
			return nil, nil, err
		}
	}
	return g, human, nil
}

// JoinGame seats playerName into an existing waiting session, starting it
// once the last seat fills.
func (gs *GameServer) JoinGame(gameID uuid.UUID, playerName string) (*game.Game, *models.Player, error) {
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		return nil, nil, game.ErrGameNotFound
	}

	p := &models.Player{ID: uuid.New(), Name: playerName}
	if err := g.AddPlayer(p); err != nil {
		return nil, nil, err
	}
	gs.Logf("player %s joined game %s", playerName, gameID)

	if g.Full() {
		if err := g.Start(); err != nil {
			return nil, nil, err
		}
	}
	return g, p, nil
}
