// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/akarpia/presidentti/internal/game"
)

// ServeHTTP routes the REST side of the game API. The live channel is the
// WebSocket endpoint in game_ws.go.
func (gs *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/game/create" && r.Method == http.MethodPost:
		gs.handleCreateGame(w, r)
	case strings.HasPrefix(r.URL.Path, "/game/join/") && r.Method == http.MethodPost:
		gs.handleJoinGame(w, r)
	case strings.HasPrefix(r.URL.Path, "/game/state/") && r.Method == http.MethodGet:
		gs.handleGameState(w, r)
	case strings.HasPrefix(r.URL.Path, "/game/exchange/") && r.Method == http.MethodGet:
		gs.handleExchangeView(w, r)
	default:
		http.Error(w, "unsupported route, use /game/ws/{id} for websockets", http.StatusNotFound)
	}
}

type createGameRequest struct {
	PlayerCount int    `json:"playerCount"`
	PlayerName  string `json:"playerName"`
	BotFill     bool   `json:"botFill"`
	Shuffle     *bool  `json:"shuffle,omitempty"`
}

func (gs *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerName == "" {
		http.Error(w, "playerName is required", http.StatusBadRequest)
		return
	}
	shuffle := true
	if req.Shuffle != nil {
		shuffle = *req.Shuffle
	}

	g, p, err := gs.CreateGame(req.PlayerCount, req.PlayerName, req.BotFill, shuffle)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"game_id":   g.ID,
		"player_id": p.ID,
	})
}

func (gs *GameServer) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/game/join/"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		http.Error(w, "playerName is required", http.StatusBadRequest)
		return
	}

	g, p, err := gs.JoinGame(gameID, req.PlayerName)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"game_id":   g.ID,
		"player_id": p.ID,
	})
}

func (gs *GameServer) handleGameState(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/game/state/"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, g.View())
}

func (gs *GameServer) handleExchangeView(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/game/exchange/"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
	if err != nil {
		http.Error(w, "invalid player_id", http.StatusBadRequest)
		return
	}
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	hand, rule, err := g.ExchangeView(playerID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"hand": hand,
		"rule": rule,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeGameError maps engine sentinels onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrCapacityExceeded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrInvalidConfiguration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	}
}
