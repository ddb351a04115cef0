// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/akarpia/presidentti/internal/game"
	"github.com/akarpia/presidentti/internal/middleware"
	"github.com/akarpia/presidentti/internal/models"
)

// GameMessage is the envelope for incoming WebSocket messages. A "hit" with
// an empty cards list is a pass; "exchange" submits the cards owed in the
// card-exchange phase.
type GameMessage struct {
	Type  string        `json:"type"`
	Cards []models.Card `json:"cards,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a specific game
// instance. The player identifies with a player_id query parameter obtained
// from create or join; the handler verifies membership, registers the
// connection, and runs the read loop.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract Game ID from URL path: /game/ws/{game_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
		if err != nil {
			http.Error(w, "Invalid or missing player_id", http.StatusBadRequest)
			return
		}

		g, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'game' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, gameID, playerID, r.RemoteAddr)

		// Register broadcast functions if they haven't been set up yet for
		// this game instance.
		g.Mu.Lock()
		if g.BroadcastFn == nil {
			g.BroadcastFn = createBroadcastFunc(g, logger)
		}
		if g.BroadcastToPlayerFn == nil {
			g.BroadcastToPlayerFn = createBroadcastToPlayerFunc(g, logger)
		}
		g.Mu.Unlock()

		if !g.HandleConnect(playerID, c) {
			logger.Warnf("Player %s is not seated in game %s. Closing connection.", playerID, gameID)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this game.")
			return
		}

		// Send the current snapshot so a reconnecting client can resync.
		sendWsMessage(c, game.GameEvent{Type: game.EventTurnChanged, Game: viewOf(g)})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readGameMessages(ctx, c, g, playerID, logger)

		middleware.LogWebSocketDisconnect(logger, gameID, playerID, r.RemoteAddr)
		g.HandleDisconnect(playerID)
	}
}

func viewOf(g *game.Game) *game.SessionView {
	v := g.View()
	return &v
}

// createBroadcastFunc returns a function suitable for Game.BroadcastFn.
// It marshals the event and sends it asynchronously to all connected players.
func createBroadcastFunc(g *game.Game, logger *logrus.Logger) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		// This function is called *while the game lock is held*, from inside
		// engine methods. The lock is already ours, so we only snapshot the
		// live connections here and do the writes asynchronously.
		conns := make(map[uuid.UUID]*websocket.Conn)
		for _, p := range g.Players {
			if p.Connected && p.Conn != nil {
				conns[p.ID] = p.Conn
			}
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for game %s: %v", ev.Type, g.ID, err)
			return
		}

		go func(conns map[uuid.UUID]*websocket.Conn, data []byte, gameID uuid.UUID) {
			for playerID, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					logger.Warnf("Failed to write broadcast message to player %s in game %s: %v", playerID, gameID, err)
				}
			}
		}(conns, msgBytes, g.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// Game.BroadcastToPlayerFn. It finds the target player, marshals the event,
// and sends it asynchronously.
func createBroadcastToPlayerFunc(g *game.Game, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev game.GameEvent) {
	return func(targetPlayerID uuid.UUID, ev game.GameEvent) {
		// Also called while the game lock is held.
		var targetConn *websocket.Conn
		for _, p := range g.Players {
			if p.ID == targetPlayerID {
				if p.Connected && p.Conn != nil {
					targetConn = p.Conn
				}
				break
			}
		}
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in game %s: %v", ev.Type, targetPlayerID, g.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte, playerID, gameID uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write private message to player %s in game %s: %v", playerID, gameID, err)
			}
		}(targetConn, msgBytes, targetPlayerID, g.ID)
	}
}

// readGameMessages continuously reads messages from a client's WebSocket
// connection, unmarshals them, and routes them to the engine. It exits on
// error or context cancellation.
func readGameMessages(ctx context.Context, c *websocket.Conn, g *game.Game, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s in game %s.", playerID, g.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s in game %s.", playerID, g.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s in game %s: %v (Status: %d)", playerID, g.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s in game %s. Ignoring.", msgType, playerID, g.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from player %s in game %s: %v. Data: %s", playerID, g.ID, err, string(data))
			sendWsError(c, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' from player %s in game %s.", msg.Type, playerID, g.ID)

		switch msg.Type {
		case "hit":
			hand, err := g.SubmitHit(playerID, msg.Cards)
			if err != nil {
				sendWsError(c, err.Error())
				continue
			}
			sendWsMessage(c, map[string]interface{}{
				"type": "hand",
				"hand": hand,
			})

		case "exchange":
			if err := g.SubmitExchangeCards(playerID, msg.Cards); err != nil {
				sendWsError(c, err.Error())
				continue
			}
			sendWsMessage(c, map[string]string{"type": "exchangeAccepted"})

		case "ping":
			sendWsMessage(c, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown action type '%s' from player %s in game %s.", msg.Type, playerID, g.ID)
			sendWsError(c, fmt.Sprintf("Unknown action type: %s", msg.Type))
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for player %s in game %s.", playerID, g.ID)
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client with
// a write timeout.
func sendWsMessage(c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		} else if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
		// Let the read loop handle connection closure detection.
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(c *websocket.Conn, errorMsg string) {
	sendWsMessage(c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
