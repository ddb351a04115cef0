// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using
// Logrus. Requests addressing a game session carry the session id as a
// field so one game's traffic can be filtered out of the log.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}
			if id, ok := SessionID(r.URL.Path); ok {
				fields["game"] = id
			}
			logger.WithFields(fields).Info("HTTP request")
		})
	}
}

// SessionID extracts the game id segment from a /game/... route. The create
// route carries no id.
func SessionID(path string) (string, bool) {
	for _, prefix := range []string{"/game/ws/", "/game/join/", "/game/state/", "/game/exchange/"} {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id := strings.TrimPrefix(path, prefix)
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		if id != "" {
			return id, true
		}
	}
	return "", false
}

// LogWebSocketConnect logs a player's live connection attaching to a game.
func LogWebSocketConnect(logger *logrus.Logger, gameID, playerID uuid.UUID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"game":   gameID,
		"player": playerID,
		"remote": remoteAddr,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs the connection going away. The game itself is
// untouched by a disconnect; the seat just loses its live channel.
func LogWebSocketDisconnect(logger *logrus.Logger, gameID, playerID uuid.UUID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"game":   gameID,
		"player": playerID,
		"remote": remoteAddr,
	}).Info("WebSocket disconnected")
}
