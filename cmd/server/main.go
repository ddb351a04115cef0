// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/akarpia/presidentti/internal/cache"
	"github.com/akarpia/presidentti/internal/database"
	"github.com/akarpia/presidentti/internal/handlers"
	"github.com/akarpia/presidentti/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Action logging and results persistence are best effort: the server
	// plays fine without Redis or Postgres.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, action log disabled: %v", err)
		cache.Rdb = nil
	}
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("postgres unavailable, results persistence disabled: %v", err)
	} else {
		defer database.DB.Close()
	}

	srv := handlers.NewGameServer()
	srv.Logf = logger.Infof

	mux := http.NewServeMux()

	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))
	mux.Handle("/game/", middleware.LogMiddleware(logger)(srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
