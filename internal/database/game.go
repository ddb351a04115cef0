// internal/database/game.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoundResult is one player's final standing in a completed round.
type RoundResult struct {
	PlayerName string
	Automated  bool
	Position   int
}

// RecordRoundResults persists the final ranking of a round. A nil pool means
// persistence is disabled and the call is a no-op.
func RecordRoundResults(ctx context.Context, gameID uuid.UUID, results []RoundResult) error {
	if DB == nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, end_time)
			VALUES ($1, 'completed', NOW())
			ON CONFLICT (id) DO UPDATE SET status = 'completed', end_time = NOW()
		`
		if _, e := tx.Exec(ctx, upsertGame, gameID); e != nil {
			return e
		}

		for _, r := range results {
			q := `
				INSERT INTO game_results (game_id, player_name, is_automated, position)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_name)
				DO UPDATE SET is_automated=$3, position=$4
			`
			if _, e := tx.Exec(ctx, q, gameID, r.PlayerName, r.Automated, r.Position); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}
