package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucasmendel/arcadia/internal/database"
	"github.com/lucasmendel/arcadia/internal/models"
)

// StatsRepository handles per-user game stat rows.
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{pool: db.Pool}
}

// RecordPlay upserts one play: increments the counter and keeps the best
// score, atomically per (user, game) row.
func (r *StatsRepository) RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error) {
	query := `
		INSERT INTO game_stats (user_id, game, plays, best_score, updated_at)
		VALUES ($1, $2, 1, $3, NOW())
		ON CONFLICT (user_id, game) DO UPDATE
		SET plays = game_stats.plays + 1,
		    best_score = GREATEST(game_stats.best_score, EXCLUDED.best_score),
		    updated_at = NOW()
		RETURNING user_id, game, plays, best_score, updated_at
	`

	var stat models.GameStat
	err := r.pool.QueryRow(ctx, query, userID, game, score).Scan(
		&stat.UserID, &stat.Game, &stat.Plays, &stat.BestScore, &stat.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stat, nil
}

// ListByUser returns all stat rows for one user.
func (r *StatsRepository) ListByUser(ctx context.Context, userID string) ([]*models.GameStat, error) {
	query := `
		SELECT user_id, game, plays, best_score, updated_at
		FROM game_stats
		WHERE user_id = $1
		ORDER BY game
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game stats: %w", err)
	}
	defer rows.Close()

	stats := make([]*models.GameStat, 0)
	for rows.Next() {
		var stat models.GameStat
		if err := rows.Scan(&stat.UserID, &stat.Game, &stat.Plays, &stat.BestScore, &stat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stat rows: %w", err)
	}

	return stats, nil
}

// Leaderboard returns the top entries for a game by best score.
func (r *StatsRepository) Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT u.name, s.best_score, s.plays
		FROM game_stats s
		JOIN users u ON u.id = s.user_id
		WHERE s.game = $1 AND u.email_verified = TRUE
		ORDER BY s.best_score DESC, s.updated_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, game, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.Name, &entry.BestScore, &entry.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}

	return entries, nil
}
