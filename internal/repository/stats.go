package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schlajo/Grouple-Bot/internal/model"
)

// StatsRepository persists per-chat player statistics and the global solved
// counters. All writes are single-statement atomic increments so concurrent
// sessions ending at the same time never lose updates.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// IncrementPlayer counts one committed guess for a player. Creates the row
// on first guess; increments are applied in the database, never computed
// from a cached read.
func (r *StatsRepository) IncrementPlayer(ctx context.Context, chatID, userID int64, won, newGame bool) error {
	const query = `
		INSERT INTO player_stats (chat_id, user_id, wins, total_games, total_guesses, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			wins = player_stats.wins + EXCLUDED.wins,
			total_games = player_stats.total_games + EXCLUDED.total_games,
			total_guesses = player_stats.total_guesses + 1,
			updated_at = NOW()
	`

	winInc, gameInc := 0, 0
	if won {
		winInc = 1
	}
	if newGame {
		gameInc = 1
	}

	if _, err := r.pool.Exec(ctx, query, chatID, userID, winInc, gameInc); err != nil {
		return fmt.Errorf("failed to increment player stats: %w", err)
	}
	return nil
}

// LoadPlayers returns all player stats for a chat, most wins first.
func (r *StatsRepository) LoadPlayers(ctx context.Context, chatID int64) ([]model.PlayerStats, error) {
	const query = `
		SELECT chat_id, user_id, wins, total_games, total_guesses, updated_at
		FROM player_stats
		WHERE chat_id = $1
		ORDER BY wins DESC, total_guesses ASC
	`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}
	defer rows.Close()

	var stats []model.PlayerStats
	for rows.Next() {
		var s model.PlayerStats
		if err := rows.Scan(&s.ChatID, &s.UserID, &s.Wins, &s.TotalGames, &s.TotalGuesses, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player stats: %w", err)
	}
	return stats, nil
}

// IncrementGlobal counts one solved game in the singleton global row and the
// per-word-length bucket. Both statements are additive upserts; call order
// between chats does not matter.
func (r *StatsRepository) IncrementGlobal(ctx context.Context, outcome model.GameOutcome) error {
	const globalQuery = `
		INSERT INTO global_stats (id, games_solved, total_guesses, custom_games_solved, custom_guesses, generated_games_solved, generated_guesses)
		VALUES (1, 1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			games_solved = global_stats.games_solved + 1,
			total_guesses = global_stats.total_guesses + EXCLUDED.total_guesses,
			custom_games_solved = global_stats.custom_games_solved + EXCLUDED.custom_games_solved,
			custom_guesses = global_stats.custom_guesses + EXCLUDED.custom_guesses,
			generated_games_solved = global_stats.generated_games_solved + EXCLUDED.generated_games_solved,
			generated_guesses = global_stats.generated_guesses + EXCLUDED.generated_guesses
	`

	customSolved, customGuesses, generatedSolved, generatedGuesses := 0, 0, 0, 0
	if outcome.IsCustomWord {
		customSolved, customGuesses = 1, outcome.TotalGuesses
	} else {
		generatedSolved, generatedGuesses = 1, outcome.TotalGuesses
	}

	if _, err := r.pool.Exec(ctx, globalQuery,
		outcome.TotalGuesses, customSolved, customGuesses, generatedSolved, generatedGuesses,
	); err != nil {
		return fmt.Errorf("failed to increment global stats: %w", err)
	}

	const lengthQuery = `
		INSERT INTO global_length_stats (word_length, solved, guesses)
		VALUES ($1, 1, $2)
		ON CONFLICT (word_length) DO UPDATE SET
			solved = global_length_stats.solved + 1,
			guesses = global_length_stats.guesses + EXCLUDED.guesses
	`

	if _, err := r.pool.Exec(ctx, lengthQuery, len(outcome.Word), outcome.TotalGuesses); err != nil {
		return fmt.Errorf("failed to increment length stats: %w", err)
	}
	return nil
}

// LoadGlobal returns the aggregate counters. A store with no solved games
// yet returns zeroed stats rather than an error.
func (r *StatsRepository) LoadGlobal(ctx context.Context) (*model.GlobalStats, error) {
	const query = `
		SELECT games_solved, total_guesses, custom_games_solved, custom_guesses, generated_games_solved, generated_guesses
		FROM global_stats
		WHERE id = 1
	`

	stats := &model.GlobalStats{ByLength: make(map[int]model.LengthStats)}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.GamesSolved,
		&stats.TotalGuesses,
		&stats.CustomGamesSolved,
		&stats.CustomGuesses,
		&stats.GeneratedGamesSolved,
		&stats.GeneratedGuesses,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to load global stats: %w", err)
	}

	const lengthQuery = `SELECT word_length, solved, guesses FROM global_length_stats ORDER BY word_length`

	rows, err := r.pool.Query(ctx, lengthQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load length stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var length int
		var s model.LengthStats
		if err := rows.Scan(&length, &s.Solved, &s.Guesses); err != nil {
			return nil, fmt.Errorf("failed to scan length stats: %w", err)
		}
		stats.ByLength[length] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating length stats: %w", err)
	}
	return stats, nil
}
