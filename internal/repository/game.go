// Package repository provides the PostgreSQL data access layer. Each
// repository wraps a pgx pool; errors are wrapped and surfaced to callers,
// which decide whether to degrade to in-memory operation.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/model"
)

// GameRepository persists games and their guesses.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// SaveSession upserts the active game row for a chat. The partial unique
// index on (chat_id) WHERE is_active makes this an upsert keyed by
// chat + active flag. Returns the game id.
func (r *GameRepository) SaveSession(ctx context.Context, state *model.GameState) (int64, error) {
	const query = `
		INSERT INTO games (chat_id, word, is_active, is_custom_word, host_user_id, created_date, last_guess_at, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (chat_id) WHERE is_active DO UPDATE SET
			word = EXCLUDED.word,
			is_custom_word = EXCLUDED.is_custom_word,
			host_user_id = EXCLUDED.host_user_id,
			created_date = EXCLUDED.created_date,
			last_guess_at = EXCLUDED.last_guess_at,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		state.ChatID,
		state.Word,
		state.IsCustomWord,
		state.HostID,
		state.CreatedDate,
		state.LastGuessAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save game: %w", err)
	}

	return id, nil
}

// AppendGuess inserts one guess record. Idempotent on
// (game_id, user_id, created_at): a retried insert is a no-op.
func (r *GameRepository) AppendGuess(ctx context.Context, gameID int64, rec model.GuessRecord) error {
	const query = `
		INSERT INTO guesses (game_id, user_id, guess, result, is_winner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, user_id, created_at) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		gameID,
		rec.UserID,
		rec.Guess,
		rec.Verdict.String(),
		rec.IsWinner,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append guess: %w", err)
	}

	return nil
}

// EndSession marks a game inactive.
func (r *GameRepository) EndSession(ctx context.Context, gameID int64) error {
	const query = `
		UPDATE games
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, gameID); err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	return nil
}

// LoadActiveSession returns a chat's active game with its full guess
// history, or nil when the chat has no active game.
func (r *GameRepository) LoadActiveSession(ctx context.Context, chatID int64) (*model.GameState, error) {
	const query = `
		SELECT id, chat_id, word, is_active, is_custom_word, host_user_id, created_date, last_guess_at
		FROM games
		WHERE chat_id = $1 AND is_active
	`

	state, err := r.scanGame(r.pool.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load active game: %w", err)
	}

	if err := r.loadGuesses(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// LoadActiveSessions returns every active game across all chats, hydrated
// with guesses; used for startup recovery.
func (r *GameRepository) LoadActiveSessions(ctx context.Context) ([]*model.GameState, error) {
	const query = `
		SELECT id, chat_id, word, is_active, is_custom_word, host_user_id, created_date, last_guess_at
		FROM games
		WHERE is_active
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load active games: %w", err)
	}
	defer rows.Close()

	var states []*model.GameState
	for rows.Next() {
		state, err := r.scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	for _, state := range states {
		if err := r.loadGuesses(ctx, state); err != nil {
			return nil, err
		}
	}
	return states, nil
}

// PurgeGames deletes inactive games older than the cutoff. Active games are
// kept regardless of age; a long-running unsolved game must survive restarts.
func (r *GameRepository) PurgeGames(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM games WHERE NOT is_active AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge games: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *GameRepository) scanGame(row pgx.Row) (*model.GameState, error) {
	var state model.GameState
	err := row.Scan(
		&state.ID,
		&state.ChatID,
		&state.Word,
		&state.IsActive,
		&state.IsCustomWord,
		&state.HostID,
		&state.CreatedDate,
		&state.LastGuessAt,
	)
	if err != nil {
		return nil, err
	}
	state.Guesses = make(map[int64][]model.GuessRecord)
	return &state, nil
}

// loadGuesses hydrates a game's history in chronological order, rebuilding
// the per-player grouping, first-guess player order and winner set.
func (r *GameRepository) loadGuesses(ctx context.Context, state *model.GameState) error {
	const query = `
		SELECT user_id, guess, result, is_winner, created_at
		FROM guesses
		WHERE game_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, state.ID)
	if err != nil {
		return fmt.Errorf("failed to load guesses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec model.GuessRecord
		var result string
		if err := rows.Scan(&rec.UserID, &rec.Guess, &result, &rec.IsWinner, &rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan guess: %w", err)
		}
		rec.Verdict = game.ParseVerdict(result)

		if _, seen := state.Guesses[rec.UserID]; !seen {
			state.PlayerOrder = append(state.PlayerOrder, rec.UserID)
		}
		state.Guesses[rec.UserID] = append(state.Guesses[rec.UserID], rec)
		if rec.IsWinner {
			state.Winners = append(state.Winners, rec.UserID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating guesses: %w", err)
	}
	return nil
}
