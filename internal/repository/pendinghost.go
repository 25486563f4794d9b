package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schlajo/Grouple-Bot/internal/model"
)

// ErrPendingHostNotFound is returned when a user has no pending host request.
var ErrPendingHostNotFound = errors.New("pending host request not found")

// PendingHostRepository persists host requests waiting for a custom word.
type PendingHostRepository struct {
	pool *pgxpool.Pool
}

// NewPendingHostRepository creates a new PendingHostRepository instance.
func NewPendingHostRepository(pool *pgxpool.Pool) *PendingHostRepository {
	return &PendingHostRepository{pool: pool}
}

// Save upserts a pending request; asking to host twice just refreshes the
// channel and timestamp.
func (r *PendingHostRepository) Save(ctx context.Context, userID, chatID, channelID int64) error {
	const query = `
		INSERT INTO pending_hosts (user_id, chat_id, channel_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, chat_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			created_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, chatID, channelID); err != nil {
		return fmt.Errorf("failed to save pending host: %w", err)
	}
	return nil
}

// GetByUser returns a user's most recent pending request.
// Returns ErrPendingHostNotFound when none exists.
func (r *PendingHostRepository) GetByUser(ctx context.Context, userID int64) (*model.PendingHost, error) {
	const query = `
		SELECT user_id, chat_id, channel_id, created_at
		FROM pending_hosts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p model.PendingHost
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.ChatID, &p.ChannelID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPendingHostNotFound
		}
		return nil, fmt.Errorf("failed to get pending host: %w", err)
	}
	return &p, nil
}

// LoadByChat returns all pending requests for a chat keyed by user.
func (r *PendingHostRepository) LoadByChat(ctx context.Context, chatID int64) (map[int64]model.PendingHost, error) {
	const query = `
		SELECT user_id, chat_id, channel_id, created_at
		FROM pending_hosts
		WHERE chat_id = $1
	`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending hosts: %w", err)
	}
	defer rows.Close()

	pending := make(map[int64]model.PendingHost)
	for rows.Next() {
		var p model.PendingHost
		if err := rows.Scan(&p.UserID, &p.ChatID, &p.ChannelID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending host: %w", err)
		}
		pending[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending hosts: %w", err)
	}
	return pending, nil
}

// Remove deletes a consumed or abandoned request.
func (r *PendingHostRepository) Remove(ctx context.Context, userID, chatID int64) error {
	const query = `DELETE FROM pending_hosts WHERE user_id = $1 AND chat_id = $2`

	if _, err := r.pool.Exec(ctx, query, userID, chatID); err != nil {
		return fmt.Errorf("failed to remove pending host: %w", err)
	}
	return nil
}

// Purge deletes requests older than the cutoff.
func (r *PendingHostRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM pending_hosts WHERE created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge pending hosts: %w", err)
	}
	return tag.RowsAffected(), nil
}
