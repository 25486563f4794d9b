package session

import (
	"context"

	"github.com/schlajo/Grouple-Bot/internal/model"
)

// Store is the durable backing for sessions. Implementations must make
// AppendGuess idempotent on (player, timestamp) so a retried save never
// duplicates a guess, and SaveSession an upsert keyed by chat + active flag.
//
// Store errors never abort gameplay: the session logs them and keeps its
// in-memory state authoritative.
type Store interface {
	// SaveSession upserts the active game for a chat and returns its id.
	SaveSession(ctx context.Context, state *model.GameState) (int64, error)
	// AppendGuess adds a guess record to a persisted game.
	AppendGuess(ctx context.Context, gameID int64, rec model.GuessRecord) error
	// EndSession marks a persisted game inactive.
	EndSession(ctx context.Context, gameID int64) error
	// LoadActiveSession returns a chat's active game, or nil when none exists.
	LoadActiveSession(ctx context.Context, chatID int64) (*model.GameState, error)
	// LoadActiveSessions returns every active game, used for startup recovery.
	LoadActiveSessions(ctx context.Context) ([]*model.GameState, error)
}

// Ledger records statistics for committed guesses and concluded games. Calls
// happen synchronously after the guess is committed to the session; failures
// are absorbed by the implementation (best-effort durability).
type Ledger interface {
	// RecordGuess counts one committed guess. newGame is true for the
	// player's first guess in this game instance.
	RecordGuess(ctx context.Context, chatID, userID int64, won, newGame bool)
	// RecordOutcome counts one solved game. Called exactly once per game that
	// ends with at least one winner.
	RecordOutcome(ctx context.Context, outcome model.GameOutcome)
}

// WordSource draws random words for auto-generated games.
type WordSource interface {
	Pick() (string, error)
}
