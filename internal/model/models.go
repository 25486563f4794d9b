// Package model defines the data models shared between the game core and
// the persistence layer.
package model

import (
	"time"

	"github.com/schlajo/Grouple-Bot/internal/game"
)

// GuessRecord is one player's guess inside a game. Records are append-only:
// a re-guess after the cooldown adds a new record, it never replaces one.
type GuessRecord struct {
	UserID    int64        `db:"user_id"`
	Guess     string       `db:"guess"`
	Verdict   game.Verdict `db:"result"`
	IsWinner  bool         `db:"is_winner"`
	CreatedAt time.Time    `db:"created_at"`
}

// GameState is the persisted shape of one chat's game. The session package
// owns the live in-memory form; this struct is what crosses the store
// boundary in both directions, and a reload must reproduce the identical
// guess history, verdicts and winner set.
type GameState struct {
	ID           int64      `db:"id"`
	ChatID       int64      `db:"chat_id"`
	Word         string     `db:"word"`
	IsActive     bool       `db:"is_active"`
	IsCustomWord bool       `db:"is_custom_word"`
	HostID       *int64     `db:"host_user_id"`
	CreatedDate  string     `db:"created_date"`
	LastGuessAt  *time.Time `db:"last_guess_at"`

	// Guesses groups records per player in chronological order. A player key
	// never maps to an empty slice.
	Guesses map[int64][]GuessRecord
	// PlayerOrder lists player IDs by first-guess time, for stable rendering.
	PlayerOrder []int64
	// Winners holds the players whose guess matched the word.
	Winners []int64
}

// TotalGuesses counts guesses across all players.
func (g *GameState) TotalGuesses() int {
	total := 0
	for _, records := range g.Guesses {
		total += len(records)
	}
	return total
}

// PlayerStats is one player's cumulative record within a chat. Counters only
// ever increase.
type PlayerStats struct {
	ChatID       int64     `db:"chat_id"`
	UserID       int64     `db:"user_id"`
	Wins         int       `db:"wins"`
	TotalGames   int       `db:"total_games"`
	TotalGuesses int       `db:"total_guesses"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// GameOutcome summarizes a solved game for the global counters.
type GameOutcome struct {
	Word         string
	IsCustomWord bool
	TotalGuesses int
}

// LengthStats aggregates solved games of one word length.
type LengthStats struct {
	Solved  int `db:"solved"`
	Guesses int `db:"guesses"`
}

// GlobalStats aggregates solved games across all chats. Updated only when a
// game ends with at least one winner.
type GlobalStats struct {
	GamesSolved          int `db:"games_solved"`
	TotalGuesses         int `db:"total_guesses"`
	CustomGamesSolved    int `db:"custom_games_solved"`
	CustomGuesses        int `db:"custom_guesses"`
	GeneratedGamesSolved int `db:"generated_games_solved"`
	GeneratedGuesses     int `db:"generated_guesses"`

	// ByLength buckets solved games by word length.
	ByLength map[int]LengthStats
}

// PendingHost is a player's request to host a custom-word game, waiting for
// the word to arrive in a private message. Requests expire after a retention
// window and are swept periodically.
type PendingHost struct {
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	ChannelID int64     `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`
}
