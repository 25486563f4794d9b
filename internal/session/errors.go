package session

import (
	"errors"
	"fmt"
	"time"
)

// Guess and lifecycle errors returned to the caller for user-facing
// messaging. Persistence failures are never surfaced through these; they are
// logged at the store boundary and gameplay continues in memory.
var (
	// ErrNoActiveGame is returned when a guess or query needs an active game.
	ErrNoActiveGame = errors.New("no active game")
	// ErrAlreadyActive is returned by Start when a game is already running.
	ErrAlreadyActive = errors.New("a game is already active")
	// ErrNotAlphabetic is returned when a guess contains non-letter characters.
	ErrNotAlphabetic = errors.New("guess must contain only letters")
)

// LengthError reports a guess whose length does not match the word.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("guess must be exactly %d letters, got %d", e.Want, e.Got)
}

// CooldownError reports a guess rejected by the per-player cooldown.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.RetryAfter)
}
