package game

import "time"

// DefaultCooldown is the minimum wait between one player's consecutive
// guesses in the same game. Overridable via configuration.
const DefaultCooldown = 2 * time.Hour

// CooldownDecision is the outcome of a cooldown check.
type CooldownDecision struct {
	Allowed    bool
	RetryAfter time.Duration // zero when Allowed
}

// CooldownPolicy decides whether a player may guess again. It is a pure
// function of the player's last guess time and the current time, so the
// "time remaining" query can call it without committing anything.
type CooldownPolicy struct {
	Window time.Duration
}

// NewCooldownPolicy returns a policy with the given window, falling back to
// DefaultCooldown for non-positive values.
func NewCooldownPolicy(window time.Duration) CooldownPolicy {
	if window <= 0 {
		window = DefaultCooldown
	}
	return CooldownPolicy{Window: window}
}

// Evaluate checks the cooldown for a player whose most recent guess was at
// lastGuessAt. A zero lastGuessAt means the player has no guesses yet and is
// always allowed. At exactly the window boundary the guess is allowed.
func (p CooldownPolicy) Evaluate(lastGuessAt, now time.Time) CooldownDecision {
	if lastGuessAt.IsZero() {
		return CooldownDecision{Allowed: true}
	}
	elapsed := now.Sub(lastGuessAt)
	if elapsed >= p.Window {
		return CooldownDecision{Allowed: true}
	}
	return CooldownDecision{RetryAfter: p.Window - elapsed}
}

// RetryMinutes converts a retry-after duration to whole minutes, rounded up,
// for user-facing messages.
func RetryMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
