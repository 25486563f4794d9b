package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownPolicy_Evaluate(t *testing.T) {
	policy := NewCooldownPolicy(2 * time.Hour)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastGuess  time.Time
		allowed    bool
		retryAfter time.Duration
	}{
		{"no previous guess", time.Time{}, true, 0},
		{"one second short of window", now.Add(-2*time.Hour + time.Second), false, time.Second},
		{"exactly at window", now.Add(-2 * time.Hour), true, 0},
		{"well past window", now.Add(-5 * time.Hour), true, 0},
		{"guessed just now", now, false, 2 * time.Hour},
		{"halfway through window", now.Add(-time.Hour), false, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Evaluate(tt.lastGuess, now)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.retryAfter, d.RetryAfter)
		})
	}
}

func TestNewCooldownPolicy_Default(t *testing.T) {
	assert.Equal(t, DefaultCooldown, NewCooldownPolicy(0).Window)
	assert.Equal(t, DefaultCooldown, NewCooldownPolicy(-time.Hour).Window)
	assert.Equal(t, time.Hour, NewCooldownPolicy(time.Hour).Window)
}

// Evaluate has no side effects: asking twice gives the same answer.
func TestCooldownPolicy_Idempotent(t *testing.T) {
	policy := NewCooldownPolicy(time.Hour)
	now := time.Now()
	last := now.Add(-10 * time.Minute)

	first := policy.Evaluate(last, now)
	second := policy.Evaluate(last, now)
	assert.Equal(t, first, second)
}

func TestRetryMinutes(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"zero", 0, 0},
		{"negative", -time.Minute, 0},
		{"one second rounds up", time.Second, 1},
		{"exact minute", time.Minute, 1},
		{"minute and a second", time.Minute + time.Second, 2},
		{"full window", 2 * time.Hour, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryMinutes(tt.d))
		})
	}
}
