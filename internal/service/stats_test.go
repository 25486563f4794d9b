package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/schlajo/Grouple-Bot/internal/model"
	"github.com/schlajo/Grouple-Bot/internal/repository"
)

// failingStatsStore rejects every call, simulating a database outage.
type failingStatsStore struct{}

func (failingStatsStore) IncrementPlayer(context.Context, int64, int64, bool, bool) error {
	return assert.AnError
}

func (failingStatsStore) LoadPlayers(context.Context, int64) ([]model.PlayerStats, error) {
	return nil, assert.AnError
}

func (failingStatsStore) IncrementGlobal(context.Context, model.GameOutcome) error {
	return assert.AnError
}

func (failingStatsStore) LoadGlobal(context.Context) (*model.GlobalStats, error) {
	return nil, assert.AnError
}

func TestStatsService_RecordGuessAccumulates(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(repository.NewMemory(), zerolog.Nop())

	// Player 1: two games, one win, three guesses total
	svc.RecordGuess(ctx, 100, 1, false, true)
	svc.RecordGuess(ctx, 100, 1, true, false)
	svc.RecordGuess(ctx, 100, 1, false, true)
	// Player 2: one game, one guess
	svc.RecordGuess(ctx, 100, 2, false, true)

	stats, err := svc.Leaderboard(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, int64(1), stats[0].UserID)
	assert.Equal(t, 1, stats[0].Wins)
	assert.Equal(t, 2, stats[0].TotalGames)
	assert.Equal(t, 3, stats[0].TotalGuesses)

	assert.Equal(t, int64(2), stats[1].UserID)
	assert.Equal(t, 0, stats[1].Wins)
	assert.Equal(t, 1, stats[1].TotalGames)
	assert.Equal(t, 1, stats[1].TotalGuesses)
}

func TestStatsService_LeaderboardLimitAndIsolation(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(repository.NewMemory(), zerolog.Nop())

	for userID := int64(1); userID <= 5; userID++ {
		for w := int64(0); w < userID; w++ {
			svc.RecordGuess(ctx, 100, userID, true, w == 0)
		}
	}
	svc.RecordGuess(ctx, 200, 9, true, true)

	stats, err := svc.Leaderboard(ctx, 100, 3)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	// Most wins first, and the other chat's player never appears
	assert.Equal(t, int64(5), stats[0].UserID)
	assert.Equal(t, int64(4), stats[1].UserID)
	assert.Equal(t, int64(3), stats[2].UserID)
}

func TestStatsService_LeaderboardFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(failingStatsStore{}, zerolog.Nop())

	svc.RecordGuess(ctx, 100, 1, true, true)
	svc.RecordGuess(ctx, 100, 2, false, true)
	svc.RecordGuess(ctx, 100, 2, false, false)

	stats, err := svc.Leaderboard(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(1), stats[0].UserID)
	assert.Equal(t, 1, stats[0].Wins)
	assert.Equal(t, 2, stats[1].TotalGuesses)
}

func TestStatsService_RecordOutcomeGlobal(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(repository.NewMemory(), zerolog.Nop())

	svc.RecordOutcome(ctx, model.GameOutcome{Word: "CRANE", IsCustomWord: false, TotalGuesses: 7})
	svc.RecordOutcome(ctx, model.GameOutcome{Word: "PIANOS", IsCustomWord: true, TotalGuesses: 3})

	stats, err := svc.GlobalStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.GamesSolved)
	assert.Equal(t, 10, stats.TotalGuesses)
	assert.Equal(t, 1, stats.CustomGamesSolved)
	assert.Equal(t, 3, stats.CustomGuesses)
	assert.Equal(t, 1, stats.GeneratedGamesSolved)
	assert.Equal(t, 7, stats.GeneratedGuesses)
	assert.Equal(t, model.LengthStats{Solved: 1, Guesses: 7}, stats.ByLength[5])
	assert.Equal(t, model.LengthStats{Solved: 1, Guesses: 3}, stats.ByLength[6])
}

// TestStatsConservationProperty checks count conservation: for any sequence
// of recorded guesses, the leaderboard totals equal exactly what was recorded.
func TestStatsConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		svc := NewStatsService(repository.NewMemory(), zerolog.Nop())

		chatID := rapid.Int64Range(1, 1000).Draw(t, "chatID")
		numGuesses := rapid.IntRange(1, 50).Draw(t, "numGuesses")

		type tally struct{ wins, games, guesses int }
		expected := make(map[int64]*tally)

		for i := 0; i < numGuesses; i++ {
			userID := rapid.Int64Range(1, 5).Draw(t, "userID")
			won := rapid.Bool().Draw(t, "won")

			e := expected[userID]
			if e == nil {
				e = &tally{}
				expected[userID] = e
			}
			newGame := e.guesses == 0
			e.guesses++
			if newGame {
				e.games++
			}
			if won {
				e.wins++
			}

			svc.RecordGuess(ctx, chatID, userID, won, newGame)
		}

		stats, err := svc.Leaderboard(ctx, chatID, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(stats) != len(expected) {
			t.Fatalf("Expected %d players, got %d", len(expected), len(stats))
		}
		for _, s := range stats {
			e := expected[s.UserID]
			if e == nil {
				t.Fatalf("Unexpected player %d in leaderboard", s.UserID)
			}
			if s.Wins != e.wins || s.TotalGames != e.games || s.TotalGuesses != e.guesses {
				t.Fatalf("Player %d mismatch: got (%d,%d,%d), want (%d,%d,%d)",
					s.UserID, s.Wins, s.TotalGames, s.TotalGuesses, e.wins, e.games, e.guesses)
			}
		}
	})
}
