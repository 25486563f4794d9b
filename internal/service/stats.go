// Package service provides business logic on top of the repositories:
// the statistics ledger and the custom-word hosting flow.
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/schlajo/Grouple-Bot/internal/model"
)

// StatsStore is the durable backing for the ledger. Increment calls must be
// atomic in the store itself (no read-modify-write) so that games ending in
// different chats at the same moment never lose counts.
type StatsStore interface {
	IncrementPlayer(ctx context.Context, chatID, userID int64, won, newGame bool) error
	LoadPlayers(ctx context.Context, chatID int64) ([]model.PlayerStats, error)
	IncrementGlobal(ctx context.Context, outcome model.GameOutcome) error
	LoadGlobal(ctx context.Context) (*model.GlobalStats, error)
}

// StatsService is the stats ledger. Durability is best effort: a store
// failure is logged and absorbed, never propagated to the guess that
// triggered it, and an in-memory cache keeps the leaderboard serviceable
// while the store is down.
type StatsService struct {
	store StatsStore
	log   zerolog.Logger

	mu    sync.Mutex
	cache map[int64]map[int64]*model.PlayerStats // chat id -> user id -> stats
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(store StatsStore, logger zerolog.Logger) *StatsService {
	return &StatsService{
		store: store,
		log:   logger,
		cache: make(map[int64]map[int64]*model.PlayerStats),
	}
}

// RecordGuess counts one committed guess: total guesses always, games played
// on the player's first guess of the game, wins on a winning guess. Called
// exactly once per accepted guess, after the session has committed it.
func (s *StatsService) RecordGuess(ctx context.Context, chatID, userID int64, won, newGame bool) {
	s.mu.Lock()
	chat := s.cache[chatID]
	if chat == nil {
		chat = make(map[int64]*model.PlayerStats)
		s.cache[chatID] = chat
	}
	stats := chat[userID]
	if stats == nil {
		stats = &model.PlayerStats{ChatID: chatID, UserID: userID}
		chat[userID] = stats
	}
	stats.TotalGuesses++
	if newGame {
		stats.TotalGames++
	}
	if won {
		stats.Wins++
	}
	s.mu.Unlock()

	if err := s.store.IncrementPlayer(ctx, chatID, userID, won, newGame); err != nil {
		s.log.Error().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Failed to persist player stats, continuing in memory")
	}
}

// RecordOutcome counts one solved game in the global aggregates.
func (s *StatsService) RecordOutcome(ctx context.Context, outcome model.GameOutcome) {
	if err := s.store.IncrementGlobal(ctx, outcome); err != nil {
		s.log.Error().Err(err).
			Str("word", outcome.Word).
			Bool("custom", outcome.IsCustomWord).
			Msg("Failed to persist global stats")
	}
}

// Leaderboard returns up to limit players for a chat ordered by wins. The
// durable store is authoritative; when it is unreachable the cached counts
// accumulated this process lifetime are served instead.
func (s *StatsService) Leaderboard(ctx context.Context, chatID int64, limit int) ([]model.PlayerStats, error) {
	stats, err := s.store.LoadPlayers(ctx, chatID)
	if err != nil {
		s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("Serving leaderboard from memory cache")
		stats = s.cachedPlayers(chatID)
	}

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// GlobalStats returns the community-wide aggregates.
func (s *StatsService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	return s.store.LoadGlobal(ctx)
}

func (s *StatsService) cachedPlayers(chatID int64) []model.PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]model.PlayerStats, 0, len(s.cache[chatID]))
	for _, p := range s.cache[chatID] {
		stats = append(stats, *p)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Wins != stats[j].Wins {
			return stats[i].Wins > stats[j].Wins
		}
		return stats[i].TotalGuesses < stats[j].TotalGuesses
	})
	return stats
}
