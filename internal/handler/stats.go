package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/schlajo/Grouple-Bot/internal/service"
)

// LeaderboardLimit caps how many players the /stats reply lists.
const LeaderboardLimit = 10

// StatsHandler handles the statistics commands.
type StatsHandler struct {
	stats *service.StatsService
	names NameResolver
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats *service.StatsService, names NameResolver) *StatsHandler {
	return &StatsHandler{stats: stats, names: names}
}

// HandleStats handles the /stats command: the chat's leaderboard.
func (h *StatsHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	stats, err := h.stats.Leaderboard(ctx, chat.ID, LeaderboardLimit)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load leaderboard")
		return c.Reply("❌ Could not load stats, please try again later.")
	}
	return c.Reply(formatLeaderboard(chat.ID, stats, h.names))
}

// HandleGlobalStats handles the /globalstats command.
func (h *StatsHandler) HandleGlobalStats(c tele.Context) error {
	ctx := context.Background()

	stats, err := h.stats.GlobalStats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load global stats")
		return c.Reply("❌ Could not load stats, please try again later.")
	}
	return c.Reply(formatGlobalStats(stats))
}
