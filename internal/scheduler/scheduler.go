// Package scheduler runs the time-driven jobs: the daily auto-started game
// and the retention sweep over finished games and stale host requests.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/schlajo/Grouple-Bot/internal/config"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// retentionSchedule fires the sweep once an hour. The retention windows
// themselves come from configuration.
const retentionSchedule = "@hourly"

// GamePurger removes finished games older than the cutoff.
type GamePurger interface {
	PurgeGames(ctx context.Context, cutoff time.Time) (int64, error)
}

// HostPurger removes pending host requests older than the cutoff.
type HostPurger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Announcer posts the daily-game announcement into a chat.
type Announcer func(chatID int64, text string)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	registry *session.Registry
	games    GamePurger
	hosts    HostPurger
	announce Announcer
	log      zerolog.Logger
}

// New builds a scheduler in the configured timezone. Jobs are registered but
// not running until Start.
func New(cfg *config.Config, registry *session.Registry, games GamePurger, hosts HostPurger, announce Announcer, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Daily.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Daily.Timezone, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cfg:      cfg,
		registry: registry,
		games:    games,
		hosts:    hosts,
		announce: announce,
		log:      logger,
	}

	if cfg.Daily.Enabled && len(cfg.Daily.Chats) > 0 {
		if _, err := s.cron.AddFunc(cfg.Daily.Schedule, s.runDaily); err != nil {
			return nil, fmt.Errorf("invalid daily schedule %q: %w", cfg.Daily.Schedule, err)
		}
	}

	if _, err := s.cron.AddFunc(retentionSchedule, s.runRetention); err != nil {
		return nil, fmt.Errorf("failed to register retention sweep: %w", err)
	}

	return s, nil
}

// Start begins running the scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().
		Bool("daily_enabled", s.cfg.Daily.Enabled).
		Int("daily_chats", len(s.cfg.Daily.Chats)).
		Str("schedule", s.cfg.Daily.Schedule).
		Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runDaily starts a random-word game in every configured chat. Chats with a
// game already running are left alone.
func (s *Scheduler) runDaily() {
	ctx := context.Background()

	for _, chatID := range s.cfg.Daily.Chats {
		sess := s.registry.GetOrCreate(chatID)
		started, err := sess.Start(ctx, "", nil)
		if !started {
			s.log.Info().Err(err).Int64("chat_id", chatID).Msg("Skipping daily game")
			continue
		}

		snap := sess.Status()
		s.log.Info().Int64("chat_id", chatID).Int("word_length", snap.WordLength).Msg("Daily game started")
		if s.announce != nil {
			s.announce(chatID, fmt.Sprintf(
				"☀️ Good morning! Today's Wordle has %d letters.\nGuess with /guess <word>.",
				snap.WordLength,
			))
		}
	}
}

// runRetention purges finished games and stale host requests past their
// retention windows.
func (s *Scheduler) runRetention() {
	ctx := context.Background()
	now := time.Now()

	if purged, err := s.games.PurgeGames(ctx, now.Add(-s.cfg.Retention.Games)); err != nil {
		s.log.Error().Err(err).Msg("Failed to purge old games")
	} else if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("Purged old games")
	}

	if purged, err := s.hosts.Purge(ctx, now.Add(-s.cfg.Retention.PendingHosts)); err != nil {
		s.log.Error().Err(err).Msg("Failed to purge stale host requests")
	} else if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("Purged stale host requests")
	}
}
