// Package main is the entry point for the Grouple Wordle bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/schlajo/Grouple-Bot/internal/bot"
	"github.com/schlajo/Grouple-Bot/internal/config"
	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/pkg/db"
	"github.com/schlajo/Grouple-Bot/internal/pkg/lock"
	"github.com/schlajo/Grouple-Bot/internal/repository"
	"github.com/schlajo/Grouple-Bot/internal/scheduler"
	"github.com/schlajo/Grouple-Bot/internal/service"
	"github.com/schlajo/Grouple-Bot/internal/session"
	"github.com/schlajo/Grouple-Bot/internal/words"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage. A database failure degrades to memory-only
	// operation: games are playable but do not survive a restart.
	var (
		gameStore    session.Store
		statsStore   service.StatsStore
		pendingStore service.PendingHostStore
		gamePurger   scheduler.GamePurger
		hostPurger   scheduler.HostPurger
	)

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("Database unavailable, running with in-memory storage")
		mem := repository.NewMemory()
		gameStore, statsStore, pendingStore = mem, mem, mem
		gamePurger, hostPurger = mem, mem
	} else {
		defer dbPool.Close()

		if err := runMigrations(ctx, dbPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		gameRepo := repository.NewGameRepository(dbPool.Pool)
		statsRepo := repository.NewStatsRepository(dbPool.Pool)
		pendingRepo := repository.NewPendingHostRepository(dbPool.Pool)
		gameStore, statsStore, pendingStore = gameRepo, statsRepo, pendingRepo
		gamePurger, hostPurger = gameRepo, pendingRepo
	}

	// Load the word list
	wordList, err := words.Load(cfg.Words.Path, time.Now().UnixNano())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load word list")
	}

	// Initialize services
	statsService := service.NewStatsService(statsStore, log.Logger)

	// The end announcement needs the bot, which needs the registry; the
	// callback binds late through this pointer.
	var groupleBot *bot.Bot

	registry := session.NewRegistry(session.Config{
		Cooldown:      game.NewCooldownPolicy(cfg.Game.Cooldown),
		AnnounceDelay: cfg.Game.AnnounceDelay,
	}, session.RegistryDeps{
		Store:  gameStore,
		Ledger: statsService,
		Words:  wordList,
		OnGameEnd: func(summary session.Summary) {
			if groupleBot != nil {
				groupleBot.AnnounceGameEnd(summary)
			}
		},
		Logger: log.Logger,
	})

	// Restore active games so a restart picks up mid-game chats
	if restored, err := registry.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to restore active games")
	} else if restored > 0 {
		log.Info().Int("games", restored).Msg("Restored active games")
	}

	hostService := service.NewHostService(pendingStore, registry, log.Logger)

	// Initialize bot
	groupleBot, err = bot.New(&bot.Dependencies{
		Config:       cfg,
		Registry:     registry,
		StatsService: statsService,
		HostService:  hostService,
		ChatLock:     lock.NewChatLock(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Initialize scheduler for the daily game and retention sweep
	sched, err := scheduler.New(cfg, registry, gamePurger, hostPurger, func(chatID int64, text string) {
		if _, err := groupleBot.GetBot().Send(&tele.Chat{ID: chatID}, text); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send scheduled announcement")
		}
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	sched.Start()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		groupleBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	sched.Stop()
	groupleBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create games table. The partial unique index enforces at
	// most one active game per chat.
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			word VARCHAR(10) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_custom_word BOOLEAN NOT NULL DEFAULT FALSE,
			host_user_id BIGINT,
			created_date VARCHAR(10) NOT NULL,
			last_guess_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_games_one_active_per_chat ON games(chat_id) WHERE is_active;
		CREATE INDEX IF NOT EXISTS idx_games_inactive_age ON games(created_at) WHERE NOT is_active;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: games table created")

	// Migration 2: Create guesses table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS guesses (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			guess VARCHAR(10) NOT NULL,
			result VARCHAR(10) NOT NULL,
			is_winner BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_guesses_dedup ON guesses(game_id, user_id, created_at);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: guesses table created")

	// Migration 3: Create player stats table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_stats (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			wins INT NOT NULL DEFAULT 0,
			total_games INT NOT NULL DEFAULT 0,
			total_guesses INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: player_stats table created")

	// Migration 4: Create global stats tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS global_stats (
			id INT PRIMARY KEY,
			games_solved INT NOT NULL DEFAULT 0,
			total_guesses INT NOT NULL DEFAULT 0,
			custom_games_solved INT NOT NULL DEFAULT 0,
			custom_guesses INT NOT NULL DEFAULT 0,
			generated_games_solved INT NOT NULL DEFAULT 0,
			generated_guesses INT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS global_length_stats (
			word_length INT PRIMARY KEY,
			solved INT NOT NULL DEFAULT 0,
			guesses INT NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: global stats tables created")

	// Migration 5: Create pending hosts table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pending_hosts (
			user_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			channel_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, chat_id)
		);
		CREATE INDEX IF NOT EXISTS idx_pending_hosts_age ON pending_hosts(created_at);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: pending_hosts table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
