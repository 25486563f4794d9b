// Package bot provides the chat bot initialization, middleware and handler
// registration for the shared Wordle game.
package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/schlajo/Grouple-Bot/internal/config"
	"github.com/schlajo/Grouple-Bot/internal/handler"
	"github.com/schlajo/Grouple-Bot/internal/pkg/lock"
	"github.com/schlajo/Grouple-Bot/internal/service"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	registry *session.Registry
	names    *nameCache

	gameHandler  *handler.GameHandler
	statsHandler *handler.StatsHandler
	hostHandler  *handler.HostHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config       *config.Config
	Registry     *session.Registry
	StatsService *service.StatsService
	HostService  *service.HostService
	ChatLock     *lock.ChatLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		registry: deps.Registry,
		names:    newNameCache(teleBot),
	}

	b.gameHandler = handler.NewGameHandler(deps.Registry, deps.ChatLock, b.names)
	b.statsHandler = handler.NewStatsHandler(deps.StatsService, b.names)
	b.hostHandler = handler.NewHostHandler(deps.HostService, b.names)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.gameHandler.HandleHelp)
	b.bot.Handle("/help", b.gameHandler.HandleHelp)

	// Game lifecycle
	b.bot.Handle("/wordle", b.gameHandler.HandleWordle)
	b.bot.Handle("/guess", b.gameHandler.HandleGuess)
	b.bot.Handle("/status", b.gameHandler.HandleStatus)
	b.bot.Handle("/time", b.gameHandler.HandleTime)
	b.bot.Handle("/end", b.gameHandler.HandleEnd)

	// Stats
	b.bot.Handle("/stats", b.statsHandler.HandleStats)
	b.bot.Handle("/globalstats", b.statsHandler.HandleGlobalStats)

	// Hosting
	b.bot.Handle("/host", b.hostHandler.HandleHost)
	b.bot.Handle(tele.OnText, b.handleText)
}

// handleText routes plain private messages to the hosted-word flow. Group
// messages and private chatter without a pending request are ignored.
func (b *Bot) handleText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil || chat.Type != tele.ChatPrivate {
		return nil
	}

	handled, err := b.hostHandler.HandleHostWord(c)
	if handled {
		return err
	}
	return nil
}

// AnnounceGameEnd posts the end-of-game summary after the deferred auto-end.
// Wired as the session registry's end callback.
func (b *Bot) AnnounceGameEnd(summary session.Summary) {
	text := handler.FormatSummary(summary, b.names)
	if _, err := b.bot.Send(&tele.Chat{ID: summary.ChatID}, text); err != nil {
		log.Error().Err(err).Int64("chat_id", summary.ChatID).Msg("Failed to announce game end")
	}
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}

// nameCache resolves member display names through the platform API and keeps
// them for the process lifetime. Names rarely change and the API is rate
// limited, so staleness is acceptable.
type nameCache struct {
	bot *tele.Bot

	mu    sync.RWMutex
	names map[string]string
}

func newNameCache(bot *tele.Bot) *nameCache {
	return &nameCache{bot: bot, names: make(map[string]string)}
}

// DisplayName implements handler.NameResolver.
func (n *nameCache) DisplayName(chatID, userID int64) string {
	key := fmt.Sprintf("%d:%d", chatID, userID)

	n.mu.RLock()
	name, ok := n.names[key]
	n.mu.RUnlock()
	if ok {
		return name
	}

	name = fmt.Sprintf("Player %d", userID)
	member, err := n.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	if err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("Failed to resolve member name")
		return name
	}
	if member.User != nil {
		if member.User.FirstName != "" {
			name = member.User.FirstName
		} else if member.User.Username != "" {
			name = member.User.Username
		}
	}

	n.mu.Lock()
	n.names[key] = name
	n.mu.Unlock()
	return name
}
