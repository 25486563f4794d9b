package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/pkg/lock"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// GameHandler handles the game lifecycle commands.
type GameHandler struct {
	registry *session.Registry
	chatLock *lock.ChatLock
	names    NameResolver
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(registry *session.Registry, chatLock *lock.ChatLock, names NameResolver) *GameHandler {
	return &GameHandler{
		registry: registry,
		chatLock: chatLock,
		names:    names,
	}
}

// HandleWordle handles the /wordle command: starts a game with a random word.
func (h *GameHandler) HandleWordle(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	h.chatLock.Lock(chat.ID)
	defer h.chatLock.Unlock(chat.ID)

	sess := h.registry.GetOrCreate(chat.ID)
	started, err := sess.Start(ctx, "", nil)
	if !started {
		if errors.Is(err, session.ErrAlreadyActive) {
			return c.Reply("⚠️ A game is already in progress. Use /guess <word> or /status.")
		}
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to start game")
		return c.Reply("❌ Could not start a game, please try again later.")
	}

	snap := sess.Status()
	return c.Send(fmt.Sprintf(
		"🎮 New Wordle started! The word has %d letters.\nGuess with /guess <word>.",
		snap.WordLength,
	))
}

// HandleGuess handles the /guess command.
func (h *GameHandler) HandleGuess(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("Usage: /guess <word>")
	}

	h.chatLock.Lock(chat.ID)
	defer h.chatLock.Unlock(chat.ID)

	sess := h.registry.GetOrCreate(chat.ID)
	outcome, err := sess.SubmitGuess(ctx, sender.ID, args[0])
	if err != nil {
		return c.Reply(guessErrorMessage(err))
	}

	name := h.names.DisplayName(chat.ID, sender.ID)
	msg := formatGuessResult(name, game.Normalize(args[0]), outcome.Verdict)
	if outcome.Won {
		msg += "\n\n🎯 Correct!"
	}
	return c.Reply(msg)
}

// HandleStatus handles the /status command.
func (h *GameHandler) HandleStatus(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	snap := h.registry.GetOrCreate(chat.ID).Status()
	if !snap.Active {
		return c.Reply("No game running. Start one with /wordle or /host.")
	}
	return c.Reply(formatStatus(chat.ID, snap, h.names))
}

// HandleTime handles the /time command: how long until the sender may guess.
func (h *GameHandler) HandleTime(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	decision, err := h.registry.GetOrCreate(chat.ID).TimeUntilRetry(sender.ID)
	if err != nil {
		return c.Reply("No game running. Start one with /wordle or /host.")
	}
	if decision.Allowed {
		return c.Reply("✅ You can guess now!")
	}
	return c.Reply(fmt.Sprintf("⏰ You can guess again in %s.", formatRetry(game.RetryMinutes(decision.RetryAfter))))
}

// HandleEnd handles the /end command: concludes the game immediately.
func (h *GameHandler) HandleEnd(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	h.chatLock.Lock(chat.ID)
	defer h.chatLock.Unlock(chat.ID)

	summary := h.registry.GetOrCreate(chat.ID).End(ctx)
	if !summary.Ended {
		return c.Reply("No game running.")
	}
	return c.Send(FormatSummary(summary, h.names))
}

// HandleHelp handles the /help command.
func (h *GameHandler) HandleHelp(c tele.Context) error {
	help := strings.Join([]string{
		"🎮 Grouple Wordle",
		"",
		"/wordle — start a game with a random word",
		"/host — host a game with your own word (I'll message you privately)",
		"/guess <word> — submit a guess",
		"/status — show the current board",
		"/time — when you can guess again",
		"/end — end the current game",
		"/stats — this chat's leaderboard",
		"/globalstats — community-wide stats",
		"",
		"One guess per player every 2 hours. Everyone shares the same word!",
	}, "\n")
	return c.Reply(help)
}

// guessErrorMessage maps guess validation errors to user-facing replies.
func guessErrorMessage(err error) string {
	var lengthErr *session.LengthError
	var cooldownErr *session.CooldownError

	switch {
	case errors.Is(err, session.ErrNoActiveGame):
		return "No game running. Start one with /wordle or /host."
	case errors.As(err, &lengthErr):
		return fmt.Sprintf("❌ The word has %d letters, your guess has %d.", lengthErr.Want, lengthErr.Got)
	case errors.Is(err, session.ErrNotAlphabetic):
		return "❌ Guesses may only contain letters A-Z."
	case errors.As(err, &cooldownErr):
		return fmt.Sprintf("⏰ Easy there! You can guess again in %s.",
			formatRetry(game.RetryMinutes(cooldownErr.RetryAfter)))
	default:
		log.Error().Err(err).Msg("Unexpected guess error")
		return "❌ Something went wrong, please try again."
	}
}
