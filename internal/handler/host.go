package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/service"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// HostHandler handles the two-step custom-word hosting flow.
type HostHandler struct {
	host  *service.HostService
	names NameResolver
}

// NewHostHandler creates a new HostHandler.
func NewHostHandler(host *service.HostService, names NameResolver) *HostHandler {
	return &HostHandler{host: host, names: names}
}

// HandleHost handles the /host command in a group chat. The bot records the
// request and asks for the word in a private message, so the chat never sees
// it. If the private message cannot be delivered the request is withdrawn.
func (h *HostHandler) HandleHost(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	if chat.Type == tele.ChatPrivate {
		return c.Reply("Use /host in the group chat you want to host a game in.")
	}

	if err := h.host.Request(ctx, sender.ID, chat.ID, chat.ID); err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return c.Reply("⚠️ A game is already in progress. Wait for it to finish before hosting.")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to store host request")
		return c.Reply("❌ Could not start hosting, please try again later.")
	}

	prompt := fmt.Sprintf(
		"🎩 You're hosting a game in %q!\nSend me your word (3-10 letters, A-Z only).",
		chat.Title,
	)
	if _, err := c.Bot().Send(sender, prompt); err != nil {
		// Private delivery fails until the user has opened a chat with the bot.
		if cancelErr := h.host.Cancel(ctx, sender.ID, chat.ID); cancelErr != nil {
			log.Error().Err(cancelErr).Int64("user_id", sender.ID).Msg("Failed to cancel host request")
		}
		return c.Reply(fmt.Sprintf(
			"❌ I couldn't message you privately, @%s. Open a chat with me first, then try /host again.",
			sender.Username,
		))
	}

	return c.Reply("📬 Check your private messages to submit your word!")
}

// HandleHostWord handles a private text message as a hosted-word submission.
// Returns false when the sender has no pending host request, so the caller
// can fall through to other private-message handling.
func (h *HostHandler) HandleHostWord(c tele.Context) (bool, error) {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return false, nil
	}

	hosted, err := h.host.SubmitWord(ctx, sender.ID, c.Text())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPendingRequest):
			return false, nil
		case errors.Is(err, game.ErrWordLength), errors.Is(err, game.ErrWordCharset):
			// The request stays pending; the host may try another word.
			return true, c.Reply("❌ The word must be 3-10 letters, A-Z only. Try another word.")
		case errors.Is(err, session.ErrAlreadyActive):
			return true, c.Reply("⚠️ A game started in that chat in the meantime. Your request was cancelled.")
		default:
			log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to start hosted game")
			return true, c.Reply("❌ Could not start the game, please try again later.")
		}
	}

	announce := fmt.Sprintf(
		"🎩 %s is hosting a Wordle! The word has %d letters.\nGuess with /guess <word>.",
		h.names.DisplayName(hosted.ChatID, hosted.HostID), hosted.WordLength,
	)
	if _, err := c.Bot().Send(&tele.Chat{ID: hosted.ChannelID}, announce); err != nil {
		log.Error().Err(err).Int64("chat_id", hosted.ChannelID).Msg("Failed to announce hosted game")
	}

	return true, c.Reply(fmt.Sprintf("✅ Game on! Your %d-letter word is live. No guessing your own word! 😉", hosted.WordLength))
}
