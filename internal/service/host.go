package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/model"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// ErrNoPendingRequest is returned when a private word submission arrives
// from a user with no open host request.
var ErrNoPendingRequest = errors.New("no pending host request")

// PendingHostStore persists host requests between the /host command and the
// private-message word reply.
type PendingHostStore interface {
	Save(ctx context.Context, userID, chatID, channelID int64) error
	GetByUser(ctx context.Context, userID int64) (*model.PendingHost, error)
	Remove(ctx context.Context, userID, chatID int64) error
}

// HostedGame describes a successfully started hosted game so the caller can
// announce it in the originating channel.
type HostedGame struct {
	ChatID     int64
	ChannelID  int64
	HostID     int64
	WordLength int
}

// HostService runs the two-step custom-word flow: a public request followed
// by a private word submission.
type HostService struct {
	pending  PendingHostStore
	registry *session.Registry
	log      zerolog.Logger
}

// NewHostService creates a new HostService instance.
func NewHostService(pending PendingHostStore, registry *session.Registry, logger zerolog.Logger) *HostService {
	return &HostService{pending: pending, registry: registry, log: logger}
}

// Request opens a host request for a user. Rejected with ErrAlreadyActive
// while the chat has a running game.
func (s *HostService) Request(ctx context.Context, userID, chatID, channelID int64) error {
	if s.registry.GetOrCreate(chatID).Status().Active {
		return session.ErrAlreadyActive
	}

	if err := s.pending.Save(ctx, userID, chatID, channelID); err != nil {
		return fmt.Errorf("failed to store host request: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Int64("chat_id", chatID).Msg("Host request stored")
	return nil
}

// Cancel withdraws a user's request for a chat, e.g. when the private
// message could not be delivered.
func (s *HostService) Cancel(ctx context.Context, userID, chatID int64) error {
	return s.pending.Remove(ctx, userID, chatID)
}

// SubmitWord resolves a private word reply against the user's pending
// request. Validation failures (ErrWordLength, ErrWordCharset) leave the
// request pending so the user may retry; a game already running consumes the
// request and returns ErrAlreadyActive.
func (s *HostService) SubmitWord(ctx context.Context, userID int64, rawWord string) (*HostedGame, error) {
	pending, err := s.pending.GetByUser(ctx, userID)
	if err != nil {
		return nil, ErrNoPendingRequest
	}

	word := game.Normalize(rawWord)
	if err := game.ValidateWord(word); err != nil {
		return nil, err
	}

	sess := s.registry.GetOrCreate(pending.ChatID)
	started, err := sess.Start(ctx, word, &userID)
	if !started {
		// The request cannot succeed later either; consume it.
		if removeErr := s.pending.Remove(ctx, userID, pending.ChatID); removeErr != nil {
			s.log.Error().Err(removeErr).Int64("user_id", userID).Msg("Failed to remove pending host")
		}
		if err == nil {
			err = session.ErrAlreadyActive
		}
		return nil, err
	}

	if err := s.pending.Remove(ctx, userID, pending.ChatID); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to remove pending host")
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("chat_id", pending.ChatID).
		Int("word_length", len(word)).
		Msg("Hosted game started")

	return &HostedGame{
		ChatID:     pending.ChatID,
		ChannelID:  pending.ChannelID,
		HostID:     userID,
		WordLength: len(word),
	}, nil
}
