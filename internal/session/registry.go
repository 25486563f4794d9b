package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the single lookup surface mapping a chat to its Session.
// Sessions are created lazily in their empty inactive form and live for the
// bot's lifetime; there is no eviction. All dependencies are injected, so
// isolated registries can coexist in tests.
type Registry struct {
	cfg    Config
	store  Store
	ledger Ledger
	words  WordSource
	onEnd  func(Summary)
	log    zerolog.Logger

	mu       sync.RWMutex
	sessions map[int64]*Session
}

// RegistryDeps bundles the collaborators every session shares.
type RegistryDeps struct {
	Store  Store
	Ledger Ledger
	Words  WordSource
	// OnGameEnd receives the summary when a winning guess auto-ends a game.
	// Optional; nil disables announcements.
	OnGameEnd func(Summary)
	Logger    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, deps RegistryDeps) *Registry {
	return &Registry{
		cfg:      cfg,
		store:    deps.Store,
		ledger:   deps.Ledger,
		words:    deps.Words,
		onEnd:    deps.OnGameEnd,
		log:      deps.Logger,
		sessions: make(map[int64]*Session),
	}
}

// GetOrCreate returns the chat's session, creating an inactive one on first
// reference.
func (r *Registry) GetOrCreate(chatID int64) *Session {
	r.mu.RLock()
	s, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s
	}
	s = newSession(chatID, r.cfg, r.store, r.ledger, r.words, r.onEnd, r.log)
	r.sessions[chatID] = s
	return s
}

// Restore pre-populates the registry with every active game found in the
// store, so a restart reproduces guess history, verdicts and winners.
// Returns the number of sessions restored.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	states, err := r.store.LoadActiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active sessions: %w", err)
	}

	for _, state := range states {
		s := r.GetOrCreate(state.ChatID)
		s.restore(state)
		r.log.Info().
			Int64("chat_id", state.ChatID).
			Int("word_length", len(state.Word)).
			Int("guesses", state.TotalGuesses()).
			Msg("Restored active game")
	}
	return len(states), nil
}

// Len reports how many sessions exist (active or not).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
