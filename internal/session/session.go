// Package session owns one chat's shared Wordle game: lifecycle transitions,
// guess acceptance, and the consistency rules between in-memory state and the
// durable store. The Registry is the single lookup surface for sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/model"
)

// DefaultAnnounceDelay is how long a winning guess stays on screen before the
// game auto-ends with its summary. Presentation nicety, not correctness.
const DefaultAnnounceDelay = 2 * time.Second

// Config holds the tunable rules for all sessions.
type Config struct {
	Cooldown      game.CooldownPolicy
	AnnounceDelay time.Duration
}

// GuessOutcome is the result of an accepted guess.
type GuessOutcome struct {
	Verdict game.Verdict
	Won     bool
	// FirstGuess is true for the player's first guess in this game instance.
	FirstGuess bool
}

// PlayerGuesses pairs a player with their chronological guesses.
type PlayerGuesses struct {
	UserID  int64
	Records []model.GuessRecord
}

// Snapshot is a read-only view of the current game, safe to take anytime.
type Snapshot struct {
	Active       bool
	WordLength   int
	Players      int
	TotalGuesses int
	Entries      []PlayerGuesses
}

// Summary describes a concluded game for the end-of-game announcement.
// Ended is false when End was called on an already-inactive session.
type Summary struct {
	Ended        bool
	ChatID       int64
	Word         string
	IsCustomWord bool
	HostID       *int64
	Winners      []int64
	Entries      []PlayerGuesses
	TotalGuesses int
}

// Session is one chat's game. All exported methods are safe for concurrent
// use; a single mutex serializes mutations so commands within one chat apply
// in order while different chats proceed independently.
type Session struct {
	chatID int64
	cfg    Config
	store  Store
	ledger Ledger
	words  WordSource
	log    zerolog.Logger

	// onEnd receives the summary when a winning guess auto-ends the game.
	onEnd func(Summary)
	// newTimer is the deferred-end seam; tests swap it to fire immediately.
	newTimer func(d time.Duration, fn func()) *time.Timer
	now      func() time.Time

	mu          sync.Mutex
	gameID      int64
	word        string
	active      bool
	hosted      bool
	hostID      *int64
	createdDate string
	lastGuessAt time.Time
	guesses     map[int64][]model.GuessRecord
	order       []int64
	winners     map[int64]struct{}
	endTimer    *time.Timer
}

func newSession(chatID int64, cfg Config, store Store, ledger Ledger, words WordSource, onEnd func(Summary), logger zerolog.Logger) *Session {
	if cfg.AnnounceDelay <= 0 {
		cfg.AnnounceDelay = DefaultAnnounceDelay
	}
	s := &Session{
		chatID:   chatID,
		cfg:      cfg,
		store:    store,
		ledger:   ledger,
		words:    words,
		log:      logger.With().Int64("chat_id", chatID).Logger(),
		onEnd:    onEnd,
		newTimer: time.AfterFunc,
		now:      time.Now,
	}
	s.resetLocked()
	return s
}

// ChatID returns the chat this session belongs to.
func (s *Session) ChatID() int64 {
	return s.chatID
}

// Start begins a new game. customWord is empty for an auto-generated game;
// otherwise it must be a normalized 3-10 letter word and hostID identifies
// the host. Returns false with ErrAlreadyActive when a game is running, in
// which case nothing is mutated.
func (s *Session) Start(ctx context.Context, customWord string, hostID *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return false, ErrAlreadyActive
	}

	word := customWord
	if word == "" {
		picked, err := s.words.Pick()
		if err != nil {
			return false, err
		}
		word = picked
	} else if err := game.ValidateWord(word); err != nil {
		return false, err
	}

	s.resetLocked()
	s.word = word
	s.active = true
	s.hosted = customWord != ""
	s.hostID = hostID
	s.createdDate = s.now().Format("2006-01-02")

	s.saveLocked(ctx)

	s.log.Info().
		Int("word_length", len(word)).
		Bool("hosted", s.hosted).
		Msg("Game started")
	return true, nil
}

// SubmitGuess validates and applies one player's guess. Validation order:
// active game, length, alphabet, then the player's personal cooldown. An
// accepted guess is committed to memory, counted in the ledger, and appended
// to the store; a winning guess additionally schedules the deferred auto-end.
func (s *Session) SubmitGuess(ctx context.Context, userID int64, rawGuess string) (*GuessOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrNoActiveGame
	}

	guess := game.Normalize(rawGuess)
	if len(guess) != len(s.word) {
		return nil, &LengthError{Want: len(s.word), Got: len(guess)}
	}
	if !game.IsAlpha(guess) {
		return nil, ErrNotAlphabetic
	}

	now := s.now()
	history := s.guesses[userID]
	var last time.Time
	if len(history) > 0 {
		last = history[len(history)-1].CreatedAt
	}
	if decision := s.cfg.Cooldown.Evaluate(last, now); !decision.Allowed {
		return nil, &CooldownError{RetryAfter: decision.RetryAfter}
	}

	verdict := game.Score(guess, s.word)
	won := verdict.AllHit()
	first := len(history) == 0

	rec := model.GuessRecord{
		UserID:    userID,
		Guess:     guess,
		Verdict:   verdict,
		IsWinner:  won,
		CreatedAt: now,
	}
	if first {
		s.order = append(s.order, userID)
	}
	s.guesses[userID] = append(history, rec)
	s.lastGuessAt = now
	if won {
		s.winners[userID] = struct{}{}
	}

	// Stats reflect only committed guesses, so the ledger runs after the
	// append above, never before.
	s.ledger.RecordGuess(ctx, s.chatID, userID, won, first)

	s.persistGuessLocked(ctx, rec)

	if won {
		s.scheduleEndLocked()
	}

	return &GuessOutcome{Verdict: verdict, Won: won, FirstGuess: first}, nil
}

// End concludes the game and resets the session to its empty inactive form.
// Idempotent: ending an inactive session returns a Summary with Ended false
// and touches nothing. Games with at least one winner are forwarded to the
// ledger's global counters exactly once.
func (s *Session) End(ctx context.Context) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Summary{ChatID: s.chatID}
	}

	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}

	summary := Summary{
		Ended:        true,
		ChatID:       s.chatID,
		Word:         s.word,
		IsCustomWord: s.hosted,
		HostID:       s.hostID,
		Winners:      s.winnersLocked(),
		Entries:      s.entriesLocked(),
	}
	for _, e := range summary.Entries {
		summary.TotalGuesses += len(e.Records)
	}

	if len(summary.Winners) > 0 {
		s.ledger.RecordOutcome(ctx, model.GameOutcome{
			Word:         s.word,
			IsCustomWord: s.hosted,
			TotalGuesses: summary.TotalGuesses,
		})
	}

	if s.gameID != 0 {
		if err := s.store.EndSession(ctx, s.gameID); err != nil {
			s.log.Error().Err(err).Int64("game_id", s.gameID).Msg("Failed to end game in store")
		}
	}

	s.resetLocked()
	s.log.Info().Str("word", summary.Word).Int("winners", len(summary.Winners)).Msg("Game ended")
	return summary
}

// Status returns a read-only snapshot. When no game is active it reports
// Active false with zeroed counters.
func (s *Session) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Snapshot{}
	}

	snap := Snapshot{
		Active:     true,
		WordLength: len(s.word),
		Players:    len(s.order),
		Entries:    s.entriesLocked(),
	}
	for _, e := range snap.Entries {
		snap.TotalGuesses += len(e.Records)
	}
	return snap
}

// TimeUntilRetry answers the "when can I guess again" query without
// committing anything.
func (s *Session) TimeUntilRetry(userID int64) (game.CooldownDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return game.CooldownDecision{}, ErrNoActiveGame
	}

	var last time.Time
	if history := s.guesses[userID]; len(history) > 0 {
		last = history[len(history)-1].CreatedAt
	}
	return s.cfg.Cooldown.Evaluate(last, s.now()), nil
}

// scheduleEndLocked arms the deferred auto-end after a winning guess. The
// timer handle is retained; End stops it, so a manual end never races a
// duplicate announcement.
func (s *Session) scheduleEndLocked() {
	s.endTimer = s.newTimer(s.cfg.AnnounceDelay, func() {
		summary := s.End(context.Background())
		if summary.Ended && s.onEnd != nil {
			s.onEnd(summary)
		}
	})
}

// persistGuessLocked appends the guess durably, creating the game row first
// if the initial save failed. Store errors degrade to in-memory play.
func (s *Session) persistGuessLocked(ctx context.Context, rec model.GuessRecord) {
	if s.gameID == 0 {
		s.saveLocked(ctx)
	}
	if s.gameID == 0 {
		return
	}
	if err := s.store.AppendGuess(ctx, s.gameID, rec); err != nil {
		s.log.Error().Err(err).Int64("user_id", rec.UserID).Msg("Failed to persist guess")
	}
}

// saveLocked upserts the session; on failure the game continues in memory.
func (s *Session) saveLocked(ctx context.Context) {
	id, err := s.store.SaveSession(ctx, s.stateLocked())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to save game state")
		return
	}
	s.gameID = id
}

// stateLocked builds the persisted form of the current game.
func (s *Session) stateLocked() *model.GameState {
	state := &model.GameState{
		ID:           s.gameID,
		ChatID:       s.chatID,
		Word:         s.word,
		IsActive:     s.active,
		IsCustomWord: s.hosted,
		HostID:       s.hostID,
		CreatedDate:  s.createdDate,
		Guesses:      make(map[int64][]model.GuessRecord, len(s.guesses)),
		PlayerOrder:  append([]int64(nil), s.order...),
		Winners:      s.winnersLocked(),
	}
	if !s.lastGuessAt.IsZero() {
		t := s.lastGuessAt
		state.LastGuessAt = &t
	}
	for userID, records := range s.guesses {
		state.Guesses[userID] = append([]model.GuessRecord(nil), records...)
	}
	return state
}

// restore hydrates the session from a persisted game. Only the registry
// calls this, before the session is handed out.
func (s *Session) restore(state *model.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.gameID = state.ID
	s.word = state.Word
	s.active = state.IsActive
	s.hosted = state.IsCustomWord
	s.hostID = state.HostID
	s.createdDate = state.CreatedDate
	if state.LastGuessAt != nil {
		s.lastGuessAt = *state.LastGuessAt
	}
	for userID, records := range state.Guesses {
		s.guesses[userID] = append([]model.GuessRecord(nil), records...)
	}
	s.order = append([]int64(nil), state.PlayerOrder...)
	for _, userID := range state.Winners {
		s.winners[userID] = struct{}{}
	}
}

func (s *Session) resetLocked() {
	s.gameID = 0
	s.word = ""
	s.active = false
	s.hosted = false
	s.hostID = nil
	s.createdDate = ""
	s.lastGuessAt = time.Time{}
	s.guesses = make(map[int64][]model.GuessRecord)
	s.order = nil
	s.winners = make(map[int64]struct{})
	s.endTimer = nil
}

func (s *Session) winnersLocked() []int64 {
	winners := make([]int64, 0, len(s.winners))
	for _, userID := range s.order {
		if _, ok := s.winners[userID]; ok {
			winners = append(winners, userID)
		}
	}
	return winners
}

func (s *Session) entriesLocked() []PlayerGuesses {
	entries := make([]PlayerGuesses, 0, len(s.order))
	for _, userID := range s.order {
		records := s.guesses[userID]
		entries = append(entries, PlayerGuesses{
			UserID:  userID,
			Records: append([]model.GuessRecord(nil), records...),
		})
	}
	return entries
}
