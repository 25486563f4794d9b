package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/model"
	"github.com/schlajo/Grouple-Bot/internal/repository"
)

// recordingLedger counts ledger calls for assertions.
type recordingLedger struct {
	mu       sync.Mutex
	guesses  []string
	outcomes []model.GameOutcome
}

func (l *recordingLedger) RecordGuess(_ context.Context, chatID, userID int64, won, newGame bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tag := "guess"
	if won {
		tag = "win"
	}
	if newGame {
		tag += "+new"
	}
	l.guesses = append(l.guesses, tag)
}

func (l *recordingLedger) RecordOutcome(_ context.Context, outcome model.GameOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, outcome)
}

// fixedWords always picks the same word so verdicts are predictable.
type fixedWords struct{ word string }

func (w fixedWords) Pick() (string, error) { return w.word, nil }

type fixture struct {
	registry *Registry
	store    *repository.Memory
	ledger   *recordingLedger
	now      time.Time
	fired    []func()
}

func newFixture(t *testing.T, word string) *fixture {
	t.Helper()
	f := &fixture{
		store:  repository.NewMemory(),
		ledger: &recordingLedger{},
		now:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.registry = NewRegistry(
		Config{Cooldown: game.NewCooldownPolicy(2 * time.Hour)},
		RegistryDeps{
			Store:  f.store,
			Ledger: f.ledger,
			Words:  fixedWords{word: word},
			Logger: zerolog.Nop(),
		},
	)
	return f
}

// session returns the chat's session with a controllable clock and a timer
// that records callbacks instead of sleeping.
func (f *fixture) session(chatID int64) *Session {
	s := f.registry.GetOrCreate(chatID)
	s.now = func() time.Time { return f.now }
	s.newTimer = func(d time.Duration, fn func()) *time.Timer {
		f.fired = append(f.fired, fn)
		return time.NewTimer(time.Hour)
	}
	return s
}

// fireTimers runs pending deferred-end callbacks, simulating timer expiry.
func (f *fixture) fireTimers() {
	pending := f.fired
	f.fired = nil
	for _, fn := range pending {
		fn()
	}
}

func TestSession_StartLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)

	assert.False(t, s.Status().Active)

	started, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, s.Status().Active)
	assert.Equal(t, 5, s.Status().WordLength)

	// Starting again fails and mutates nothing.
	started, err = s.Start(ctx, "PIZZA", nil)
	assert.False(t, started)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 5, s.Status().WordLength)
}

func TestSession_StartHostedValidatesWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)
	hostID := int64(99)

	started, err := s.Start(ctx, "AB", &hostID)
	assert.False(t, started)
	assert.ErrorIs(t, err, game.ErrWordLength)
	assert.False(t, s.Status().Active)

	started, err = s.Start(ctx, "PIZZA", &hostID)
	require.NoError(t, err)
	assert.True(t, started)

	summary := s.End(ctx)
	assert.True(t, summary.Ended)
	assert.True(t, summary.IsCustomWord)
	require.NotNil(t, summary.HostID)
	assert.Equal(t, hostID, *summary.HostID)
}

func TestSession_SubmitGuessValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)

	// Inactive session rejects and mutates nothing.
	_, err := s.SubmitGuess(ctx, 10, "CRANE")
	assert.ErrorIs(t, err, ErrNoActiveGame)
	assert.Empty(t, f.ledger.guesses)

	_, err = s.Start(ctx, "", nil)
	require.NoError(t, err)

	_, err = s.SubmitGuess(ctx, 10, "CAT")
	var lengthErr *LengthError
	require.ErrorAs(t, err, &lengthErr)
	assert.Equal(t, 5, lengthErr.Want)
	assert.Equal(t, 3, lengthErr.Got)

	_, err = s.SubmitGuess(ctx, 10, "CR4NE")
	assert.ErrorIs(t, err, ErrNotAlphabetic)

	// Nothing was committed by the rejected guesses.
	assert.Zero(t, s.Status().TotalGuesses)
	assert.Empty(t, f.ledger.guesses)
}

func TestSession_Cooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)
	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)

	_, err = s.SubmitGuess(ctx, 10, "BRAIN")
	require.NoError(t, err)

	// One second before the window expires: denied.
	f.now = f.now.Add(2*time.Hour - time.Second)
	_, err = s.SubmitGuess(ctx, 10, "TRAIN")
	var cooldownErr *CooldownError
	require.ErrorAs(t, err, &cooldownErr)
	assert.Equal(t, time.Second, cooldownErr.RetryAfter)

	// TimeUntilRetry answers the same question without committing.
	decision, err := s.TimeUntilRetry(10)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, time.Second, decision.RetryAfter)

	// At exactly the window: allowed, and history is appended, not replaced.
	f.now = f.now.Add(time.Second)
	_, err = s.SubmitGuess(ctx, 10, "TRAIN")
	require.NoError(t, err)

	snap := s.Status()
	require.Len(t, snap.Entries, 1)
	require.Len(t, snap.Entries[0].Records, 2)
	assert.Equal(t, "BRAIN", snap.Entries[0].Records[0].Guess)
	assert.Equal(t, "TRAIN", snap.Entries[0].Records[1].Guess)

	// A different player is unaffected by this player's cooldown.
	_, err = s.SubmitGuess(ctx, 20, "GRAIN")
	require.NoError(t, err)
}

func TestSession_WinningGuessEndsGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)

	var announced []Summary
	s.onEnd = func(sum Summary) { announced = append(announced, sum) }

	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)

	out, err := s.SubmitGuess(ctx, 10, "crane")
	require.NoError(t, err)
	assert.True(t, out.Won)
	assert.True(t, out.FirstGuess)
	assert.True(t, out.Verdict.AllHit())

	// Still active until the deferred end fires.
	assert.True(t, s.Status().Active)
	f.fireTimers()
	assert.False(t, s.Status().Active)

	require.Len(t, announced, 1)
	assert.Equal(t, "CRANE", announced[0].Word)
	assert.Equal(t, []int64{10}, announced[0].Winners)
	assert.Equal(t, 1, announced[0].TotalGuesses)

	// Global outcome recorded exactly once.
	require.Len(t, f.ledger.outcomes, 1)
	assert.Equal(t, model.GameOutcome{Word: "CRANE", TotalGuesses: 1}, f.ledger.outcomes[0])
	assert.Equal(t, []string{"win+new"}, f.ledger.guesses)
}

func TestSession_ManualEndBeforeTimerSuppressesAnnouncement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)

	var announced int
	s.onEnd = func(Summary) { announced++ }

	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	_, err = s.SubmitGuess(ctx, 10, "CRANE")
	require.NoError(t, err)

	summary := s.End(ctx)
	assert.True(t, summary.Ended)
	require.Len(t, f.ledger.outcomes, 1)

	// The armed timer firing later must not end or announce again.
	f.fireTimers()
	assert.Zero(t, announced)
	assert.Len(t, f.ledger.outcomes, 1)
}

func TestSession_EndIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)

	assert.False(t, s.End(ctx).Ended)

	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, s.End(ctx).Ended)
	assert.False(t, s.End(ctx).Ended)

	// No winner, no global outcome.
	assert.Empty(t, f.ledger.outcomes)
}

func TestSession_StatusIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)
	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	_, err = s.SubmitGuess(ctx, 10, "BRAIN")
	require.NoError(t, err)

	first := s.Status()
	second := s.Status()
	assert.Equal(t, first, second)
}

func TestSession_ConcurrentGuessesBothRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)
	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	players := []int64{10, 20, 30, 40}
	for _, p := range players {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := s.SubmitGuess(ctx, userID, "BRAIN")
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	snap := s.Status()
	assert.Equal(t, len(players), snap.Players)
	assert.Equal(t, len(players), snap.TotalGuesses)
	assert.Len(t, f.ledger.guesses, len(players))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	f := newFixture(t, "CRANE")

	a := f.registry.GetOrCreate(1)
	b := f.registry.GetOrCreate(1)
	c := f.registry.GetOrCreate(2)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, f.registry.Len())
	assert.False(t, a.Status().Active)
}

// A restart must reproduce word, guess order, verdicts and winners from the
// store.
func TestRegistry_RestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(7)

	_, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	_, err = s.SubmitGuess(ctx, 10, "BRAIN")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = s.SubmitGuess(ctx, 20, "CRANE")
	require.NoError(t, err)
	before := s.Status()

	// Fresh registry over the same store, as after a process restart.
	restored := NewRegistry(
		Config{Cooldown: game.NewCooldownPolicy(2 * time.Hour)},
		RegistryDeps{
			Store:  f.store,
			Ledger: &recordingLedger{},
			Words:  fixedWords{word: "CRANE"},
			Logger: zerolog.Nop(),
		},
	)
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	after := restored.GetOrCreate(7).Status()
	assert.Equal(t, before, after)

	summary := restored.GetOrCreate(7).End(ctx)
	assert.Equal(t, []int64{20}, summary.Winners)
	assert.Equal(t, "CRANE", summary.Word)
}

// Store failures degrade to in-memory play: the guess stands even though
// nothing was persisted.
func TestSession_StoreFailureDoesNotRejectGuess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "CRANE")
	s := f.session(1)
	s.store = failingStore{}

	started, err := s.Start(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, started)

	out, err := s.SubmitGuess(ctx, 10, "BRAIN")
	require.NoError(t, err)
	assert.False(t, out.Won)
	assert.Equal(t, 1, s.Status().TotalGuesses)
	assert.Equal(t, []string{"guess+new"}, f.ledger.guesses)
}

type failingStore struct{}

func (failingStore) SaveSession(context.Context, *model.GameState) (int64, error) {
	return 0, assert.AnError
}
func (failingStore) AppendGuess(context.Context, int64, model.GuessRecord) error {
	return assert.AnError
}
func (failingStore) EndSession(context.Context, int64) error { return assert.AnError }
func (failingStore) LoadActiveSession(context.Context, int64) (*model.GameState, error) {
	return nil, assert.AnError
}
func (failingStore) LoadActiveSessions(context.Context) ([]*model.GameState, error) {
	return nil, assert.AnError
}
