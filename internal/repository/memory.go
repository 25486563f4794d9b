package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/schlajo/Grouple-Bot/internal/model"
)

// Memory is an in-process store implementing the same contracts as the
// PostgreSQL repositories. It backs degraded mode when the database is
// unreachable at boot, and the session/service tests.
type Memory struct {
	mu sync.Mutex

	nextGameID int64
	games      map[int64]*model.GameState          // game id -> state
	created    map[int64]time.Time                 // game id -> insert time
	guesses    map[int64][]model.GuessRecord       // game id -> chronological records
	players    map[int64]map[int64]*model.PlayerStats // chat id -> user id -> stats
	global     model.GlobalStats
	pending    map[[2]int64]model.PendingHost // (user id, chat id) -> request
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextGameID: 1,
		games:      make(map[int64]*model.GameState),
		created:    make(map[int64]time.Time),
		guesses:    make(map[int64][]model.GuessRecord),
		players:    make(map[int64]map[int64]*model.PlayerStats),
		global:     model.GlobalStats{ByLength: make(map[int]model.LengthStats)},
		pending:    make(map[[2]int64]model.PendingHost),
	}
}

// SaveSession upserts the active game for a chat.
func (m *Memory) SaveSession(_ context.Context, state *model.GameState) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.games {
		if existing.ChatID == state.ChatID && existing.IsActive {
			clone := cloneGameRow(state)
			clone.ID = id
			m.games[id] = clone
			return id, nil
		}
	}

	id := m.nextGameID
	m.nextGameID++
	clone := cloneGameRow(state)
	clone.ID = id
	m.games[id] = clone
	m.created[id] = time.Now()
	return id, nil
}

// AppendGuess adds a record, idempotent on (user, timestamp).
func (m *Memory) AppendGuess(_ context.Context, gameID int64, rec model.GuessRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.guesses[gameID] {
		if existing.UserID == rec.UserID && existing.CreatedAt.Equal(rec.CreatedAt) {
			return nil
		}
	}
	m.guesses[gameID] = append(m.guesses[gameID], rec)
	return nil
}

// EndSession marks a game inactive.
func (m *Memory) EndSession(_ context.Context, gameID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.games[gameID]; ok {
		g.IsActive = false
	}
	return nil
}

// LoadActiveSession returns a chat's active game or nil.
func (m *Memory) LoadActiveSession(_ context.Context, chatID int64) (*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, g := range m.games {
		if g.ChatID == chatID && g.IsActive {
			return m.hydrateLocked(id), nil
		}
	}
	return nil, nil
}

// LoadActiveSessions returns every active game.
func (m *Memory) LoadActiveSessions(_ context.Context) ([]*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var states []*model.GameState
	for id, g := range m.games {
		if g.IsActive {
			states = append(states, m.hydrateLocked(id))
		}
	}
	return states, nil
}

// PurgeGames drops inactive games older than the cutoff.
func (m *Memory) PurgeGames(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for id, g := range m.games {
		if g.IsActive || m.created[id].After(cutoff) {
			continue
		}
		delete(m.games, id)
		delete(m.created, id)
		delete(m.guesses, id)
		purged++
	}
	return purged, nil
}

// IncrementPlayer counts one committed guess.
func (m *Memory) IncrementPlayer(_ context.Context, chatID, userID int64, won, newGame bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat := m.players[chatID]
	if chat == nil {
		chat = make(map[int64]*model.PlayerStats)
		m.players[chatID] = chat
	}
	s := chat[userID]
	if s == nil {
		s = &model.PlayerStats{ChatID: chatID, UserID: userID}
		chat[userID] = s
	}
	s.TotalGuesses++
	if newGame {
		s.TotalGames++
	}
	if won {
		s.Wins++
	}
	s.UpdatedAt = time.Now()
	return nil
}

// LoadPlayers returns a chat's player stats, most wins first.
func (m *Memory) LoadPlayers(_ context.Context, chatID int64) ([]model.PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats []model.PlayerStats
	for _, s := range m.players[chatID] {
		stats = append(stats, *s)
	}
	sortPlayerStats(stats)
	return stats, nil
}

// IncrementGlobal counts one solved game.
func (m *Memory) IncrementGlobal(_ context.Context, outcome model.GameOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.global.GamesSolved++
	m.global.TotalGuesses += outcome.TotalGuesses
	if outcome.IsCustomWord {
		m.global.CustomGamesSolved++
		m.global.CustomGuesses += outcome.TotalGuesses
	} else {
		m.global.GeneratedGamesSolved++
		m.global.GeneratedGuesses += outcome.TotalGuesses
	}
	bucket := m.global.ByLength[len(outcome.Word)]
	bucket.Solved++
	bucket.Guesses += outcome.TotalGuesses
	m.global.ByLength[len(outcome.Word)] = bucket
	return nil
}

// LoadGlobal returns a copy of the aggregate counters.
func (m *Memory) LoadGlobal(_ context.Context) (*model.GlobalStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.global
	stats.ByLength = make(map[int]model.LengthStats, len(m.global.ByLength))
	for k, v := range m.global.ByLength {
		stats.ByLength[k] = v
	}
	return &stats, nil
}

// Save upserts a pending host request.
func (m *Memory) Save(_ context.Context, userID, chatID, channelID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[[2]int64{userID, chatID}] = model.PendingHost{
		UserID:    userID,
		ChatID:    chatID,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	}
	return nil
}

// GetByUser returns a user's most recent pending request.
func (m *Memory) GetByUser(_ context.Context, userID int64) (*model.PendingHost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *model.PendingHost
	for key, p := range m.pending {
		if key[0] != userID {
			continue
		}
		p := p
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = &p
		}
	}
	if latest == nil {
		return nil, ErrPendingHostNotFound
	}
	return latest, nil
}

// LoadByChat returns a chat's pending requests keyed by user.
func (m *Memory) LoadByChat(_ context.Context, chatID int64) (map[int64]model.PendingHost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make(map[int64]model.PendingHost)
	for key, p := range m.pending {
		if key[1] == chatID {
			pending[key[0]] = p
		}
	}
	return pending, nil
}

// Remove deletes a pending request.
func (m *Memory) Remove(_ context.Context, userID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, [2]int64{userID, chatID})
	return nil
}

// Purge drops pending requests older than the cutoff.
func (m *Memory) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for key, p := range m.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(m.pending, key)
			purged++
		}
	}
	return purged, nil
}

// hydrateLocked rebuilds the full GameState including guess grouping,
// player order and winners, mirroring the SQL loader.
func (m *Memory) hydrateLocked(gameID int64) *model.GameState {
	g := m.games[gameID]
	state := cloneGameRow(g)
	state.ID = gameID

	for _, rec := range m.guesses[gameID] {
		if _, seen := state.Guesses[rec.UserID]; !seen {
			state.PlayerOrder = append(state.PlayerOrder, rec.UserID)
		}
		state.Guesses[rec.UserID] = append(state.Guesses[rec.UserID], rec)
		if rec.IsWinner {
			state.Winners = append(state.Winners, rec.UserID)
		}
	}
	return state
}

// cloneGameRow copies the scalar game fields, dropping guess data; guesses
// live in their own log keyed by game id.
func cloneGameRow(g *model.GameState) *model.GameState {
	clone := &model.GameState{
		ChatID:       g.ChatID,
		Word:         g.Word,
		IsActive:     g.IsActive,
		IsCustomWord: g.IsCustomWord,
		CreatedDate:  g.CreatedDate,
		Guesses:      make(map[int64][]model.GuessRecord),
	}
	if g.HostID != nil {
		id := *g.HostID
		clone.HostID = &id
	}
	if g.LastGuessAt != nil {
		t := *g.LastGuessAt
		clone.LastGuessAt = &t
	}
	return clone
}

func sortPlayerStats(stats []model.PlayerStats) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Wins != stats[j].Wins {
			return stats[i].Wins > stats[j].Wins
		}
		return stats[i].TotalGuesses < stats[j].TotalGuesses
	})
}
