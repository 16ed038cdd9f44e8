package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/lox/pokertables/internal/config"
	"github.com/lox/pokertables/internal/game"
)

// Memory keeps games, tables and users in process. Games are stored by
// pointer, so callers must serialize access to a game themselves. The store
// only reads a game inside SaveGame, where the caller holds it.
type Memory struct {
	mu     sync.RWMutex
	games  map[string]*game.Game
	active map[string]string // table id -> id of its running game
	tables map[string]Table
	users  map[string]User
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		games:  make(map[string]*game.Game),
		active: make(map[string]string),
		tables: make(map[string]Table),
		users:  make(map[string]User),
	}
}

// NewMemoryFromConfig seeds tables and users from configuration
func NewMemoryFromConfig(cfg *config.Config) *Memory {
	m := NewMemory()
	for _, t := range cfg.Tables {
		m.PutTable(Table{
			ID:         t.Name,
			SmallBlind: t.SmallBlind,
			BigBlind:   t.BigBlind,
			MaxSeats:   t.MaxSeats,
			BotCount:   t.BotCount,
			BotChips:   t.BotChips,
		})
	}
	for _, p := range cfg.Players {
		m.PutUser(User{ID: p.ID, Chips: p.Chips})
	}
	return m
}

// PutTable adds or replaces a table
func (m *Memory) PutTable(t Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
}

// PutUser adds or replaces a user
func (m *Memory) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) GetTable(_ context.Context, id string) (Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return Table{}, fmt.Errorf("table %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// GetUsers returns users in the order requested
func (m *Memory) GetUsers(_ context.Context, ids []string) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		u, ok := m.users[id]
		if !ok {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		users = append(users, u)
	}
	return users, nil
}

func (m *Memory) UpdateChips(_ context.Context, id string, chips int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.Chips = chips
	m.users[id] = u
	return nil
}

func (m *Memory) LoadGame(_ context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return g, nil
}

func (m *Memory) SaveGame(_ context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	switch {
	case g.Status == game.StatusActive:
		m.active[g.TableID] = g.ID
	case m.active[g.TableID] == g.ID:
		delete(m.active, g.TableID)
	}
	return nil
}

func (m *Memory) ActiveGameForTable(_ context.Context, tableID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.active[tableID]; ok {
		return id, nil
	}
	return "", fmt.Errorf("active game for table %s: %w", tableID, ErrNotFound)
}

func (m *Memory) Close() error { return nil }
