package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertables/internal/config"
	"github.com/lox/pokertables/internal/game"
)

func newGame(t *testing.T, id, tableID string) *game.Game {
	t.Helper()
	g, err := game.NewGame(
		game.Config{ID: id, TableID: tableID, SmallBlind: 10, BigBlind: 20, Seed: 7},
		[]game.Player{{ID: "alice", Chips: 1000}, {ID: "bob", Chips: 1000, Bot: true}},
	)
	require.NoError(t, err)
	return g
}

func toJSON(t *testing.T, g *game.Game) string {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return string(data)
}

// testGameStore runs the behaviour every GameStore must share
func testGameStore(t *testing.T, s GameStore) {
	ctx := context.Background()

	_, err := s.LoadGame(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.ActiveGameForTable(ctx, "main")
	require.ErrorIs(t, err, ErrNotFound)

	g := newGame(t, "g1", "main")
	require.NoError(t, s.SaveGame(ctx, g))

	loaded, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.JSONEq(t, toJSON(t, g), toJSON(t, loaded))

	id, err := s.ActiveGameForTable(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "g1", id)

	// a loaded game keeps playing from the same deck
	_, err = loaded.Apply(loaded.CurrentPlayerID(), game.ActionCall, 0)
	require.NoError(t, err)
	require.NoError(t, s.SaveGame(ctx, loaded))

	again, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.JSONEq(t, toJSON(t, loaded), toJSON(t, again))

	_, err = again.Leave("alice")
	require.NoError(t, err)
	require.Equal(t, game.StatusFinished, again.Status)
	require.NoError(t, s.SaveGame(ctx, again))

	_, err = s.ActiveGameForTable(ctx, "main")
	assert.ErrorIs(t, err, ErrNotFound, "finished games are not active")

	// finishing one game leaves another game's pointer alone
	require.NoError(t, s.SaveGame(ctx, newGame(t, "g2", "main")))
	g3 := newGame(t, "g3", "main")
	_, err = g3.Leave("bob")
	require.NoError(t, err)
	require.NoError(t, s.SaveGame(ctx, g3))

	id, err = s.ActiveGameForTable(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "g2", id)
}

func TestMemoryGameStore(t *testing.T) {
	t.Parallel()
	testGameStore(t, NewMemory())
}

// The active index follows the last saved status, not the live game
func TestMemoryActiveIndexUsesSavedStatus(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	g := newGame(t, "g1", "main")
	require.NoError(t, m.SaveGame(ctx, g))

	_, err := g.Leave("alice")
	require.NoError(t, err)
	require.Equal(t, game.StatusFinished, g.Status)

	id, err := m.ActiveGameForTable(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "g1", id)

	require.NoError(t, m.SaveGame(ctx, g))
	_, err = m.ActiveGameForTable(ctx, "main")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisGameStore(t *testing.T) {
	t.Parallel()

	r, _ := newTestRedis(t)
	testGameStore(t, r)
}

func TestRedisKeys(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t)
	ctx := context.Background()
	g := newGame(t, "g1", "main")
	require.NoError(t, r.SaveGame(ctx, g))

	assert.True(t, mr.Exists("game:g1"))
	active, err := mr.Get("table:main:active")
	require.NoError(t, err)
	assert.Equal(t, "g1", active)

	_, err = g.Leave("alice")
	require.NoError(t, err)
	require.NoError(t, r.SaveGame(ctx, g))
	assert.False(t, mr.Exists("table:main:active"), "pointer removed when the game ends")
	assert.True(t, mr.Exists("game:g1"), "finished games stay loadable")

	require.NoError(t, mr.Set("game:broken", "{not json"))
	_, err = r.LoadGame(ctx, "broken")
	assert.ErrorContains(t, err, "decode game broken")
}

func TestSQLiteGameStore(t *testing.T) {
	t.Parallel()

	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	testGameStore(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "holdem.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	g := newGame(t, "g1", "main")
	require.NoError(t, s.SaveGame(context.Background(), g))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	loaded, err := s.LoadGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.JSONEq(t, toJSON(t, g), toJSON(t, loaded))
}

func TestNewSQLiteRejectsEmptyPath(t *testing.T) {
	t.Parallel()
	_, err := NewSQLite("  ")
	assert.Error(t, err)
}

func TestMemoryFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Players = []config.PlayerConfig{{ID: "alice", Chips: 500}, {ID: "bob", Chips: 700}}
	m := NewMemoryFromConfig(cfg)
	ctx := context.Background()

	table, err := m.GetTable(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, Table{ID: "main", SmallBlind: 10, BigBlind: 20, MaxSeats: 6, BotCount: 2, BotChips: 1000}, table)

	_, err = m.GetTable(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := m.GetUsers(ctx, []string{"bob", "alice"})
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: "bob", Chips: 700}, {ID: "alice", Chips: 500}}, users)

	_, err = m.GetUsers(ctx, []string{"alice", "zed"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.UpdateChips(ctx, "alice", 1500))
	users, err = m.GetUsers(ctx, []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 1500, users[0].Chips)
	assert.ErrorIs(t, m.UpdateChips(ctx, "zed", 1), ErrNotFound)
}

func TestOpenGameStore(t *testing.T) {
	t.Parallel()

	s, err := OpenGameStore(context.Background(), &config.StoreSettings{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = OpenGameStore(context.Background(), &config.StoreSettings{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "g.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = OpenGameStore(context.Background(), &config.StoreSettings{Driver: config.DriverRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err = OpenGameStore(ctx, &config.StoreSettings{Driver: config.DriverRedis, RedisAddr: mr.Addr()})
	assert.Error(t, err, "unreachable redis")
	assert.Nil(t, s)

	_, err = OpenGameStore(context.Background(), &config.StoreSettings{Driver: "mongo"})
	assert.Error(t, err)
}
