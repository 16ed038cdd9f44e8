package server

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertables/internal/game"
	"github.com/lox/pokertables/internal/store"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// recorder counts notifications
type recorder struct {
	mu      sync.Mutex
	updates int
	last    game.Status
}

func (r *recorder) GameUpdated(g *game.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.last = g.Status
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

type fixture struct {
	svc      *Service
	mem      *store.Memory
	clock    *quartz.Mock
	recorder *recorder
}

// newFixture builds a service over an in-memory store with a 10/20 table
// "main" carrying the given number of bots, and users alice, bob and carol
// with 1000 chips each.
func newFixture(t *testing.T, bots int) *fixture {
	t.Helper()

	mem := store.NewMemory()
	mem.PutTable(store.Table{ID: "main", SmallBlind: 10, BigBlind: 20, MaxSeats: 6, BotCount: bots, BotChips: 1000})
	for _, id := range []string{"alice", "bob", "carol"} {
		mem.PutUser(store.User{ID: id, Chips: 1000})
	}

	clock := quartz.NewMock(t)
	rec := &recorder{}
	svc := NewService(mem, mem, mem, testLogger(),
		WithClock(clock),
		WithBotDelay(time.Second),
		WithSeed(5),
		WithNotifier(rec),
	)
	t.Cleanup(svc.Close)

	return &fixture{svc: svc, mem: mem, clock: clock, recorder: rec}
}

func (f *fixture) start(t *testing.T, players ...string) GameState {
	t.Helper()
	state, err := f.svc.StartGame(context.Background(), "main", players)
	require.NoError(t, err)
	return state
}

func (f *fixture) act(t *testing.T, gameID, player, action string, amount int) ActionResult {
	t.Helper()
	result, err := f.svc.SubmitAction(context.Background(), gameID, player, action, amount)
	require.NoError(t, err)
	return result
}

func (f *fixture) state(t *testing.T, gameID, viewer string) GameState {
	t.Helper()
	state, err := f.svc.GetState(context.Background(), gameID, viewer)
	require.NoError(t, err)
	return state
}

// runBots fires pending bot turns until a human is due or the game ends
func (f *fixture) runBots(t *testing.T, gameID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; f.svc.BotTurnPending(gameID); i++ {
		require.Less(t, i, 500, "bots never handed the turn back")
		_, w := f.clock.AdvanceNext()
		w.MustWait(ctx)
	}
}
