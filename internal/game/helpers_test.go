package game

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/pokertables/internal/deck"
)

var testPlayerIDs = []string{"alice", "bob", "carol", "dave", "erin", "frank"}

// testGameOption configures test game creation
type testGameOption func(*testGameBuilder)

type testGameBuilder struct {
	cfg   Config
	chips []int
	opts  []Option
}

func withChips(chips ...int) testGameOption {
	return func(b *testGameBuilder) { b.chips = chips }
}

func withDealer(idx int) testGameOption {
	return func(b *testGameBuilder) { b.cfg.DealerIndex = idx }
}

func withSeed(seed int64) testGameOption {
	return func(b *testGameBuilder) { b.cfg.Seed = seed }
}

// withStackedHand deals the first hand from cards in the given order; later
// hands use seeded shuffles.
func withStackedHand(order string) testGameOption {
	return func(b *testGameBuilder) {
		b.opts = append(b.opts, WithDeckFunc(func(hand int) *deck.Deck {
			if hand == 1 {
				return stackedDeck(order)
			}
			return deck.NewShuffledDeck(deck.NewRNG(int64(hand)))
		}))
	}
}

func withDeckFunc(fn DeckFunc) testGameOption {
	return func(b *testGameBuilder) { b.opts = append(b.opts, WithDeckFunc(fn)) }
}

// newTestGame creates a game with 10/20 blinds and 1000 chips per seat
func newTestGame(t *testing.T, opts ...testGameOption) *Game {
	t.Helper()
	b := &testGameBuilder{
		cfg:   Config{ID: "game-1", TableID: "table-1", SmallBlind: 10, BigBlind: 20, Seed: 42},
		chips: []int{1000, 1000},
	}
	for _, opt := range opts {
		opt(b)
	}

	players := make([]Player, len(b.chips))
	for i, c := range b.chips {
		players[i] = Player{ID: testPlayerIDs[i], Chips: c}
	}
	g, err := NewGame(b.cfg, players, b.opts...)
	require.NoError(t, err)
	return g
}

// stackedDeck returns a deck that deals order first, then the rest of an
// ordered deck.
func stackedDeck(order string) *deck.Deck {
	first := deck.MustParseCards(order)
	dealOrder := slices.Clone(first)
	for _, c := range deck.NewDeck().Cards() {
		if !slices.Contains(first, c) {
			dealOrder = append(dealOrder, c)
		}
	}
	slices.Reverse(dealOrder)
	return deck.NewDeckFromCards(dealOrder)
}

func mustApply(t *testing.T, g *Game, playerID string, action ActionType, amount int) Outcome {
	t.Helper()
	outcome, err := g.Apply(playerID, action, amount)
	require.NoError(t, err, "%s %s %d", playerID, action, amount)
	return outcome
}

func snapshot(t *testing.T, g *Game) string {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return string(data)
}

func seatsWithCommitted(committed ...int) []*Seat {
	seats := make([]*Seat, len(committed))
	for i, c := range committed {
		seats[i] = &Seat{PlayerID: testPlayerIDs[i], Committed: c}
	}
	return seats
}
