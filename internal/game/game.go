package game

import (
	"fmt"

	"github.com/lox/pokertables/internal/deck"
)

// Phase is the betting street of the current hand
type Phase string

const (
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Status is the lifecycle state of a game
type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Outcome describes what an accepted action did to the game
type Outcome int

const (
	// OutcomeContinue means the same betting round goes on with the next actor.
	OutcomeContinue Outcome = iota
	// OutcomeRoundAdvanced means a new street was dealt.
	OutcomeRoundAdvanced
	// OutcomeHandOver means the hand was resolved; see Game.LastHand.
	OutcomeHandOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeRoundAdvanced:
		return "round_advanced"
	case OutcomeHandOver:
		return "hand_over"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config holds the fixed parameters of a game
type Config struct {
	ID          string
	TableID     string
	SmallBlind  int
	BigBlind    int
	Seed        int64
	DealerIndex int
}

// DeckFunc supplies the deck for a hand. The default shuffles a fresh deck
// seeded from the game seed and the hand number.
type DeckFunc func(handNumber int) *deck.Deck

// Option configures optional game behaviour
type Option func(*Game)

// WithDeckFunc overrides how decks are produced, e.g. to stack them in tests
func WithDeckFunc(fn DeckFunc) Option {
	return func(g *Game) {
		g.deckFunc = fn
	}
}

// Game is the authoritative record of a table's hands
type Game struct {
	ID         string `json:"id"`
	TableID    string `json:"table_id"`
	Status     Status `json:"status"`
	Phase      Phase  `json:"phase"`
	HandNumber int    `json:"hand_number"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	Seed       int64  `json:"seed"`

	Seats     []*Seat     `json:"seats"`
	Community []deck.Card `json:"community"`
	Deck      *deck.Deck  `json:"deck"`

	Pot                int `json:"pot"`
	CurrentBet         int `json:"current_bet"`
	CurrentPlayerIndex int `json:"current_player_index"`
	FirstToAct         int `json:"first_to_act"`
	DealerIndex        int `json:"dealer_index"`
	SmallBlindIndex    int `json:"small_blind_index"`
	BigBlindIndex      int `json:"big_blind_index"`

	// HandStartChips is the total of all stacks when the current hand began.
	HandStartChips int `json:"hand_start_chips"`

	LastHand *HandResult `json:"last_hand,omitempty"`

	// Set once the game is finished.
	Winner  string   `json:"winner,omitempty"`
	Winners []string `json:"winners,omitempty"`

	deckFunc DeckFunc
}

// NewGame seats the players and deals the first hand
func NewGame(cfg Config, players []Player, opts ...Option) (*Game, error) {
	if cfg.SmallBlind <= 0 || cfg.BigBlind < cfg.SmallBlind {
		return nil, fmt.Errorf("invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	if len(players) > 10 {
		return nil, fmt.Errorf("too many players: %d", len(players))
	}

	g := &Game{
		ID:                 cfg.ID,
		TableID:            cfg.TableID,
		Status:             StatusActive,
		Phase:              PhasePreflop,
		SmallBlind:         cfg.SmallBlind,
		BigBlind:           cfg.BigBlind,
		Seed:               cfg.Seed,
		CurrentPlayerIndex: -1,
		FirstToAct:         -1,
	}
	seen := make(map[string]bool, len(players))
	eligible := 0
	for _, p := range players {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("invalid or duplicate player id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Chips < 0 {
			return nil, fmt.Errorf("player %s has negative chips", p.ID)
		}
		if p.Chips > 0 {
			eligible++
		}
		g.Seats = append(g.Seats, &Seat{PlayerID: p.ID, Bot: p.Bot, Chips: p.Chips})
	}
	if eligible < 2 {
		return nil, ErrNotEnoughPlayers
	}
	for _, opt := range opts {
		opt(g)
	}

	g.DealerIndex = g.nextEligible(cfg.DealerIndex - 1)
	if err := g.startHand(); err != nil {
		return nil, err
	}
	return g, nil
}

// SetDeckFunc installs a deck source on a game restored from storage
func (g *Game) SetDeckFunc(fn DeckFunc) {
	g.deckFunc = fn
}

// SeatIndex returns the index of the player's seat or -1
func (g *Game) SeatIndex(playerID string) int {
	for i, s := range g.Seats {
		if s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// Seat returns the player's seat
func (g *Game) Seat(playerID string) (*Seat, error) {
	idx := g.SeatIndex(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return g.Seats[idx], nil
}

// CurrentSeat returns the seat due to act, or nil when nobody is
func (g *Game) CurrentSeat() *Seat {
	if g.Status != StatusActive || g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Seats) {
		return nil
	}
	return g.Seats[g.CurrentPlayerIndex]
}

// CurrentPlayerID returns the id of the player due to act, or ""
func (g *Game) CurrentPlayerID() string {
	if s := g.CurrentSeat(); s != nil {
		return s.PlayerID
	}
	return ""
}

// DealerID returns the player holding the button
func (g *Game) DealerID() string { return g.seatID(g.DealerIndex) }

// SmallBlindID returns the player who posted the small blind
func (g *Game) SmallBlindID() string { return g.seatID(g.SmallBlindIndex) }

// BigBlindID returns the player who posted the big blind
func (g *Game) BigBlindID() string { return g.seatID(g.BigBlindIndex) }

func (g *Game) seatID(idx int) string {
	if idx < 0 || idx >= len(g.Seats) {
		return ""
	}
	return g.Seats[idx].PlayerID
}

// ToCall returns the chips the seat needs to match the current bet
func (g *Game) ToCall(s *Seat) int {
	if d := g.CurrentBet - s.BetInPhase; d > 0 {
		return d
	}
	return 0
}

// TotalChips sums stacks and the pot
func (g *Game) TotalChips() int {
	total := g.Pot
	for _, s := range g.Seats {
		total += s.Chips
	}
	return total
}

// SidePots rebuilds the pot ladder from the seats' commitments
func (g *Game) SidePots() []SidePot {
	return CalculateSidePots(g.Seats)
}

// nextEligible finds the next seat after from that can be dealt in
func (g *Game) nextEligible(from int) int {
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		idx := ((from+i)%n + n) % n
		if g.Seats[idx].Eligible() {
			return idx
		}
	}
	return -1
}

// nextInHand finds the next non-folded seat after from
func (g *Game) nextInHand(from int) int {
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.Seats[idx].InHand() {
			return idx
		}
	}
	return -1
}

// nextActor finds the next seat after from that can act
func (g *Game) nextActor(from int) int {
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.Seats[idx].CanAct() {
			return idx
		}
	}
	return -1
}

func (g *Game) countInHand() int {
	count := 0
	for _, s := range g.Seats {
		if s.InHand() {
			count++
		}
	}
	return count
}

func (g *Game) countActors() int {
	count := 0
	for _, s := range g.Seats {
		if s.CanAct() {
			count++
		}
	}
	return count
}
