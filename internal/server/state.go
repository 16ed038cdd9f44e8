package server

import (
	"github.com/lox/pokertables/internal/deck"
	"github.com/lox/pokertables/internal/game"
)

// SeatState is one seat as seen by a particular viewer
type SeatState struct {
	PlayerID   string          `json:"player_id"`
	Bot        bool            `json:"bot"`
	Chips      int             `json:"chips"`
	Committed  int             `json:"committed"`
	BetInPhase int             `json:"bet_in_phase"`
	HoleCards  []deck.Card     `json:"hole_cards,omitempty"`
	Folded     bool            `json:"folded"`
	AllIn      bool            `json:"all_in"`
	SittingOut bool            `json:"sitting_out"`
	LastAction game.ActionType `json:"last_action,omitempty"`
}

// GameState is the redacted game view sent to clients. Only the viewer's own
// hole cards are included.
type GameState struct {
	ID            string             `json:"id"`
	TableID       string             `json:"table_id"`
	Status        game.Status        `json:"status"`
	Phase         game.Phase         `json:"phase"`
	HandNumber    int                `json:"hand_number"`
	SmallBlind    int                `json:"small_blind"`
	BigBlind      int                `json:"big_blind"`
	Pot           int                `json:"pot"`
	CurrentBet    int                `json:"current_bet"`
	SidePots      []game.SidePot     `json:"side_pots,omitempty"`
	Community     []deck.Card        `json:"community"`
	Seats         []SeatState        `json:"seats"`
	Dealer        string             `json:"dealer,omitempty"`
	SmallBlindID  string             `json:"small_blind_player,omitempty"`
	BigBlindID    string             `json:"big_blind_player,omitempty"`
	CurrentPlayer string             `json:"current_player,omitempty"`
	ValidActions  []game.ValidAction `json:"valid_actions,omitempty"`
	LastHand      *game.HandResult   `json:"last_hand,omitempty"`
	Winner        string             `json:"winner,omitempty"`
	Winners       []string           `json:"winners,omitempty"`

	BotTurnPending bool `json:"bot_turn_pending"`
}

// NewGameState builds the view of g for viewer, which may be empty for a
// spectator.
func NewGameState(g *game.Game, viewer string) GameState {
	state := GameState{
		ID:            g.ID,
		TableID:       g.TableID,
		Status:        g.Status,
		Phase:         g.Phase,
		HandNumber:    g.HandNumber,
		SmallBlind:    g.SmallBlind,
		BigBlind:      g.BigBlind,
		Pot:           g.Pot,
		CurrentBet:    g.CurrentBet,
		Community:     append([]deck.Card{}, g.Community...),
		Seats:         make([]SeatState, len(g.Seats)),
		LastHand:      g.LastHand,
		Winner:        g.Winner,
		Winners:       g.Winners,
		CurrentPlayer: g.CurrentPlayerID(),
	}

	if g.Status == game.StatusActive {
		state.Dealer = g.DealerID()
		state.SmallBlindID = g.SmallBlindID()
		state.BigBlindID = g.BigBlindID()
		if pots := g.SidePots(); len(pots) > 1 {
			state.SidePots = pots
		}
		if viewer != "" {
			state.ValidActions = g.ValidActions(viewer)
		}
	}

	for i, s := range g.Seats {
		seat := SeatState{
			PlayerID:   s.PlayerID,
			Bot:        s.Bot,
			Chips:      s.Chips,
			Committed:  s.Committed,
			BetInPhase: s.BetInPhase,
			Folded:     s.Folded,
			AllIn:      s.IsAllIn(),
			SittingOut: s.SittingOut,
			LastAction: s.LastAction,
		}
		if viewer != "" && s.PlayerID == viewer {
			seat.HoleCards = append([]deck.Card(nil), s.HoleCards...)
		}
		state.Seats[i] = seat
	}
	return state
}

// Seat returns the view of a player's seat
func (s GameState) Seat(playerID string) (SeatState, bool) {
	for _, seat := range s.Seats {
		if seat.PlayerID == playerID {
			return seat, true
		}
	}
	return SeatState{}, false
}
