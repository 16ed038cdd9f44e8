package game

import "github.com/lox/pokertables/internal/deck"

// Player describes a participant joining a game
type Player struct {
	ID    string
	Chips int
	Bot   bool
}

// Seat is a player's place in a game. Chips belong to the seat between hands;
// Committed holds everything the seat has put in during the current hand.
type Seat struct {
	PlayerID   string      `json:"player_id"`
	Bot        bool        `json:"bot,omitempty"`
	Chips      int         `json:"chips"`
	Committed  int         `json:"committed"`
	BetInPhase int         `json:"bet_in_phase"`
	HoleCards  []deck.Card `json:"hole_cards,omitempty"`
	Folded     bool        `json:"folded"`
	SittingOut bool        `json:"sitting_out"`
	CashedOut  bool        `json:"cashed_out,omitempty"` // stack paid back to the player's account
	LastAction ActionType  `json:"last_action,omitempty"`
	HasActed   bool        `json:"has_acted"`
}

// InHand reports whether the seat still contests the pot
func (s *Seat) InHand() bool {
	return !s.Folded
}

// CanAct reports whether the seat can still take betting actions this hand
func (s *Seat) CanAct() bool {
	return !s.Folded && s.Chips > 0
}

// IsAllIn reports whether the seat is in the hand with no chips behind
func (s *Seat) IsAllIn() bool {
	return !s.Folded && s.Chips == 0
}

// Eligible reports whether the seat can be dealt into the next hand
func (s *Seat) Eligible() bool {
	return s.Chips > 0 && !s.SittingOut
}

func (s *Seat) resetForHand() {
	s.Committed = 0
	s.BetInPhase = 0
	s.HoleCards = nil
	s.LastAction = ""
	s.HasActed = false
	s.Folded = !s.Eligible()
}

func (s *Seat) resetForPhase() {
	s.BetInPhase = 0
	s.LastAction = ""
	s.HasActed = false
}

// commit moves n chips from the stack into the pot
func (g *Game) commit(s *Seat, n int) {
	s.Chips -= n
	s.Committed += n
	s.BetInPhase += n
	g.Pot += n
}
