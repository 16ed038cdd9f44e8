package game

import (
	"fmt"
	"strings"
)

// ActionType is a betting action
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "all-in"
)

// ParseAction normalizes an action name such as "Call" or "allin"
func ParseAction(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return ActionFold, nil
	case "check":
		return ActionCheck, nil
	case "call":
		return ActionCall, nil
	case "raise", "bet":
		return ActionRaise, nil
	case "all-in", "allin", "all_in":
		return ActionAllIn, nil
	default:
		return "", illegal("unknown action %q", s)
	}
}

// ValidAction describes a legal action and the amounts it accepts
type ValidAction struct {
	Action ActionType `json:"action"`
	Min    int        `json:"min,omitempty"`
	Max    int        `json:"max,omitempty"`
}

// ValidActions lists the legal actions for the player, or nil when it is not
// their turn.
func (g *Game) ValidActions(playerID string) []ValidAction {
	s := g.CurrentSeat()
	if s == nil || s.PlayerID != playerID {
		return nil
	}

	toCall := g.ToCall(s)
	actions := []ValidAction{{Action: ActionFold}}
	if toCall == 0 {
		actions = append(actions, ValidAction{Action: ActionCheck})
	}
	if toCall <= s.Chips {
		actions = append(actions, ValidAction{Action: ActionCall, Min: toCall, Max: toCall})
	}
	if s.Chips > toCall+1 {
		actions = append(actions, ValidAction{Action: ActionRaise, Min: toCall + 1, Max: s.Chips})
	}
	actions = append(actions, ValidAction{Action: ActionAllIn, Min: s.Chips, Max: s.Chips})
	return actions
}

// Apply validates and applies an action for the player due to act. amount is
// only used by raises and is the number of chips added on top of the seat's
// current bet in this phase. A rejected action leaves the game unchanged.
func (g *Game) Apply(playerID string, action ActionType, amount int) (Outcome, error) {
	if g.Status != StatusActive {
		return OutcomeContinue, illegal("game %s is finished", g.ID)
	}
	idx := g.SeatIndex(playerID)
	if idx < 0 {
		return OutcomeContinue, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if idx != g.CurrentPlayerIndex {
		return OutcomeContinue, illegal("not your turn, waiting on %s", g.CurrentPlayerID())
	}
	seat := g.Seats[idx]

	commit, err := g.validate(seat, action, amount)
	if err != nil {
		return OutcomeContinue, err
	}

	if action == ActionFold {
		seat.Folded = true
	} else if commit > 0 {
		g.commit(seat, commit)
		if seat.BetInPhase > g.CurrentBet {
			g.CurrentBet = seat.BetInPhase
			// Everyone else must respond to the raise
			for _, other := range g.Seats {
				if other != seat {
					other.HasActed = false
				}
			}
		}
	}
	seat.LastAction = action
	switch {
	case action == ActionRaise && seat.Chips == 0:
		seat.LastAction = ActionAllIn
	case action == ActionCall && commit == 0:
		// calling nothing is a check
		seat.LastAction = ActionCheck
	}
	seat.HasActed = true

	if err := g.CheckIntegrity(); err != nil {
		return OutcomeHandOver, g.abortHand(err)
	}
	return g.progress(idx)
}

// validate checks an action and returns the chips it commits
func (g *Game) validate(seat *Seat, action ActionType, amount int) (int, error) {
	toCall := g.ToCall(seat)
	switch action {
	case ActionFold:
		return 0, nil
	case ActionCheck:
		if toCall > 0 {
			return 0, illegal("cannot check, %d to call", toCall)
		}
		return 0, nil
	case ActionCall:
		if toCall > seat.Chips {
			return 0, illegal("insufficient chips to call %d with %d, go all-in", toCall, seat.Chips)
		}
		return toCall, nil
	case ActionRaise:
		if amount <= 0 {
			return 0, illegal("raise amount must be positive")
		}
		if amount >= seat.Chips {
			return seat.Chips, nil
		}
		if amount <= toCall {
			return 0, illegal("raise too small, must exceed %d", toCall)
		}
		return amount, nil
	case ActionAllIn:
		return seat.Chips, nil
	default:
		return 0, illegal("unknown action %q", action)
	}
}

// progress moves the hand on after the seat at idx stopped acting
func (g *Game) progress(idx int) (Outcome, error) {
	if g.countInHand() == 1 {
		return g.resolveFold()
	}
	if g.roundComplete() {
		return g.advance()
	}
	next := g.nextActor(idx)
	if next < 0 {
		return g.advance()
	}
	g.CurrentPlayerIndex = next
	return OutcomeContinue, nil
}

// roundComplete reports whether the betting round is closed: every seat that
// can still bet has acted and matched the current bet. All-in seats are exempt.
func (g *Game) roundComplete() bool {
	actors := 0
	allActed := true
	for _, s := range g.Seats {
		if !s.CanAct() {
			continue
		}
		actors++
		if s.BetInPhase < g.CurrentBet {
			return false
		}
		if !s.HasActed {
			allActed = false
		}
	}
	// A lone seat with chips has nobody left to bet against once matched
	if actors <= 1 {
		return true
	}
	if allActed {
		return true
	}
	return g.backAtFirstToAct()
}

// backAtFirstToAct is the fallback closure check: action has returned to the
// phase's first actor with every bet matched and every seat having acted.
func (g *Game) backAtFirstToAct() bool {
	if g.FirstToAct < 0 || g.nextActor(g.CurrentPlayerIndex) != g.FirstToAct {
		return false
	}
	for _, s := range g.Seats {
		if s.CanAct() && (!s.HasActed || s.BetInPhase != g.CurrentBet) {
			return false
		}
	}
	return true
}

// Leave marks the player as sitting out. A seat still in the hand is folded,
// and if it held the turn the action moves on.
func (g *Game) Leave(playerID string) (Outcome, error) {
	idx := g.SeatIndex(playerID)
	if idx < 0 {
		return OutcomeContinue, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	seat := g.Seats[idx]
	seat.SittingOut = true
	if g.Status != StatusActive || seat.Folded {
		return OutcomeContinue, nil
	}

	seat.Folded = true
	seat.LastAction = ActionFold
	if idx == g.CurrentPlayerIndex {
		return g.progress(idx)
	}
	if g.countInHand() == 1 {
		return g.resolveFold()
	}
	if g.roundComplete() {
		return g.advance()
	}
	return OutcomeContinue, nil
}
