package game

import (
	"errors"
	"fmt"

	"github.com/lox/pokertables/internal/deck"
)

// startHand resets the seats, shuffles, deals hole cards and posts blinds.
// The dealer index must already point at an eligible seat.
func (g *Game) startHand() error {
	g.HandNumber++
	g.Phase = PhasePreflop
	g.Community = nil
	g.Pot = 0
	g.CurrentBet = 0

	participants := 0
	for _, s := range g.Seats {
		s.resetForHand()
		if s.InHand() {
			participants++
		}
	}
	if participants < 2 {
		g.finish()
		return nil
	}
	g.HandStartChips = g.TotalChips()

	if g.deckFunc != nil {
		g.Deck = g.deckFunc(g.HandNumber)
	} else {
		g.Deck = deck.NewShuffledDeck(deck.NewRNG(g.Seed + int64(g.HandNumber)))
	}

	// Heads-up: the button posts the small blind and acts first preflop
	if participants == 2 {
		g.SmallBlindIndex = g.DealerIndex
	} else {
		g.SmallBlindIndex = g.nextInHand(g.DealerIndex)
	}
	g.BigBlindIndex = g.nextInHand(g.SmallBlindIndex)

	// Nothing is committed yet. A deck that cannot cover the hole cards ends the game.
	if err := g.dealHoleCards(); err != nil {
		g.LastHand = &HandResult{HandNumber: g.HandNumber, Resolution: ResolutionAborted, Reason: err.Error()}
		g.finish()
		return err
	}

	sb, bb := g.Seats[g.SmallBlindIndex], g.Seats[g.BigBlindIndex]
	g.commit(sb, min(g.SmallBlind, sb.Chips))
	g.commit(bb, min(g.BigBlind, bb.Chips))
	g.CurrentBet = g.BigBlind

	if participants == 2 {
		g.FirstToAct = g.DealerIndex
		if !sb.CanAct() {
			g.FirstToAct = g.nextActor(g.DealerIndex)
		}
	} else {
		g.FirstToAct = g.nextActor(g.BigBlindIndex)
	}
	g.CurrentPlayerIndex = g.FirstToAct

	// Blinds alone can put everyone all-in
	if g.FirstToAct < 0 || g.roundComplete() {
		_, err := g.advance()
		return err
	}
	return nil
}

// dealHoleCards deals one card at a time starting left of the button
func (g *Game) dealHoleCards() error {
	for round := 0; round < 2; round++ {
		idx := g.DealerIndex
		for {
			idx = g.nextInHand(idx)
			cards, err := g.Deck.Deal(1)
			if err != nil {
				return fmt.Errorf("%w: dealing hole cards: %w", ErrIntegrity, err)
			}
			g.Seats[idx].HoleCards = append(g.Seats[idx].HoleCards, cards[0])
			if idx == g.DealerIndex {
				break
			}
		}
	}
	return nil
}

// dealStreet burns one card and deals the community cards for the next phase
func (g *Game) dealStreet() error {
	var next Phase
	var count int
	switch g.Phase {
	case PhasePreflop:
		next, count = PhaseFlop, 3
	case PhaseFlop:
		next, count = PhaseTurn, 1
	case PhaseTurn:
		next, count = PhaseRiver, 1
	default:
		return integrity("cannot deal after %s", g.Phase)
	}

	if err := g.Deck.Burn(); err != nil {
		return fmt.Errorf("%w: burning before %s: %w", ErrIntegrity, next, err)
	}
	cards, err := g.Deck.Deal(count)
	if err != nil {
		return fmt.Errorf("%w: dealing %s: %w", ErrIntegrity, next, err)
	}
	g.Community = append(g.Community, cards...)
	g.Phase = next
	return nil
}

// advance closes the current betting round. It deals the following streets
// until at least two seats can bet again, or resolves the hand at showdown.
func (g *Game) advance() (Outcome, error) {
	for {
		if g.Phase == PhaseRiver {
			return g.resolveShowdown()
		}

		for _, s := range g.Seats {
			s.resetForPhase()
		}
		g.CurrentBet = 0
		if err := g.dealStreet(); err != nil {
			return OutcomeHandOver, g.abortHand(err)
		}

		if g.countActors() >= 2 {
			g.FirstToAct = g.nextActor(g.DealerIndex)
			g.CurrentPlayerIndex = g.FirstToAct
			return OutcomeRoundAdvanced, nil
		}
	}
}

// endHand records the result and either deals the next hand or finishes
func (g *Game) endHand(result *HandResult) error {
	g.LastHand = result
	g.Phase = PhaseShowdown
	g.CurrentPlayerIndex = -1

	eligible := 0
	for _, s := range g.Seats {
		if s.Eligible() {
			eligible++
		}
	}
	if eligible < 2 {
		g.finish()
		return nil
	}

	g.DealerIndex = g.nextEligible(g.DealerIndex)
	return g.startHand()
}

// finish marks the game over and names the remaining chip holders
func (g *Game) finish() {
	g.Status = StatusFinished
	g.Phase = PhaseShowdown
	g.CurrentPlayerIndex = -1
	g.CurrentBet = 0
	g.Winners = nil
	g.Winner = ""

	// Seats that left keep their chips but are not listed unless nobody stayed
	holders := func(keep func(*Seat) bool) {
		best := 0
		for _, s := range g.Seats {
			if !keep(s) {
				continue
			}
			g.Winners = append(g.Winners, s.PlayerID)
			if s.Chips > best {
				best, g.Winner = s.Chips, s.PlayerID
			}
		}
	}
	holders((*Seat).Eligible)
	if len(g.Winners) == 0 {
		holders(func(s *Seat) bool { return s.Chips > 0 })
	}
}

// abortHand refunds every seat's commitment after an integrity failure and
// moves on to the next hand. The returned error wraps cause, joined with any
// failure to deal that next hand.
func (g *Game) abortHand(cause error) error {
	refunds := make(map[string]int)
	for _, s := range g.Seats {
		if s.Committed > 0 {
			s.Chips += s.Committed
			refunds[s.PlayerID] = s.Committed
		}
		s.Committed = 0
		s.BetInPhase = 0
	}
	g.Pot = 0

	if err := g.endHand(&HandResult{
		HandNumber: g.HandNumber,
		Resolution: ResolutionAborted,
		Board:      append([]deck.Card(nil), g.Community...),
		Refunds:    refunds,
		Reason:     cause.Error(),
	}); err != nil {
		return errors.Join(cause, fmt.Errorf("next hand: %w", err))
	}
	return cause
}

// CheckIntegrity verifies chip conservation for the hand in progress
func (g *Game) CheckIntegrity() error {
	committed := 0
	for _, s := range g.Seats {
		if s.Chips < 0 {
			return integrity("seat %s has negative stack %d", s.PlayerID, s.Chips)
		}
		if s.Committed < 0 || s.BetInPhase < 0 {
			return integrity("seat %s has negative commitment", s.PlayerID)
		}
		committed += s.Committed
	}
	if g.Pot < 0 {
		return integrity("negative pot %d", g.Pot)
	}
	if g.Status == StatusActive && g.Pot != committed {
		return integrity("pot %d does not match committed chips %d", g.Pot, committed)
	}
	if g.Status == StatusActive && g.TotalChips() != g.HandStartChips {
		return integrity("chip total %d differs from hand start %d", g.TotalChips(), g.HandStartChips)
	}
	return nil
}
