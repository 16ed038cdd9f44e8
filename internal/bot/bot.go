package bot

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertables/internal/deck"
	"github.com/lox/pokertables/internal/game"
)

// Strength is a coarse preflop bucket for a pair of hole cards
type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
)

// String returns the string representation of hand strength
func (s Strength) String() string {
	switch s {
	case Weak:
		return "Weak"
	case Medium:
		return "Medium"
	case Strong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// Classify buckets two hole cards. Strong: tens or better, AK, AQ. Medium:
// any other pair, or high cards averaging at least a jack suited or a queen
// offsuit.
func Classify(hole []deck.Card) Strength {
	if len(hole) != 2 {
		return Weak
	}
	a, b := hole[0], hole[1]
	hi, lo := a.Rank, b.Rank
	if lo > hi {
		hi, lo = lo, hi
	}

	if hi == lo {
		if hi >= deck.Ten {
			return Strong
		}
		return Medium
	}
	if hi == deck.Ace && (lo == deck.King || lo == deck.Queen) {
		return Strong
	}

	avg := float64(hi+lo) / 2
	threshold := 12.0
	if a.Suit == b.Suit {
		threshold = 11.0
	}
	if avg >= threshold {
		return Medium
	}
	return Weak
}

// Decision is what a bot wants to do on its turn
type Decision struct {
	Action game.ActionType
	Amount int
	Reason string
}

// Options tunes how often the policy gets aggressive
type Options struct {
	PreflopRaise  float64 // chance a strong hand raises preflop
	PostflopRaise float64 // chance a strong hand bets postflop
	PostflopCall  float64 // chance a medium hand calls a postflop bet
}

// DefaultOptions returns the standard bot tuning
func DefaultOptions() Options {
	return Options{PreflopRaise: 0.8, PostflopRaise: 0.5, PostflopCall: 0.5}
}

// Policy decides actions for automated seats
type Policy struct {
	rng    *rand.Rand
	opts   Options
	logger *log.Logger
}

// NewPolicy creates a policy drawing randomness from rng
func NewPolicy(rng *rand.Rand, opts Options, logger *log.Logger) *Policy {
	return &Policy{
		rng:    rng,
		opts:   opts,
		logger: logger.WithPrefix("bot"),
	}
}

// Decide picks an action for the player, who must be the one to act
func (p *Policy) Decide(g *game.Game, playerID string) (Decision, error) {
	valid := g.ValidActions(playerID)
	if len(valid) == 0 {
		return Decision{}, fmt.Errorf("bot %s: not its turn", playerID)
	}
	seat, err := g.Seat(playerID)
	if err != nil {
		return Decision{}, err
	}

	strength := Classify(seat.HoleCards)
	t := turn{valid: valid, toCall: g.ToCall(seat)}

	var d Decision
	if g.Phase == game.PhasePreflop {
		d = p.preflop(g, seat, strength, t)
	} else {
		d = p.postflop(g, strength, t)
	}

	p.logger.Debug("Bot decision",
		"game", g.ID,
		"player", playerID,
		"phase", g.Phase,
		"strength", strength,
		"action", d.Action,
		"amount", d.Amount,
		"reason", d.Reason)
	return d, nil
}

func (p *Policy) preflop(g *game.Game, seat *game.Seat, strength Strength, t turn) Decision {
	switch strength {
	case Strong:
		if p.rng.Float64() < p.opts.PreflopRaise {
			target := 2 * max(g.CurrentBet, g.BigBlind)
			if d, ok := t.raise(target-seat.BetInPhase, "strong hand, raising"); ok {
				return d
			}
		}
		return t.passive("strong hand, calling")
	default:
		// Bots stay in cheaply preflop whatever they hold
		return t.passive(strings.ToLower(strength.String()) + " hand, calling preflop")
	}
}

func (p *Policy) postflop(g *game.Game, strength Strength, t turn) Decision {
	switch strength {
	case Strong:
		if p.rng.Float64() < p.opts.PostflopRaise {
			bet := max(g.Pot/2, g.BigBlind)
			if d, ok := t.raise(t.toCall+bet, "strong hand, betting half pot"); ok {
				return d
			}
		}
		return t.passive("strong hand, calling")
	case Medium:
		if t.has(game.ActionCheck) {
			return Decision{Action: game.ActionCheck, Reason: "medium hand, checking"}
		}
		if t.has(game.ActionCall) && p.rng.Float64() < p.opts.PostflopCall {
			return Decision{Action: game.ActionCall, Reason: "medium hand, calling"}
		}
		return Decision{Action: game.ActionFold, Reason: "medium hand, folding to bet"}
	default:
		if t.has(game.ActionCheck) {
			return Decision{Action: game.ActionCheck, Reason: "weak hand, checking"}
		}
		return Decision{Action: game.ActionFold, Reason: "weak hand, folding"}
	}
}

// turn wraps the legal options for the acting seat
type turn struct {
	valid  []game.ValidAction
	toCall int
}

func (t turn) find(action game.ActionType) (game.ValidAction, bool) {
	for _, v := range t.valid {
		if v.Action == action {
			return v, true
		}
	}
	return game.ValidAction{}, false
}

func (t turn) has(action game.ActionType) bool {
	_, ok := t.find(action)
	return ok
}

// raise clamps amount into the legal raise range
func (t turn) raise(amount int, reason string) (Decision, bool) {
	v, ok := t.find(game.ActionRaise)
	if !ok {
		return Decision{}, false
	}
	amount = min(max(amount, v.Min), v.Max)
	return Decision{Action: game.ActionRaise, Amount: amount, Reason: reason}, true
}

// passive calls or checks, folding only when neither is legal
func (t turn) passive(reason string) Decision {
	if t.has(game.ActionCheck) {
		return Decision{Action: game.ActionCheck, Reason: reason}
	}
	if t.has(game.ActionCall) {
		return Decision{Action: game.ActionCall, Reason: reason}
	}
	return Decision{Action: game.ActionFold, Reason: reason}
}

