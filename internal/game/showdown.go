package game

import (
	"sort"

	"github.com/lox/pokertables/internal/deck"
	"github.com/lox/pokertables/internal/evaluator"
)

// Resolution is how a hand ended
type Resolution string

const (
	ResolutionFold     Resolution = "fold"
	ResolutionShowdown Resolution = "showdown"
	ResolutionAborted  Resolution = "aborted"
)

// PotResult records who won one pot of the ladder
type PotResult struct {
	Amount   int            `json:"amount"`
	Eligible []string       `json:"eligible"`
	Winners  []string       `json:"winners"`
	Shares   map[string]int `json:"shares"`
}

// Award is a winner's total take from a hand
type Award struct {
	PlayerID string `json:"player_id"`
	Amount   int    `json:"amount"`
	Hand     string `json:"hand,omitempty"`
}

// HandResult summarizes a resolved hand
type HandResult struct {
	HandNumber int         `json:"hand_number"`
	Resolution Resolution  `json:"resolution"`
	Board      []deck.Card `json:"board"`
	Pots       []PotResult `json:"pots,omitempty"`
	// Winner is the player who took the most chips; Winners lists everyone
	// who won anything.
	Winner  string  `json:"winner,omitempty"`
	Winners []Award `json:"winners,omitempty"`
	// Revealed holds the hole cards shown at showdown.
	Revealed map[string][]deck.Card `json:"revealed,omitempty"`
	// Refunds are uncalled or aborted chips returned to their owners.
	Refunds map[string]int `json:"refunds,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// resolveFold awards the pots to the last seat standing
func (g *Game) resolveFold() (Outcome, error) {
	return g.settle(ResolutionFold, nil)
}

// resolveShowdown evaluates every remaining hand and awards each pot
func (g *Game) resolveShowdown() (Outcome, error) {
	evals := make(map[int]evaluator.HandEvaluation)
	for i, s := range g.Seats {
		if !s.InHand() {
			continue
		}
		eval, err := evaluator.Best(s.HoleCards, g.Community)
		if err != nil {
			return OutcomeHandOver, g.abortHand(integrity("evaluating %s: %v", s.PlayerID, err))
		}
		evals[i] = eval
	}
	return g.settle(ResolutionShowdown, evals)
}

// settle distributes every pot and moves on to the next hand. With nil evals
// each pot goes to its eligible seats, which after a fold is the lone survivor.
func (g *Game) settle(resolution Resolution, evals map[int]evaluator.HandEvaluation) (Outcome, error) {
	g.Phase = PhaseShowdown
	pots, uncalled := buildPots(g.Seats)

	result := &HandResult{
		HandNumber: g.HandNumber,
		Resolution: resolution,
		Board:      append([]deck.Card(nil), g.Community...),
	}
	won := make(map[int]int)

	for _, pot := range pots {
		winners := potWinners(pot.Eligible, evals)
		shares := DistributePot(pot.Amount, winners, g.DealerIndex, len(g.Seats))

		pr := PotResult{Amount: pot.Amount, Shares: make(map[string]int, len(shares))}
		for _, idx := range pot.Eligible {
			pr.Eligible = append(pr.Eligible, g.Seats[idx].PlayerID)
		}
		for _, idx := range winners {
			pr.Winners = append(pr.Winners, g.Seats[idx].PlayerID)
			pr.Shares[g.Seats[idx].PlayerID] = shares[idx]
			won[idx] += shares[idx]
		}
		result.Pots = append(result.Pots, pr)
	}

	for idx, chips := range uncalled {
		if chips == 0 {
			continue
		}
		if result.Refunds == nil {
			result.Refunds = make(map[string]int)
		}
		result.Refunds[g.Seats[idx].PlayerID] = chips
		g.Seats[idx].Chips += chips
	}

	for idx, chips := range won {
		g.Seats[idx].Chips += chips
		award := Award{PlayerID: g.Seats[idx].PlayerID, Amount: chips}
		if eval, ok := evals[idx]; ok {
			award.Hand = eval.Description()
		}
		result.Winners = append(result.Winners, award)
	}
	sort.Slice(result.Winners, func(i, j int) bool {
		if result.Winners[i].Amount != result.Winners[j].Amount {
			return result.Winners[i].Amount > result.Winners[j].Amount
		}
		return g.SeatIndex(result.Winners[i].PlayerID) < g.SeatIndex(result.Winners[j].PlayerID)
	})
	if len(result.Winners) > 0 {
		result.Winner = result.Winners[0].PlayerID
	}

	if evals != nil {
		result.Revealed = make(map[string][]deck.Card, len(evals))
		for idx := range evals {
			s := g.Seats[idx]
			result.Revealed[s.PlayerID] = append([]deck.Card(nil), s.HoleCards...)
		}
	}

	g.Pot = 0
	return OutcomeHandOver, g.endHand(result)
}

// potWinners returns the eligible seats holding the best hand
func potWinners(eligible []int, evals map[int]evaluator.HandEvaluation) []int {
	if evals == nil {
		return eligible
	}
	var (
		winners []int
		best    evaluator.HandEvaluation
	)
	for _, idx := range eligible {
		eval, ok := evals[idx]
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0:
			winners, best = []int{idx}, eval
		case evaluator.Compare(eval, best) > 0:
			winners, best = []int{idx}, eval
		case evaluator.Compare(eval, best) == 0:
			winners = append(winners, idx)
		}
	}
	return winners
}
