package game

import (
	"slices"
	"sort"
)

// SidePot is one rung of the pot ladder. Only the seats listed in Eligible
// can win it.
type SidePot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// IsEligible reports whether the seat index may win this pot
func (p SidePot) IsEligible(idx int) bool {
	return slices.Contains(p.Eligible, idx)
}

// CalculateSidePots partitions the seats' commitments into one pot per
// distinct commitment level, lowest first. Folded seats' chips stay
// in the amounts but folded seats are never eligible. Levels nobody still in
// the hand reached are left out; see uncalledChips.
func CalculateSidePots(seats []*Seat) []SidePot {
	pots, _ := buildPots(seats)
	return pots
}

// buildPots returns the pot ladder along with chips per seat that no
// remaining seat matched and which go back to the contributors.
func buildPots(seats []*Seat) ([]SidePot, []int) {
	uncalled := make([]int, len(seats))

	var levels []int
	for _, s := range seats {
		if s.Committed > 0 && !slices.Contains(levels, s.Committed) {
			levels = append(levels, s.Committed)
		}
	}
	sort.Ints(levels)

	var pots []SidePot
	prevLevel := 0
	for _, level := range levels {
		diff := level - prevLevel
		prevLevel = level

		contributors := 0
		var eligible []int
		for i, s := range seats {
			if s.Committed < level {
				continue
			}
			contributors++
			if !s.Folded {
				eligible = append(eligible, i)
			}
		}

		if len(eligible) == 0 {
			for i, s := range seats {
				if s.Committed >= level {
					uncalled[i] += diff
				}
			}
			continue
		}

		pots = append(pots, SidePot{Amount: diff * contributors, Eligible: eligible})
	}
	return pots, uncalled
}

// DistributePot splits amount evenly between the winning seat indices. Odd
// chips go one at a time to the winners closest to the left of the dealer;
// the dealer counts as the furthest seat.
func DistributePot(amount int, winners []int, dealerIndex, numSeats int) map[int]int {
	awards := make(map[int]int, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return awards
	}

	share := amount / len(winners)
	remainder := amount % len(winners)
	for _, w := range winners {
		awards[w] += share
	}

	ordered := slices.Clone(winners)
	slices.SortFunc(ordered, func(a, b int) int {
		da, db := buttonDistance(a, dealerIndex, numSeats), buttonDistance(b, dealerIndex, numSeats)
		if da != db {
			return da - db
		}
		return a - b
	})
	for i := 0; i < remainder; i++ {
		awards[ordered[i]]++
	}
	return awards
}

// buttonDistance is the clockwise distance from the dealer, with the dealer
// itself at numSeats.
func buttonDistance(idx, dealerIndex, numSeats int) int {
	d := (idx - dealerIndex + numSeats) % numSeats
	if d == 0 {
		return numSeats
	}
	return d
}
