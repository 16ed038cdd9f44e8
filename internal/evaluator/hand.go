package evaluator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lox/pokertables/internal/deck"
)

// Category is the ranking class of a five-card hand. Ordinals run from
// HighCard (-1) to RoyalFlush (8) so that stored evaluations stay comparable
// across versions.
type Category int

const (
	HighCard Category = iota - 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the string representation of a category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// ErrNotEnoughCards is returned when fewer than five cards are available
var ErrNotEnoughCards = errors.New("need at least 5 cards")

// HandEvaluation is the comparable value of a five-card hand
type HandEvaluation struct {
	Category    Category    `json:"category"`
	TieBreakers []int       `json:"tie_breakers"`
	Cards       []deck.Card `json:"cards"`
}

// String returns a string representation of the hand
func (h HandEvaluation) String() string {
	cardStrs := make([]string, 0, len(h.Cards))
	for _, card := range h.Cards {
		cardStrs = append(cardStrs, card.String())
	}
	return fmt.Sprintf("%s [%s]", h.Category, strings.Join(cardStrs, " "))
}

// Description returns a short human-readable name such as "Pair of Aces"
// or "Straight, Five high".
func (h HandEvaluation) Description() string {
	if len(h.TieBreakers) == 0 {
		return h.Category.String()
	}
	top := rankName(h.TieBreakers[0])
	switch h.Category {
	case OnePair:
		return "Pair of " + plural(top)
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", plural(top), plural(rankName(h.TieBreakers[1])))
	case ThreeOfAKind:
		return "Three " + plural(top)
	case FourOfAKind:
		return "Four " + plural(top)
	case FullHouse:
		return fmt.Sprintf("Full House, %s over %s", plural(top), plural(rankName(h.TieBreakers[1])))
	case HighCard, Straight, Flush, StraightFlush:
		return fmt.Sprintf("%s, %s high", h.Category, top)
	default:
		return h.Category.String()
	}
}

// Compare returns -1 if a is weaker than b, 1 if a is stronger and 0 when
// the hands split the pot.
func Compare(a, b HandEvaluation) int {
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a.TieBreakers) && i < len(b.TieBreakers); i++ {
		if a.TieBreakers[i] < b.TieBreakers[i] {
			return -1
		}
		if a.TieBreakers[i] > b.TieBreakers[i] {
			return 1
		}
	}
	return 0
}

// Best finds the strongest five-card hand out of the hole and community
// cards by evaluating every five-card subset.
func Best(hole, community []deck.Card) (HandEvaluation, error) {
	cards := make([]deck.Card, 0, len(hole)+len(community))
	cards = append(cards, hole...)
	cards = append(cards, community...)
	if len(cards) < 5 {
		return HandEvaluation{}, fmt.Errorf("%w: have %d", ErrNotEnoughCards, len(cards))
	}

	var (
		best  HandEvaluation
		found bool
		combo [5]deck.Card
	)
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						combo = [5]deck.Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						eval := evaluate5(combo)
						if !found || Compare(eval, best) > 0 {
							best, found = eval, true
						}
					}
				}
			}
		}
	}
	return best, nil
}

// Evaluate5 evaluates exactly five cards
func Evaluate5(cards []deck.Card) (HandEvaluation, error) {
	if len(cards) != 5 {
		return HandEvaluation{}, fmt.Errorf("evaluate: need exactly 5 cards, have %d", len(cards))
	}
	return evaluate5([5]deck.Card(cards)), nil
}

func evaluate5(cards [5]deck.Card) HandEvaluation {
	sorted := slices.Clone(cards[:])
	slices.SortFunc(sorted, func(x, y deck.Card) int {
		if x.Rank != y.Rank {
			return int(y.Rank) - int(x.Rank)
		}
		return int(y.Suit) - int(x.Suit)
	})

	ranks := make([]int, 5)
	flush := true
	for i, c := range sorted {
		ranks[i] = int(c.Rank)
		if c.Suit != sorted[0].Suit {
			flush = false
		}
	}

	groups := groupRanks(ranks)
	high := straightHigh(ranks, len(groups))

	eval := HandEvaluation{Cards: sorted}
	switch {
	case flush && high == int(deck.Ace):
		eval.Category = RoyalFlush
		eval.TieBreakers = straightRanks(high)
	case flush && high > 0:
		eval.Category = StraightFlush
		eval.TieBreakers = straightRanks(high)
	case groups[0].count == 4:
		eval.Category = FourOfAKind
		eval.TieBreakers = groupTieBreakers(groups)
	case groups[0].count == 3 && groups[1].count == 2:
		eval.Category = FullHouse
		eval.TieBreakers = groupTieBreakers(groups)
	case flush:
		eval.Category = Flush
		eval.TieBreakers = ranks
	case high > 0:
		eval.Category = Straight
		eval.TieBreakers = straightRanks(high)
	case groups[0].count == 3:
		eval.Category = ThreeOfAKind
		eval.TieBreakers = groupTieBreakers(groups)
	case groups[0].count == 2 && groups[1].count == 2:
		eval.Category = TwoPair
		eval.TieBreakers = groupTieBreakers(groups)
	case groups[0].count == 2:
		eval.Category = OnePair
		eval.TieBreakers = groupTieBreakers(groups)
	default:
		eval.Category = HighCard
		eval.TieBreakers = ranks
	}
	return eval
}

type rankGroup struct {
	rank  int
	count int
}

// groupRanks returns rank groups ordered by count then rank, both descending.
// ranks must already be sorted descending.
func groupRanks(ranks []int) []rankGroup {
	var groups []rankGroup
	for _, r := range ranks {
		if len(groups) > 0 && groups[len(groups)-1].rank == r {
			groups[len(groups)-1].count++
			continue
		}
		groups = append(groups, rankGroup{rank: r, count: 1})
	}
	slices.SortStableFunc(groups, func(a, b rankGroup) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return b.rank - a.rank
	})
	return groups
}

func groupTieBreakers(groups []rankGroup) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = g.rank
	}
	return out
}

// straightHigh returns the top rank of a straight, 5 for the wheel, or 0.
func straightHigh(ranks []int, distinct int) int {
	if distinct != 5 {
		return 0
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0]
	}
	if ranks[0] == int(deck.Ace) && ranks[1] == int(deck.Five) {
		return int(deck.Five)
	}
	return 0
}

// straightRanks lists a straight's ranks descending, with the wheel's ace as 1.
func straightRanks(high int) []int {
	return []int{high, high - 1, high - 2, high - 3, high - 4}
}

func rankName(r int) string {
	switch deck.Rank(r) {
	case deck.Ace, 1:
		return "Ace"
	case deck.King:
		return "King"
	case deck.Queen:
		return "Queen"
	case deck.Jack:
		return "Jack"
	case deck.Ten:
		return "Ten"
	case deck.Nine:
		return "Nine"
	case deck.Eight:
		return "Eight"
	case deck.Seven:
		return "Seven"
	case deck.Six:
		return "Six"
	case deck.Five:
		return "Five"
	case deck.Four:
		return "Four"
	case deck.Three:
		return "Three"
	case deck.Two:
		return "Two"
	default:
		return "?"
	}
}

func plural(name string) string {
	if name == "Six" {
		return "Sixes"
	}
	return name + "s"
}
