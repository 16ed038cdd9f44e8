package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrDeckExhausted is returned when more cards are requested than remain.
// With ten seats or fewer this can only happen if the hand state is corrupt.
var ErrDeckExhausted = errors.New("deck exhausted")

const goldenRatio64 = 0x9e3779b97f4a7c15

// NewRNG returns a *rand.Rand seeded deterministically from seed, so that
// games and tests can be replayed card for card.
func NewRNG(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Deck holds the cards remaining for the current hand. Cards are dealt from
// the tail of the slice.
type Deck struct {
	cards []Card
}

// NewDeck creates an ordered 52-card deck
func NewDeck() *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	return d
}

// NewShuffledDeck creates a full deck shuffled with rng
func NewShuffledDeck(rng *rand.Rand) *Deck {
	d := NewDeck()
	d.Shuffle(rng)
	return d
}

// NewDeckFromCards creates a deck whose next dealt card is the last element
// of cards. Used to restore persisted decks and to stack decks in tests.
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Shuffle randomizes the remaining cards with a Fisher-Yates pass
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal pops n cards from the tail of the deck
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}
	split := len(d.cards) - n
	dealt := make([]Card, n)
	for i := 0; i < n; i++ {
		dealt[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:split]
	return dealt, nil
}

// Burn discards the next card
func (d *Deck) Burn() error {
	_, err := d.Deal(1)
	return err
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards in deal order (last is next)
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// MarshalJSON encodes the remaining cards
func (d *Deck) MarshalJSON() ([]byte, error) {
	if d.cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.cards)
}

// UnmarshalJSON restores the remaining cards
func (d *Deck) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	d.cards = cards
	return nil
}
