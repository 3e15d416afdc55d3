package deck

import (
	"errors"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrExhausted is returned when more cards are requested than remain.
// With fixed draw counts (2+2+5 per round) this indicates a programming
// error rather than a recoverable condition.
var ErrExhausted = errors.New("deck exhausted")

// Deck is an ordered sequence of distinct cards, consumed destructively
// as cards are dealt. A deck is good for exactly one round.
type Deck struct {
	cards []Card
}

// New builds a full 52-card deck and shuffles it with a Fisher-Yates
// permutation drawn from rng. Every ordering is equally likely assuming
// a uniform source.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// Deal removes and returns the top n cards
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrExhausted
	}
	cards := d.cards[:n]
	d.cards = d.cards[n:]
	return cards, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
