package deck

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitGlyphs = [...]string{"♠", "♥", "♦", "♣"}

// String returns the suit glyph used by the table display
func (s Suit) String() string {
	if s < Spades || s > Clubs {
		return "?"
	}
	return suitGlyphs[s]
}

// Rank represents a card rank, Two through Ace. Aces are high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// String returns the display name of the rank ("2".."10", "J", "Q", "K", "A")
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return rankNames[r-Two]
}

// Card is an immutable playing card. Identity is the (Rank, Suit) pair,
// never the display string.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display form of the card, e.g. "10♥" or "A♠"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}
