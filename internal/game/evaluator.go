package game

import (
	"github.com/peakecoin/peakpoker/internal/deck"
)

// StrengthClass is the coarse hand strength used at showdown. Higher
// wins; equal classes tie regardless of kickers. Only rank
// multiplicities are counted; suits are ignored entirely, so flushes
// and straights do not exist in this scale and classes 4-5 are
// unreachable. That is the game's intended behavior, not a gap.
type StrengthClass int

const (
	HighCard     StrengthClass = 0
	OnePair      StrengthClass = 1
	TwoPair      StrengthClass = 2
	ThreeOfAKind StrengthClass = 3
	FullHouse    StrengthClass = 6
	FourOfAKind  StrengthClass = 7
)

// String returns a display name for the class
func (sc StrengthClass) String() string {
	switch sc {
	case FourOfAKind:
		return "four of a kind"
	case FullHouse:
		return "full house"
	case ThreeOfAKind:
		return "three of a kind"
	case TwoPair:
		return "two pair"
	case OnePair:
		return "one pair"
	default:
		return "high card"
	}
}

// Evaluate scores a hole hand against the visible community cards.
// The community may hold 0 to 5 cards depending on the stage; input
// order never affects the result.
func Evaluate(hole, community []deck.Card) StrengthClass {
	counts := make(map[deck.Rank]int, len(hole)+len(community))
	for _, c := range hole {
		counts[c.Rank]++
	}
	for _, c := range community {
		counts[c.Rank]++
	}

	var pairs, trips, quads int
	for _, n := range counts {
		switch n {
		case 2:
			pairs++
		case 3:
			trips++
		case 4:
			quads++
		}
	}

	switch {
	case quads >= 1:
		return FourOfAKind
	case trips >= 1 && pairs >= 1:
		return FullHouse
	case trips >= 1:
		return ThreeOfAKind
	case pairs >= 2:
		return TwoPair
	case pairs == 1:
		return OnePair
	default:
		return HighCard
	}
}
