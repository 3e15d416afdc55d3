package game

// Stage is one of the five sequential phases of a round. It only ever
// moves forward, one step at a time, and is terminal at Showdown.
type Stage int

const (
	PreFlop Stage = iota
	Flop
	Turn
	River
	Showdown
)

// visibleCommunity maps each stage to how many community cards are
// revealed. This mapping is exposed to presentation and must be exact.
var visibleCommunity = [...]int{0, 3, 4, 5, 5}

// VisibleCommunity returns the number of community cards revealed at
// this stage.
func (s Stage) VisibleCommunity() int {
	if s < PreFlop || s > Showdown {
		return 0
	}
	return visibleCommunity[s]
}

// String returns the display name of the stage
func (s Stage) String() string {
	switch s {
	case PreFlop:
		return "pre-flop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}
