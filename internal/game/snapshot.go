package game

import (
	"github.com/peakecoin/peakpoker/internal/deck"
)

// Snapshot is an immutable view of a round for presentation. Opponent
// hole cards are withheld until showdown: leaking them earlier would
// break the game's information model, so the masking happens here in
// the core rather than in any rendering layer.
type Snapshot struct {
	RoundID        string
	Stage          Stage
	PlayerHole     []deck.Card
	OpponentHole   []deck.Card // nil before showdown
	OpponentHidden int         // count of face-down opponent cards
	Community      []deck.Card // only the cards visible at this stage
	Pot            float64
	Bet            float64
	Outcome        Outcome
	PlayerClass    StrengthClass
	OpponentClass  StrengthClass
	Message        string
}

// Snapshot returns the presentation view of the round at its current
// stage.
func (r *Round) Snapshot() Snapshot {
	snap := Snapshot{
		RoundID:    r.ID,
		Stage:      r.stage,
		PlayerHole: cloneCards(r.deal.PlayerHole),
		Community:  cloneCards(r.deal.Community[:r.stage.VisibleCommunity()]),
		Pot:        r.pot,
		Bet:        r.bet,
		Outcome:    r.outcome,
		Message:    r.message,
	}
	if r.stage == Showdown {
		snap.OpponentHole = cloneCards(r.deal.OpponentHole)
		snap.PlayerClass = r.playerClass
		snap.OpponentClass = r.oppClass
	} else {
		snap.OpponentHidden = len(r.deal.OpponentHole)
	}
	return snap
}

func cloneCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}
