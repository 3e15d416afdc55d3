package game

import (
	"github.com/peakecoin/peakpoker/internal/deck"
)

// Deal is the result of dealing a fresh round: two hole cards each for
// the player and the opponent, and the five community cards.
type Deal struct {
	PlayerHole   []deck.Card
	OpponentHole []deck.Card
	Community    []deck.Card
}

// DealRound draws 2, 2, 5 cards from d in that order: player first,
// then opponent, then community. The draw order is part of the
// contract, since it determines which cards a given seed produces.
func DealRound(d *deck.Deck) (Deal, error) {
	player, err := d.Deal(2)
	if err != nil {
		return Deal{}, err
	}
	opponent, err := d.Deal(2)
	if err != nil {
		return Deal{}, err
	}
	community, err := d.Deal(5)
	if err != nil {
		return Deal{}, err
	}
	return Deal{
		PlayerHole:   player,
		OpponentHole: opponent,
		Community:    community,
	}, nil
}
