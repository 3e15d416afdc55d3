package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakecoin/peakpoker/internal/deck"
	"github.com/peakecoin/peakpoker/internal/randutil"
)

func TestDealRoundCounts(t *testing.T) {
	d, err := DealRound(deck.New(randutil.New(1)))
	require.NoError(t, err)

	assert.Len(t, d.PlayerHole, 2)
	assert.Len(t, d.OpponentHole, 2)
	assert.Len(t, d.Community, 5)
}

func TestDealRoundCardsAreDistinct(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42} {
		d, err := DealRound(deck.New(randutil.New(seed)))
		require.NoError(t, err)

		seen := make(map[deck.Card]bool)
		all := append(append(append([]deck.Card{}, d.PlayerHole...), d.OpponentHole...), d.Community...)
		for _, c := range all {
			assert.False(t, seen[c], "seed %d: card %s dealt twice", seed, c)
			seen[c] = true
		}
		assert.Len(t, seen, 9)
	}
}

// The draw order (player, opponent, community) is a contract: with the
// same seed, DealRound must hand out the same cards the raw deck would.
func TestDealRoundDrawOrder(t *testing.T) {
	d, err := DealRound(deck.New(randutil.New(77)))
	require.NoError(t, err)

	raw := deck.New(randutil.New(77))
	first2, err := raw.Deal(2)
	require.NoError(t, err)
	next2, err := raw.Deal(2)
	require.NoError(t, err)
	last5, err := raw.Deal(5)
	require.NoError(t, err)

	assert.Equal(t, first2, d.PlayerHole)
	assert.Equal(t, next2, d.OpponentHole)
	assert.Equal(t, last5, d.Community)
}
