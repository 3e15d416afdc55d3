package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardString(t *testing.T) {
	tests := []struct {
		card     Card
		expected string
	}{
		{NewCard(Ace, Spades), "A♠"},
		{NewCard(Ten, Hearts), "10♥"},
		{NewCard(Two, Clubs), "2♣"},
		{NewCard(Queen, Diamonds), "Q♦"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.card.String())
	}
}

func TestInvalidRankAndSuitRenderPlaceholder(t *testing.T) {
	assert.Equal(t, "?", Rank(0).String())
	assert.Equal(t, "?", Suit(9).String())
}
