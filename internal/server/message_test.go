package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/randutil"
	"github.com/peakecoin/peakpoker/internal/session"
)

func newTestRound(t *testing.T) (*game.Round, *game.Account) {
	t.Helper()
	account := &game.Account{Identity: "alice", Balance: 100, Token: "PEK"}
	round, err := game.StartRound(randutil.New(3), account, 10, nil)
	require.NoError(t, err)
	return round, account
}

func TestSnapshotDataMasksOpponentPreShowdown(t *testing.T) {
	round, _ := newTestRound(t)

	data := SnapshotDataFromGame(round.Snapshot())
	assert.Equal(t, "pre-flop", data.Stage)
	assert.Equal(t, 0, data.StageIndex)
	assert.Equal(t, []string{faceDownCard, faceDownCard}, data.OpponentHand)
	assert.Len(t, data.PlayerHand, 2)
	assert.Empty(t, data.Community)
	assert.Equal(t, 20.0, data.Pot)
	assert.Empty(t, data.Outcome)
}

func TestSnapshotDataCommunityGrowsWithStage(t *testing.T) {
	round, _ := newTestRound(t)

	expected := []int{3, 4, 5, 5}
	for i, count := range expected {
		require.NoError(t, round.Advance())
		data := SnapshotDataFromGame(round.Snapshot())
		assert.Len(t, data.Community, count, "advance %d", i+1)
	}
}

func TestSnapshotDataRevealsOpponentAtShowdown(t *testing.T) {
	round, _ := newTestRound(t)
	for round.Stage() < game.Showdown {
		require.NoError(t, round.Advance())
	}

	data := SnapshotDataFromGame(round.Snapshot())
	assert.Equal(t, "showdown", data.Stage)
	assert.Len(t, data.OpponentHand, 2)
	assert.NotContains(t, data.OpponentHand, faceDownCard)
	assert.NotEmpty(t, data.Outcome)
	assert.NotEmpty(t, data.Message)
}

func TestSnapshotDataFromResultCarriesPayoutNote(t *testing.T) {
	round, _ := newTestRound(t)
	for round.Stage() < game.Showdown {
		require.NoError(t, round.Advance())
	}

	result := session.AdvanceResult{
		Snapshot:     round.Snapshot(),
		PayoutFailed: "payout of 20 PEK failed: user declined",
		BalanceStale: true,
	}
	data := SnapshotDataFromResult(result)
	assert.Contains(t, data.PayoutFailed, "user declined")
	assert.True(t, data.BalanceStale)
}
