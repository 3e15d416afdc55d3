package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/randutil"
)

// fakeGateway is a scriptable Gateway for session tests
type fakeGateway struct {
	mu            sync.Mutex
	identity      string
	signInErr     error
	balance       float64
	balanceErr    error
	transferErr   error
	transferHold  chan struct{} // when set, Transfer blocks until closed or ctx done
	enteredOnce   sync.Once
	entered       chan struct{} // when set, closed as Transfer is entered
	transfers     []transferCall
	balanceCalls  int
}

type advanceOut struct {
	result AdvanceResult
	err    error
}

type transferCall struct {
	from, to string
	amount   float64
}

func (f *fakeGateway) SignIn(ctx context.Context) (string, error) {
	return f.identity, f.signInErr
}

func (f *fakeGateway) FetchBalance(ctx context.Context, identity string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeGateway) Transfer(ctx context.Context, from, to string, amount float64) error {
	f.mu.Lock()
	hold := f.transferHold
	entered := f.entered
	f.mu.Unlock()
	if entered != nil {
		f.enteredOnce.Do(func() { close(entered) })
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers = append(f.transfers, transferCall{from: from, to: to, amount: amount})
	return f.transferErr
}

func (f *fakeGateway) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func signedInSession(t *testing.T, gw *fakeGateway, opts ...Option) *Session {
	t.Helper()
	s := New(gw, "platform", "PEK", testLogger(), opts...)
	_, err := s.SignIn(context.Background())
	require.NoError(t, err)
	_, err = s.RefreshBalance(context.Background())
	require.NoError(t, err)
	return s
}

func TestSignInAndRefresh(t *testing.T) {
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := New(gw, "platform", "PEK", testLogger())

	identity, err := s.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)

	account, ok := s.Account()
	require.True(t, ok)
	assert.True(t, account.Stale, "balance unknown until first refresh")

	balance, err := s.RefreshBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)

	account, _ = s.Account()
	assert.False(t, account.Stale)
	assert.Equal(t, "PEK", account.Token)
}

func TestSignInFailureSurfaces(t *testing.T) {
	gw := &fakeGateway{signInErr: errors.New("keychain unavailable")}
	s := New(gw, "platform", "PEK", testLogger())

	_, err := s.SignIn(context.Background())
	assert.ErrorContains(t, err, "sign-in failed")

	_, ok := s.Account()
	assert.False(t, ok)
}

func TestRefreshFailureKeepsLastKnownBalance(t *testing.T) {
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw)

	gw.mu.Lock()
	gw.balanceErr = errors.New("rpc node down")
	gw.mu.Unlock()

	balance, err := s.RefreshBalance(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 100.0, balance, "last known balance must survive a transient failure")

	account, _ := s.Account()
	assert.Equal(t, 100.0, account.Balance)
	assert.True(t, account.Stale)
}

func TestStartRoundRequiresSignIn(t *testing.T) {
	s := New(&fakeGateway{}, "platform", "PEK", testLogger())
	_, err := s.StartRound(10)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestStartRoundValidation(t *testing.T) {
	gw := &fakeGateway{identity: "alice", balance: 5}
	s := signedInSession(t, gw)

	_, err := s.StartRound(10)
	assert.ErrorIs(t, err, game.ErrInsufficientFunds)

	account, _ := s.Account()
	assert.Equal(t, 5.0, account.Balance)
}

func TestStartRoundDealsAtPreFlop(t *testing.T) {
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw)

	snap, err := s.StartRound(10)
	require.NoError(t, err)
	assert.Equal(t, game.PreFlop, snap.Stage)
	assert.Equal(t, 20.0, snap.Pot)
	assert.Empty(t, snap.Community)
	assert.Nil(t, snap.OpponentHole)

	account, _ := s.Account()
	assert.Equal(t, 90.0, account.Balance)
}

// playToShowdown advances a seeded round through showdown and returns
// the final result. Seeds are chosen per scenario for a known outcome.
func playToShowdown(t *testing.T, s *Session) AdvanceResult {
	t.Helper()
	var result AdvanceResult
	for i := 0; i < 4; i++ {
		var err error
		result, err = s.Advance(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, game.Showdown, result.Snapshot.Stage)
	return result
}

// findSeed locates a deal seed whose showdown outcome matches want.
func findSeed(t *testing.T, want game.Outcome) int64 {
	t.Helper()
	for seed := int64(0); seed < 2000; seed++ {
		account := &game.Account{Identity: "probe", Balance: 100, Token: "PEK"}
		r, err := game.StartRound(randutil.New(seed), account, 10, nil)
		require.NoError(t, err)
		for r.Stage() < game.Showdown {
			require.NoError(t, r.Advance())
		}
		if r.Outcome() == want {
			return seed
		}
	}
	t.Fatalf("no seed found for outcome %s", want)
	return 0
}

func TestWinPaysPotAndRefreshes(t *testing.T) {
	seed := findSeed(t, game.PlayerWin)
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)

	gw.mu.Lock()
	gw.balance = 110 // what the chain reports after the payout lands
	callsBefore := gw.balanceCalls
	gw.mu.Unlock()

	result := playToShowdown(t, s)
	assert.Equal(t, game.PlayerWin, result.Snapshot.Outcome)
	assert.Empty(t, result.PayoutFailed)

	require.Equal(t, 1, gw.transferCount())
	gw.mu.Lock()
	call := gw.transfers[0]
	refreshed := gw.balanceCalls > callsBefore
	gw.mu.Unlock()
	assert.Equal(t, "platform", call.from)
	assert.Equal(t, "alice", call.to)
	assert.Equal(t, 20.0, call.amount, "payout must be the whole pot")
	assert.True(t, refreshed, "win must refresh the balance from the gateway")

	account, _ := s.Account()
	assert.Equal(t, 110.0, account.Balance)
}

func TestTieRefundsLocallyWithoutGateway(t *testing.T) {
	seed := findSeed(t, game.Tie)
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)

	result := playToShowdown(t, s)
	assert.Equal(t, game.Tie, result.Snapshot.Outcome)
	assert.Zero(t, gw.transferCount(), "ties settle locally, no payout call")

	account, _ := s.Account()
	assert.Equal(t, 100.0, account.Balance, "tie refunds the original bet")
}

func TestLossMovesNoFunds(t *testing.T) {
	seed := findSeed(t, game.OpponentWin)
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)

	result := playToShowdown(t, s)
	assert.Equal(t, game.OpponentWin, result.Snapshot.Outcome)
	assert.Zero(t, gw.transferCount())

	account, _ := s.Account()
	assert.Equal(t, 90.0, account.Balance, "the debited bet is the loss")
}

func TestPayoutFailureKeepsWin(t *testing.T) {
	seed := findSeed(t, game.PlayerWin)
	gw := &fakeGateway{identity: "alice", balance: 100, transferErr: errors.New("user rejected the transaction")}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)

	result := playToShowdown(t, s)
	assert.Equal(t, game.PlayerWin, result.Snapshot.Outcome, "a failed payout never demotes the win")
	assert.Contains(t, result.PayoutFailed, "user rejected")
	assert.Contains(t, result.Snapshot.Message, "You win")
}

func TestSignInRejectedMidRound(t *testing.T) {
	seed := findSeed(t, game.Tie)
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)

	_, err = s.SignIn(context.Background())
	assert.ErrorIs(t, err, ErrRoundInProgress)

	// The account that funded the round is still the session account,
	// so the tie refund lands where the caller can see it.
	playToShowdown(t, s)
	account, _ := s.Account()
	assert.Equal(t, "alice", account.Identity)
	assert.Equal(t, 100.0, account.Balance)

	// A resolved round no longer blocks re-signing-in.
	_, err = s.SignIn(context.Background())
	assert.NoError(t, err)
}

func TestConcurrentAdvanceSnapshotsAreConsistent(t *testing.T) {
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw)

	_, err := s.StartRound(10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan AdvanceResult, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if result, err := s.Advance(context.Background()); err == nil {
				results <- result
			}
		}()
	}
	wg.Wait()
	close(results)

	// Each snapshot must be internally coherent: the community cards
	// in it belong to the stage it reports, not to a later advance.
	for result := range results {
		assert.Len(t, result.Snapshot.Community, result.Snapshot.Stage.VisibleCommunity())
	}
}

func TestAdvanceTerminalState(t *testing.T) {
	seed := findSeed(t, game.OpponentWin)
	gw := &fakeGateway{identity: "alice", balance: 100}
	s := signedInSession(t, gw, WithRand(randutil.New(seed)))

	_, err := s.StartRound(10)
	require.NoError(t, err)
	playToShowdown(t, s)

	_, err = s.Advance(context.Background())
	assert.ErrorIs(t, err, game.ErrTerminalStage)
}

func TestRoundBusyDuringPendingPayout(t *testing.T) {
	seed := findSeed(t, game.PlayerWin)
	hold := make(chan struct{})
	entered := make(chan struct{})
	gw := &fakeGateway{identity: "alice", balance: 100, transferHold: hold, entered: entered}
	mock := quartz.NewMock(t)
	s := signedInSession(t, gw, WithRand(randutil.New(seed)), WithClock(mock))

	_, err := s.StartRound(10)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = s.Advance(context.Background())
		require.NoError(t, err)
	}

	// The final advance blocks inside the payout; run it concurrently.
	done := make(chan advanceOut, 1)
	go func() {
		result, err := s.Advance(context.Background())
		done <- advanceOut{result, err}
	}()

	// Once the transfer is in flight the round holds its implicit lock.
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("payout transfer never started")
	}

	_, err = s.StartRound(10)
	assert.ErrorIs(t, err, ErrRoundBusy)
	_, err = s.Advance(context.Background())
	assert.ErrorIs(t, err, ErrRoundBusy)

	close(hold)
	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, game.PlayerWin, out.result.Snapshot.Outcome)

	// Lock released: new rounds are accepted again.
	_, err = s.StartRound(10)
	assert.NoError(t, err)
}

func TestGatewayTimeoutIsRecoverable(t *testing.T) {
	seed := findSeed(t, game.PlayerWin)
	hold := make(chan struct{}) // never closed: the transfer hangs
	gw := &fakeGateway{identity: "alice", balance: 100, transferHold: hold}
	mock := quartz.NewMock(t)
	s := signedInSession(t, gw, WithRand(randutil.New(seed)), WithClock(mock))

	_, err := s.StartRound(10)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = s.Advance(context.Background())
		require.NoError(t, err)
	}

	trap := mock.Trap().AfterFunc()
	defer trap.Close()

	done := make(chan advanceOut, 1)
	go func() {
		result, err := s.Advance(context.Background())
		done <- advanceOut{result: result, err: err}
	}()

	// Release the timer registration, then expire it.
	call := trap.MustWait(context.Background())
	call.Release()
	mock.Advance(DefaultGatewayTimeout).MustWait(context.Background())

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, game.PlayerWin, out.result.Snapshot.Outcome)
	assert.Contains(t, out.result.PayoutFailed, ErrGatewayTimeout.Error())

	// The implicit lock is released after the timeout.
	_, err = s.StartRound(10)
	assert.NoError(t, err)
}
