package session

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/randutil"
)

// DefaultGatewayTimeout bounds every wallet gateway call. Expiry is a
// recoverable failure, not a crash.
const DefaultGatewayTimeout = 15 * time.Second

// Session owns one player's account and at most one live round. It is
// the only thing that mutates either: round state transitions happen
// in response to discrete user actions, serialized here, and gateway
// calls are the only suspension points. While one is pending the
// session rejects new round operations with ErrRoundBusy.
type Session struct {
	ID       string
	gateway  Gateway
	platform string // platform account that funds payouts
	token    string
	clock    quartz.Clock
	timeout  time.Duration
	rng      *rand.Rand
	bus      game.EventBus
	logger   *log.Logger

	mu      sync.Mutex
	busy    bool
	account *game.Account
	round   *game.Round
}

// Option configures a Session
type Option func(*Session)

// WithClock replaces the wall clock, for tests
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithTimeout overrides the gateway call timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithRand pins the deal RNG, for deterministic rounds
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithEventBus attaches an event bus that receives round events
func WithEventBus(bus game.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// New creates a session backed by the given gateway. Payouts are
// funded by the platform account in the configured token.
func New(gateway Gateway, platform, token string, logger *log.Logger, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		gateway:  gateway,
		platform: platform,
		token:    token,
		clock:    quartz.NewReal(),
		timeout:  DefaultGatewayTimeout,
		rng:      randutil.New(time.Now().UnixNano()),
		logger:   logger.WithPrefix("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Account returns a copy of the session account, or false before
// sign-in.
func (s *Session) Account() (game.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return game.Account{}, false
	}
	return *s.account, true
}

// SignIn resolves the player identity through the gateway and creates
// the session account with an unknown (stale) zero balance; callers
// normally follow up with RefreshBalance. An unresolved round still
// settles against the current account, so re-signing-in is rejected
// until it reaches showdown.
func (s *Session) SignIn(ctx context.Context) (string, error) {
	if err := s.beginGateway(); err != nil {
		return "", err
	}
	defer s.endGateway()

	s.mu.Lock()
	if s.round != nil && s.round.Stage() != game.Showdown {
		s.mu.Unlock()
		return "", ErrRoundInProgress
	}
	s.mu.Unlock()

	var identity string
	err := s.callGateway(ctx, func(ctx context.Context) error {
		var err error
		identity, err = s.gateway.SignIn(ctx)
		return err
	})
	if err != nil {
		s.logger.Warn("sign-in failed", "error", err)
		return "", fmt.Errorf("sign-in failed: %w", err)
	}

	s.mu.Lock()
	s.account = &game.Account{Identity: identity, Token: s.token, Stale: true}
	s.mu.Unlock()

	s.logger.Info("signed in", "identity", identity)
	return identity, nil
}

// RefreshBalance overwrites the local balance with the gateway's
// authoritative figure. On failure the last known balance is kept and
// marked stale: a transient network blip must not zero the player's
// funds.
func (s *Session) RefreshBalance(ctx context.Context) (float64, error) {
	if err := s.beginGateway(); err != nil {
		return 0, err
	}
	defer s.endGateway()
	return s.refreshBalanceLocked(ctx)
}

// refreshBalanceLocked requires the busy flag to be held by the caller.
func (s *Session) refreshBalanceLocked(ctx context.Context) (float64, error) {
	s.mu.Lock()
	account := s.account
	s.mu.Unlock()
	if account == nil {
		return 0, ErrNotSignedIn
	}

	var balance float64
	err := s.callGateway(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.gateway.FetchBalance(ctx, account.Identity)
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.account.Stale = true
		s.logger.Warn("balance refresh failed, keeping last known balance",
			"identity", account.Identity, "balance", s.account.Balance, "error", err)
		return s.account.Balance, fmt.Errorf("balance refresh failed: %w", err)
	}
	s.account.SetBalance(balance)
	s.logger.Debug("balance refreshed", "identity", account.Identity, "balance", balance)
	return balance, nil
}

// StartRound validates and debits the bet, then deals a fresh round.
// Any previous round is replaced.
func (s *Session) StartRound(bet float64) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return game.Snapshot{}, ErrRoundBusy
	}
	if s.account == nil {
		return game.Snapshot{}, ErrNotSignedIn
	}

	round, err := game.StartRound(s.rng, s.account, bet, s.bus)
	if err != nil {
		return game.Snapshot{}, err
	}
	s.round = round
	s.logger.Info("round started", "round", round.ID, "bet", bet, "pot", round.Pot())
	return round.Snapshot(), nil
}

// AdvanceResult is the outcome of one stage advance. When the round
// resolves as a player win the payout leg runs before returning; a
// failed payout never demotes the win, it is reported separately in
// PayoutFailed.
type AdvanceResult struct {
	Snapshot     game.Snapshot
	PayoutFailed string
	BalanceStale bool
}

// Advance moves the current round forward one stage. Entering showdown
// resolves the round; a player win triggers the gateway payout of the
// whole pot followed by a balance refresh.
func (s *Session) Advance(ctx context.Context) (AdvanceResult, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return AdvanceResult{}, ErrRoundBusy
	}
	round := s.round
	if round == nil {
		s.mu.Unlock()
		return AdvanceResult{}, ErrNoRound
	}
	if err := round.Advance(); err != nil {
		s.mu.Unlock()
		return AdvanceResult{}, err
	}
	won := round.Stage() == game.Showdown && round.Outcome() == game.PlayerWin
	result := AdvanceResult{Snapshot: round.Snapshot()}
	if !won {
		if s.account != nil {
			result.BalanceStale = s.account.Stale
		}
		s.mu.Unlock()
		return result, nil
	}
	// Hold the implicit round lock across the payout leg. The round is
	// terminal now, so the snapshot taken above stays valid.
	s.busy = true
	s.mu.Unlock()

	defer s.endGateway()
	s.payout(ctx, round, &result)
	s.mu.Lock()
	if s.account != nil {
		result.BalanceStale = s.account.Stale
	}
	s.mu.Unlock()
	return result, nil
}

// payout credits the pot to the player through the gateway and then
// refreshes the balance from the authoritative source. Both legs are
// recoverable: failures become user-facing notes, never crashes, and
// the PlayerWin outcome is already final.
func (s *Session) payout(ctx context.Context, round *game.Round, result *AdvanceResult) {
	s.mu.Lock()
	identity := s.account.Identity
	s.mu.Unlock()

	err := s.callGateway(ctx, func(ctx context.Context) error {
		return s.gateway.Transfer(ctx, s.platform, identity, round.Pot())
	})
	if err != nil {
		s.logger.Error("payout transfer failed", "round", round.ID, "amount", round.Pot(), "error", err)
		result.PayoutFailed = fmt.Sprintf("payout of %g %s failed: %v. Your win stands, contact support", round.Pot(), s.token, err)
		return
	}
	s.logger.Info("payout sent", "round", round.ID, "amount", round.Pot(), "to", identity)

	if _, err := s.refreshBalanceLocked(ctx); err != nil {
		result.BalanceStale = true
	}
}

// Snapshot returns the presentation view of the current round
func (s *Session) Snapshot() (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return game.Snapshot{}, ErrNoRound
	}
	return s.round.Snapshot(), nil
}

func (s *Session) beginGateway() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrRoundBusy
	}
	s.busy = true
	return nil
}

func (s *Session) endGateway() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// callGateway runs op with the session's gateway timeout enforced by
// the injected clock. On expiry the op's context is cancelled and the
// call reports ErrGatewayTimeout; the op goroutine is left to drain.
func (s *Session) callGateway(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	expired := make(chan struct{})
	timer := s.clock.AfterFunc(s.timeout, func() { close(expired) })
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-expired:
		cancel()
		return ErrGatewayTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
