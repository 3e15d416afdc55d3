package game

import (
	"fmt"
	"math"
	rand "math/rand/v2"

	"github.com/google/uuid"

	"github.com/peakecoin/peakpoker/internal/deck"
)

// Outcome is the terminal result of a round
type Outcome int

const (
	Undecided Outcome = iota
	PlayerWin
	OpponentWin
	Tie
)

// String returns the display name of the outcome
func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "player win"
	case OpponentWin:
		return "opponent win"
	case Tie:
		return "tie"
	default:
		return "undecided"
	}
}

// Round is a single live round of play against the scripted opponent.
// The opponent has no decisions to make: it always calls the player's
// bet, so the pot is fixed at twice the bet for the whole round.
// A Round is owned by exactly one session; presentation only ever sees
// snapshots.
type Round struct {
	ID          string
	deal        Deal
	account     *Account
	bet         float64
	pot         float64
	stage       Stage
	outcome     Outcome
	message     string
	playerClass StrengthClass
	oppClass    StrengthClass
	bus         EventBus
}

// ValidateBet checks that bet is a positive finite amount covered by
// the account balance. It mutates nothing.
func ValidateBet(bet float64, account *Account) error {
	if bet <= 0 || math.IsNaN(bet) || math.IsInf(bet, 0) {
		return ErrInvalidBet
	}
	if account.Balance < bet {
		return ErrInsufficientFunds
	}
	return nil
}

// StartRound validates the bet, debits it from the account, deals a
// fresh shuffled deck, and returns the new round at pre-flop with
// pot = 2*bet (the opponent matches the bet unconditionally).
func StartRound(rng *rand.Rand, account *Account, bet float64, bus EventBus) (*Round, error) {
	if err := ValidateBet(bet, account); err != nil {
		return nil, err
	}

	d, err := DealRound(deck.New(rng))
	if err != nil {
		return nil, err
	}

	account.Debit(bet)
	r := &Round{
		ID:      uuid.NewString(),
		deal:    d,
		account: account,
		bet:     bet,
		pot:     bet * 2,
		stage:   PreFlop,
		bus:     bus,
	}
	if bus != nil {
		bus.Publish(NewRoundStartedEvent(r.ID, bet, r.pot))
	}
	return r, nil
}

// Stage returns the current stage
func (r *Round) Stage() Stage {
	return r.stage
}

// Outcome returns the round outcome, Undecided before showdown
func (r *Round) Outcome() Outcome {
	return r.outcome
}

// Bet returns the player's original bet
func (r *Round) Bet() float64 {
	return r.bet
}

// Pot returns the total amount at stake
func (r *Round) Pot() float64 {
	return r.pot
}

// Advance moves the round forward by exactly one stage. Reaching
// Showdown resolves the round as part of the same transition: both
// hands are evaluated, the outcome and message become final, and a tie
// refunds the original bet to the player's local balance. Paying out a
// win is the caller's responsibility (it needs the gateway).
func (r *Round) Advance() error {
	if r.stage >= Showdown {
		return ErrTerminalStage
	}
	r.stage++
	if r.bus != nil {
		r.bus.Publish(NewStageAdvancedEvent(r.ID, r.stage))
	}
	if r.stage == Showdown {
		r.resolve()
	}
	return nil
}

func (r *Round) resolve() {
	r.playerClass = Evaluate(r.deal.PlayerHole, r.deal.Community)
	r.oppClass = Evaluate(r.deal.OpponentHole, r.deal.Community)

	switch {
	case r.playerClass > r.oppClass:
		r.outcome = PlayerWin
		r.message = fmt.Sprintf("You win! +%g %s", r.pot, r.account.Token)
	case r.oppClass > r.playerClass:
		r.outcome = OpponentWin
		r.message = "Opponent wins. Better luck next time."
	default:
		r.outcome = Tie
		r.message = "It's a tie! Your bet was refunded."
		r.account.Credit(r.bet)
	}

	if r.bus != nil {
		r.bus.Publish(NewRoundResolvedEvent(r.ID, r.outcome, r.playerClass, r.oppClass, r.pot, r.message))
	}
}
