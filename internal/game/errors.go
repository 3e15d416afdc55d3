package game

import "errors"

var (
	// ErrInvalidBet is returned when a bet is not a positive finite amount.
	// Rejected before any state mutation.
	ErrInvalidBet = errors.New("bet must be a positive amount")

	// ErrInsufficientFunds is returned when the account balance cannot
	// cover the requested bet. Rejected before any state mutation.
	ErrInsufficientFunds = errors.New("insufficient balance for bet")

	// ErrTerminalStage is returned when Advance is called on a round
	// that has already reached showdown.
	ErrTerminalStage = errors.New("round is already at showdown")
)
