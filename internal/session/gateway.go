package session

import "context"

// Gateway is the session's narrow contract with the external wallet
// world: identity, balance, and token transfer. Implementations talk
// to whatever chain or extension backs the tokens; the session only
// sees these three operations and their failures.
type Gateway interface {
	// SignIn resolves the account identity used for balance queries
	// and payouts.
	SignIn(ctx context.Context) (string, error)

	// FetchBalance returns the authoritative token balance for the
	// identity. An account with no record is 0 with a nil error;
	// transport problems are errors.
	FetchBalance(ctx context.Context, identity string) (float64, error)

	// Transfer moves amount from one account to another. It fails
	// loudly when no signing capability is available.
	Transfer(ctx context.Context, from, to string, amount float64) error
}
