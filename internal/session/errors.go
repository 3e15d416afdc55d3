package session

import "errors"

var (
	// ErrRoundBusy is returned while a gateway call for this session is
	// still pending. The pending call holds an implicit lock on the
	// round; nothing else may start or advance it until the call
	// resolves or fails.
	ErrRoundBusy = errors.New("a wallet operation is still pending")

	// ErrNotSignedIn is returned when an operation needs an account and
	// no sign-in has completed.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrNoRound is returned when Advance is called with no round in
	// progress.
	ErrNoRound = errors.New("no round in progress")

	// ErrRoundInProgress is returned when SignIn is attempted while a
	// round is still unresolved. The live round holds a pointer to the
	// current account; swapping accounts mid-round would strand the
	// debited bet and any tie refund on the old one.
	ErrRoundInProgress = errors.New("a round is still in progress")

	// ErrGatewayTimeout is returned when a gateway call does not
	// resolve within the session timeout. Recoverable: the user can
	// retry, and the account keeps its last known state.
	ErrGatewayTimeout = errors.New("wallet gateway timed out")
)
