package game

// Account is the player's token account for the session. It outlives
// any single round. The balance is a local mirror of the on-chain
// amount: debited at round start, credited on tie refunds, and
// overwritten wholesale whenever the gateway reports an authoritative
// figure.
type Account struct {
	Identity string
	Balance  float64
	Token    string

	// Stale is set when a balance refresh failed and Balance still
	// holds the last known value rather than the gateway's answer.
	Stale bool
}

// Debit removes amount from the local balance
func (a *Account) Debit(amount float64) {
	a.Balance -= amount
}

// Credit adds amount to the local balance
func (a *Account) Credit(amount float64) {
	a.Balance += amount
}

// SetBalance overwrites the local balance with an authoritative figure
// from the gateway and clears staleness.
func (a *Account) SetBalance(amount float64) {
	a.Balance = amount
	a.Stale = false
}
