package hive

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/charmbracelet/log"
)

// GuestIdentity is used when no signing capability is configured. A
// guest can look up balances and play, but any payout attempt fails
// loudly with ErrNoSigner.
const GuestIdentity = "guest"

// Broadcaster is the signing capability, shaped like a Keychain-style
// wallet extension: it resolves the signing account and broadcasts a
// signed custom_json operation to the sidechain.
type Broadcaster interface {
	// SignIn resolves the account the signer acts for.
	SignIn(ctx context.Context) (string, error)

	// BroadcastCustomJSON signs and broadcasts a custom_json operation
	// with the account's given authority.
	BroadcastCustomJSON(ctx context.Context, account, authority, contractID string, payload []byte, display string) error
}

// custom_json constants for Hive Engine token operations
const (
	sidechainID     = "ssc-mainnet-hive"
	activeAuthority = "Active"
)

// Gateway adapts the engine RPC client plus an optional Broadcaster to
// the session's wallet contract. With a nil broadcaster it runs in
// guest mode.
type Gateway struct {
	client      *Client
	broadcaster Broadcaster
	symbol      string
	memo        string
	logger      *log.Logger
}

// NewGateway creates a wallet gateway for the given token symbol.
// broadcaster may be nil for guest mode.
func NewGateway(client *Client, broadcaster Broadcaster, symbol string, logger *log.Logger) *Gateway {
	return &Gateway{
		client:      client,
		broadcaster: broadcaster,
		symbol:      symbol,
		memo:        "Poker win!",
		logger:      logger.WithPrefix("gateway"),
	}
}

// SignIn resolves the player identity via the broadcaster, or the
// guest identity when none is configured.
func (g *Gateway) SignIn(ctx context.Context) (string, error) {
	if g.broadcaster == nil {
		g.logger.Info("no signer configured, playing as guest")
		return GuestIdentity, nil
	}
	return g.broadcaster.SignIn(ctx)
}

// FetchBalance returns the on-chain token balance for the identity
func (g *Gateway) FetchBalance(ctx context.Context, identity string) (float64, error) {
	return g.client.Balance(ctx, identity, g.symbol)
}

// transferPayload is the tokens.transfer custom_json body
type transferPayload struct {
	ContractName    string          `json:"contractName"`
	ContractAction  string          `json:"contractAction"`
	ContractPayload transferDetails `json:"contractPayload"`
}

type transferDetails struct {
	Symbol   string `json:"symbol"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// Transfer broadcasts a signed token transfer. Without a signer the
// transfer fails loudly; the caller surfaces that to the user.
func (g *Gateway) Transfer(ctx context.Context, from, to string, amount float64) error {
	if g.broadcaster == nil {
		return ErrNoSigner
	}

	payload, err := json.Marshal(transferPayload{
		ContractName:   "tokens",
		ContractAction: "transfer",
		ContractPayload: transferDetails{
			Symbol:   g.symbol,
			To:       to,
			Quantity: strconv.FormatFloat(amount, 'f', -1, 64),
			Memo:     g.memo,
		},
	})
	if err != nil {
		return err
	}

	display := "Send " + g.symbol
	if err := g.broadcaster.BroadcastCustomJSON(ctx, from, activeAuthority, sidechainID, payload, display); err != nil {
		return &TransferError{Reason: err.Error()}
	}
	g.logger.Info("transfer broadcast", "from", from, "to", to, "amount", amount, "symbol", g.symbol)
	return nil
}
