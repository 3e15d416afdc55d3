package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// Default Hive Engine endpoints
const (
	DefaultContractsURL = "https://api.hive-engine.com/rpc/contracts"
	DefaultHistoryURL   = "https://api.hive-engine.com/rpc/history"
)

// Client is a minimal JSON-RPC 2.0 client for a Hive-Engine-style
// token sidechain: balance lookups against the contracts node and
// transfer history against the history node.
type Client struct {
	contractsURL string
	historyURL   string
	httpClient   *http.Client
	logger       *log.Logger
}

// NewClient creates a client for the given RPC endpoints
func NewClient(contractsURL, historyURL string, logger *log.Logger) *Client {
	return &Client{
		contractsURL: contractsURL,
		historyURL:   historyURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.WithPrefix("hive"),
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	Contract string         `json:"contract"`
	Table    string         `json:"table"`
	Query    map[string]any `json:"query"`
	Limit    int            `json:"limit,omitempty"`
	Sort     string         `json:"sort,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

// call POSTs a JSON-RPC request and returns the raw result. Transport
// and HTTP-level failures come back wrapped in ErrUnavailable.
func (c *Client) call(ctx context.Context, url, method string, params rpcParams) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	return rpcResp.Result, nil
}

// Balance looks up the token balance for an account. An account with
// no balance record is 0 with no error.
func (c *Client) Balance(ctx context.Context, account, symbol string) (float64, error) {
	result, err := c.call(ctx, c.contractsURL, "findOne", rpcParams{
		Contract: "tokens",
		Table:    "balances",
		Query:    map[string]any{"account": account, "symbol": symbol},
	})
	if err != nil {
		return 0, err
	}
	if len(result) == 0 || string(result) == "null" {
		c.logger.Debug("no balance record", "account", account, "symbol", symbol)
		return 0, nil
	}

	var row struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(result, &row); err != nil {
		return 0, fmt.Errorf("%w: malformed balance row: %v", ErrUnavailable, err)
	}
	balance, err := strconv.ParseFloat(row.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed balance %q", ErrUnavailable, row.Balance)
	}
	return balance, nil
}

// Transfer is a token transfer row from the history node
type Transfer struct {
	ID       string `json:"_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}

// Amount parses the transfer quantity, 0 when malformed
func (t Transfer) Amount() float64 {
	amount, err := strconv.ParseFloat(t.Quantity, 64)
	if err != nil {
		return 0
	}
	return amount
}

// TransfersTo returns the most recent token transfers into an account,
// newest first.
func (c *Client) TransfersTo(ctx context.Context, account, symbol string, limit int) ([]Transfer, error) {
	result, err := c.call(ctx, c.historyURL, "find", rpcParams{
		Contract: "tokens",
		Table:    "transfers",
		Query:    map[string]any{"to": account, "symbol": symbol},
		Limit:    limit,
		Sort:     "desc",
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var transfers []Transfer
	if err := json.Unmarshal(result, &transfers); err != nil {
		return nil, fmt.Errorf("%w: malformed transfer rows: %v", ErrUnavailable, err)
	}
	return transfers, nil
}
