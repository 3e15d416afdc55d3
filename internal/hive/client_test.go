package hive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// rpcStub serves canned JSON-RPC results and records requests
func rpcStub(t *testing.T, result string) (*httptest.Server, *[]rpcRequest) {
	t.Helper()
	var requests []rpcRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestBalanceFound(t *testing.T) {
	srv, requests := rpcStub(t, `{"account":"alice","symbol":"PEK","balance":"12.5"}`)
	c := NewClient(srv.URL, srv.URL, testLogger())

	balance, err := c.Balance(context.Background(), "alice", "PEK")
	require.NoError(t, err)
	assert.Equal(t, 12.5, balance)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "findOne", req.Method)
	assert.Equal(t, "tokens", req.Params.Contract)
	assert.Equal(t, "balances", req.Params.Table)
	assert.Equal(t, "alice", req.Params.Query["account"])
	assert.Equal(t, "PEK", req.Params.Query["symbol"])
}

func TestBalanceNoRecordIsZero(t *testing.T) {
	srv, _ := rpcStub(t, `null`)
	c := NewClient(srv.URL, srv.URL, testLogger())

	balance, err := c.Balance(context.Background(), "nobody", "PEK")
	require.NoError(t, err, "a missing record is not a failure")
	assert.Zero(t, balance)
}

func TestBalanceServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.URL, testLogger())

	_, err := c.Balance(context.Background(), "alice", "PEK")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBalanceTransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections
	c := NewClient(srv.URL, srv.URL, testLogger())

	_, err := c.Balance(context.Background(), "alice", "PEK")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTransfersTo(t *testing.T) {
	srv, requests := rpcStub(t, `[
		{"_id":"tx2","from":"bob","to":"platform","symbol":"PEK","quantity":"5"},
		{"_id":"tx1","from":"alice","to":"platform","symbol":"PEK","quantity":"2.25"}
	]`)
	c := NewClient(srv.URL, srv.URL, testLogger())

	transfers, err := c.TransfersTo(context.Background(), "platform", "PEK", 100)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "tx2", transfers[0].ID)
	assert.Equal(t, 5.0, transfers[0].Amount())
	assert.Equal(t, "alice", transfers[1].From)
	assert.Equal(t, 2.25, transfers[1].Amount())

	req := (*requests)[0]
	assert.Equal(t, "find", req.Method)
	assert.Equal(t, "transfers", req.Params.Table)
	assert.Equal(t, "desc", req.Params.Sort)
	assert.Equal(t, 100, req.Params.Limit)
}

func TestTransferAmountMalformedIsZero(t *testing.T) {
	assert.Zero(t, Transfer{Quantity: "not-a-number"}.Amount())
}
