package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer answers every call of a method with the result returned by handler.
func newRPCServer(t *testing.T, handlers map[string]func() any) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		handler, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, endpoint string) *Client {
	c, err := New(Config{
		Endpoint:        endpoint,
		Commitment:      rpc.CommitmentConfirmed,
		ConfirmInterval: 5 * time.Millisecond,
		ConfirmTimeout:  200 * time.Millisecond,
	}, nil)
	require.Nil(t, err)
	return c
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(Config{}, nil)
	require.NotNil(t, err)
}

func TestConfigFromRepo(t *testing.T) {
	cfg := ConfigFromRepo(repo.DefaultConfig().Chain, nil)
	cfg.sanitize()
	assert.Equal(t, 2*time.Second, cfg.ConfirmInterval)
	assert.Equal(t, 120*time.Second, cfg.ConfirmTimeout)
	assert.NotNil(t, cfg.Logger)

	cfg = Config{Commitment: "bogus"}
	cfg.sanitize()
	assert.Equal(t, rpc.CommitmentConfirmed, cfg.Commitment)
}

func TestWaitConfirmed(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, map[string]func() any{
		"getSignatureStatuses": func() any {
			n := calls.Add(1)
			if n == 1 {
				return map[string]any{"context": map[string]any{"slot": 1}, "value": []any{nil}}
			}
			status := "processed"
			if n >= 3 {
				status = "confirmed"
			}
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value": []any{map[string]any{
					"slot":               1,
					"confirmations":      nil,
					"err":                nil,
					"confirmationStatus": status,
				}},
			}
		},
	})

	c := newTestClient(t, srv.URL)
	err := c.WaitConfirmed(context.Background(), solana.Signature{1, 2, 3})
	require.Nil(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitConfirmedOnChainError(t *testing.T) {
	srv := newRPCServer(t, map[string]func() any{
		"getSignatureStatuses": func() any {
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value": []any{map[string]any{
					"slot":               1,
					"err":                map[string]any{"InstructionError": []any{0, "InvalidAccountData"}},
					"confirmationStatus": "confirmed",
				}},
			}
		},
	})

	c := newTestClient(t, srv.URL)
	err := c.WaitConfirmed(context.Background(), solana.Signature{1})
	require.ErrorIs(t, err, ErrTransaction)
}

func TestWaitConfirmedTimeout(t *testing.T) {
	srv := newRPCServer(t, map[string]func() any{
		"getSignatureStatuses": func() any {
			return map[string]any{"context": map[string]any{"slot": 1}, "value": []any{nil}}
		},
	})

	c := newTestClient(t, srv.URL)
	err := c.WaitConfirmed(context.Background(), solana.Signature{1})
	require.ErrorIs(t, err, ErrNotConfirmed)
}

func TestAccountData(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	owner := solana.SystemProgramID.String()
	srv := newRPCServer(t, map[string]func() any{
		"getAccountInfo": func() any {
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value": map[string]any{
					"data":       []any{base64.StdEncoding.EncodeToString(data), "base64"},
					"executable": false,
					"lamports":   1000,
					"owner":      owner,
					"rentEpoch":  0,
					"space":      len(data),
				},
			}
		},
	})

	c := newTestClient(t, srv.URL)
	got, err := c.AccountData(context.Background(), solana.NewWallet().PublicKey())
	require.Nil(t, err)
	assert.Equal(t, data, got)
}

func TestAccountDataNotFound(t *testing.T) {
	srv := newRPCServer(t, map[string]func() any{
		"getAccountInfo": func() any {
			return map[string]any{"context": map[string]any{"slot": 1}, "value": nil}
		},
	})

	c := newTestClient(t, srv.URL)
	_, err := c.AccountData(context.Background(), solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

// newFailingServer answers every call with a JSON-RPC error and counts calls per method.
func newFailingServer(t *testing.T) (*httptest.Server, map[string]*atomic.Int32) {
	counts := map[string]*atomic.Int32{
		"getSignaturesForAddress": {},
		"getTransaction":          {},
		"getAccountInfo":          {},
		"getLatestBlockhash":      {},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		if c, ok := counts[req.Method]; ok {
			c.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32005, "message": "node is behind"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, counts
}

func TestReadsAreNotRetriedByTheClient(t *testing.T) {
	srv, counts := newFailingServer(t)
	key := solana.NewWallet().PrivateKey
	c, err := New(Config{
		Endpoint: srv.URL,
		Retry:    retrypolicy.Policy{Limit: 3, Wait: time.Millisecond, Backoff: repo.BackoffFixed},
	}, &key)
	require.Nil(t, err)
	ctx := context.Background()

	_, err = c.ListRecentSignatures(ctx, solana.NewWallet().PublicKey().String(), 10)
	require.NotNil(t, err)
	_, err = c.GetTransaction(ctx, solana.Signature{1}.String())
	require.NotNil(t, err)
	_, err = c.AccountData(ctx, solana.NewWallet().PublicKey())
	require.NotNil(t, err)
	assert.Equal(t, int32(1), counts["getSignaturesForAddress"].Load())
	assert.Equal(t, int32(1), counts["getTransaction"].Load())
	assert.Equal(t, int32(1), counts["getAccountInfo"].Load())

	_, err = c.SendAndConfirm(ctx, nil)
	require.NotNil(t, err)
	assert.Equal(t, int32(3), counts["getLatestBlockhash"].Load())
}

func TestSendWithoutSigner(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.SendAndConfirm(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoSigner)
	_, err = c.Wallet()
	require.ErrorIs(t, err, ErrNoSigner)
	_, err = c.SignMessage([]byte("x"))
	require.ErrorIs(t, err, ErrNoSigner)
}

func TestSignMessage(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	c, err := New(Config{Endpoint: "http://127.0.0.1:1"}, &key)
	require.Nil(t, err)

	wallet, err := c.Wallet()
	require.Nil(t, err)
	assert.Equal(t, key.PublicKey(), wallet)

	msg := []byte(`{"cert_pub":"A","hotkey":"B"}`)
	sig, err := c.SignMessage(msg)
	require.Nil(t, err)
	assert.True(t, wallet.Verify(msg, sig))
}

func TestInvalidInputs(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.ListRecentSignatures(context.Background(), "not-base58-!", 10)
	require.NotNil(t, err)
	_, err = c.GetTransaction(context.Background(), "0OIl")
	require.NotNil(t, err)
}

func TestReached(t *testing.T) {
	assert.True(t, reached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed))
	assert.True(t, reached(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.False(t, reached(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.False(t, reached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
	assert.True(t, reached(rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized))
}
